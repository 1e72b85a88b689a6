package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lox/scorepad/cmd/scorepad/shared"
	"github.com/lox/scorepad/internal/commentary"
	"github.com/lox/scorepad/internal/config"
	"github.com/lox/scorepad/internal/notify"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
	"github.com/lox/scorepad/internal/store/sqlite"
)

// app is the configured environment a command runs in.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	store  *sqlite.Store
}

// setup loads configuration, builds the logger and opens the database with
// the configured profiles seeded.
func (g *Globals) setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.Database != "" {
		cfg.Database.Path = g.Database
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := shared.NewLogger(g.LogFormat, g.Debug || cfg.Server.LogLevel == "debug")
	if err != nil {
		return nil, err
	}

	st, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.Profiles {
		if err := st.UpsertProfile(ctx, store.Profile{ID: p.ID, Name: p.Name, Email: p.Email, UserID: p.UserID}); err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("seed profile %s: %w", p.ID, err)
		}
	}
	logger.Debug().
		Str("database", cfg.Database.Path).
		Int("profiles", len(cfg.Profiles)).
		Msg("database ready")

	return &app{cfg: cfg, logger: logger, store: st}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// sideChannels builds the configured notifier and commentator. Commentary is
// only delivered through the notifier, so it is skipped when chat is off.
func (a *app) sideChannels() (round.Notifier, round.Commentator, error) {
	if !a.cfg.Slack.Enabled {
		if a.cfg.Commentary.Enabled {
			a.logger.Warn().Msg("commentary is enabled but slack is not; commentary disabled")
		}
		return nil, nil, nil
	}

	timeout, err := a.cfg.SlackTimeout()
	if err != nil {
		return nil, nil, err
	}
	slack, err := notify.NewSlackNotifier(a.logger, notify.SlackConfig{
		Token:   a.cfg.Secrets.SlackToken,
		Channel: a.cfg.Slack.Channel,
		BaseURL: a.cfg.Slack.BaseURL,
		Timeout: timeout,
		Rate:    rate.Limit(1),
		Burst:   3,
	})
	if err != nil {
		return nil, nil, err
	}
	if !a.cfg.Commentary.Enabled {
		return slack, nil, nil
	}

	timeout, err = a.cfg.CommentaryTimeout()
	if err != nil {
		return nil, nil, err
	}
	commentator, err := commentary.New(a.logger, commentary.Config{
		APIKey:  a.cfg.Secrets.OpenAIKey,
		Model:   a.cfg.Commentary.Model,
		BaseURL: a.cfg.Commentary.BaseURL,
		Timeout: timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return slack, commentator, nil
}
