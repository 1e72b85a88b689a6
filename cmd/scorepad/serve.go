package main

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lox/scorepad/cmd/scorepad/shared"
	"github.com/lox/scorepad/internal/server"
)

// ServeCmd runs the HTTP API and live entry sessions.
type ServeCmd struct {
	Addr            string        `help:"Listen address (overrides config)"`
	ShutdownTimeout time.Duration `default:"5s" help:"How long to wait for sessions and chat deliveries on shutdown"`
}

func (c *ServeCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	notifier, commentator, err := a.sideChannels()
	if err != nil {
		return err
	}
	locale, err := a.cfg.Locale()
	if err != nil {
		return err
	}
	timeout, err := a.cfg.SlackTimeout()
	if err != nil {
		return err
	}

	cfg := server.Config{
		Rules:              a.cfg.RoundRules(),
		Locale:             locale,
		Notifier:           notifier,
		Commentator:        commentator,
		SideChannelTimeout: timeout,
	}
	s, err := server.NewServer(logger, a.store, server.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	addr := c.Addr
	if addr == "" {
		addr = a.cfg.ServerAddress()
	}
	logger.Info().
		Str("address", addr).
		Str("database", a.cfg.Database.Path).
		Str("locale", locale.String()).
		Int("white_win", cfg.Rules.WhiteWin).
		Int("loser_share", cfg.Rules.LoserShare).
		Bool("slack", notifier != nil).
		Bool("commentary", commentator != nil).
		Msg("Starting scorepad server")

	sigCtx := shared.SetupSignalHandlerWithLogger(logger)
	grp, gctx := errgroup.WithContext(sigCtx)
	grp.Go(func() error {
		return s.Start(addr)
	})
	grp.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})
	return grp.Wait()
}
