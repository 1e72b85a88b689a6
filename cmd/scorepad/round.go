package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/shorthand"
	"github.com/lox/scorepad/internal/store"
)

// RoundCmd records one round outside a live session. The last seat is
// derived when exactly three are given.
type RoundCmd struct {
	Game      string   `arg:"" help:"Game ID"`
	Set       []string `xor:"entry" required:"" help:"Seat value KEY=POINTS, repeated"`
	WhiteWin  string   `xor:"entry" required:"" name:"white-win" help:"Seat that won with the white-win shortcut"`
	Shorthand string   `xor:"entry" required:"" help:"Free-text entry, e.g. \"an 5 binh 3 chi 2\""`
}

func (c *RoundCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	game, err := a.store.Game(ctx, c.Game)
	if err != nil {
		return err
	}
	if game.IsEnded {
		return store.ErrGameEnded
	}
	seating, err := directory.Load(ctx, a.store, game.ID)
	if err != nil {
		return err
	}

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
	opts := []round.EmitterOption{
		round.WithLocale(locale),
		round.WithSideChannelTimeout(timeout),
	}
	if notifier != nil {
		opts = append(opts, round.WithNotifier(notifier, game.SlackThread))
	}
	if commentator != nil {
		opts = append(opts, round.WithCommentator(commentator))
	}
	emitter := round.NewEmitter(a.logger.With().Str("game_id", game.ID).Logger(), game.ID, a.store, seating, opts...)
	defer emitter.Wait()

	r, source, err := c.resolve(a.cfg.RoundRules(), seating)
	if err != nil {
		return err
	}
	em, err := emitter.Emit(ctx, r, source)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(em.Standings))
	for _, s := range em.Standings {
		rows = append(rows, []string{s.Key.String(), s.Name, points(s.Points)})
	}
	printTable(os.Stdout, em.Summary, []string{"Seat", "Player", "Points"}, rows)
	return nil
}

// resolve turns the flags into a legal round.
func (c *RoundCmd) resolve(rules round.Rules, dir round.Directory) (round.Round, round.Source, error) {
	switch {
	case c.WhiteWin != "":
		k, err := round.ParsePlayerKey(c.WhiteWin)
		if err != nil {
			return round.Round{}, "", err
		}
		r, err := rules.ResolveWhiteWin(k, rules.WhiteWin)
		return r, round.SourceWhiteWin, err

	case c.Shorthand != "":
		res := round.NewNormalizer(shorthand.Parse).Normalize(c.Shorthand, dir)
		if !res.Parsed {
			return round.Round{}, "", fmt.Errorf("could not understand %q", c.Shorthand)
		}
		if !res.Valid {
			return round.Round{}, "", fmt.Errorf("%w: %s", round.Classify(res.Partial), res.Partial)
		}
		return res.Round, round.SourceShorthand, nil

	default:
		p, err := parseSets(c.Set)
		if err != nil {
			return round.Round{}, "", err
		}
		if k, ok := rules.Shortcut(p); ok {
			r, err := rules.ResolveWhiteWin(k, rules.WhiteWin)
			return r, round.SourceWhiteWin, err
		}
		p = round.Complete(p)
		if err := round.Classify(p); err != nil {
			return round.Round{}, "", fmt.Errorf("%w: %s", err, p)
		}
		r, _ := p.Round()
		return r, round.SourceSubmit, nil
	}
}

// parseSets reads KEY=POINTS values into a partial round.
func parseSets(values []string) (round.PartialRound, error) {
	var p round.PartialRound
	if len(values) == 0 {
		return p, errors.New("no seat values given")
	}
	for _, v := range values {
		key, raw, ok := strings.Cut(v, "=")
		if !ok {
			return round.PartialRound{}, fmt.Errorf("value %q: expected KEY=POINTS", v)
		}
		k, err := round.ParsePlayerKey(key)
		if err != nil {
			return round.PartialRound{}, fmt.Errorf("value %q: %w", v, err)
		}
		if _, set := p.Get(k); set {
			return round.PartialRound{}, fmt.Errorf("seat %s given twice", k)
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return round.PartialRound{}, fmt.Errorf("value %q: points must be an integer", v)
		}
		if !round.InRange(n) {
			return round.PartialRound{}, fmt.Errorf("value %q: %w", v, round.ErrOutOfRange)
		}
		p = p.With(k, n)
	}
	return p, nil
}
