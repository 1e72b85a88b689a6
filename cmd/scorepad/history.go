package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/history"
	"github.com/lox/scorepad/internal/round"
)

// HistoryCmd groups round history file commands.
type HistoryCmd struct {
	Export HistoryExportCmd `cmd:"" help:"Write a game's rounds to a TOML history file"`
	Show   HistoryShowCmd   `cmd:"" help:"Print a history file"`
}

// HistoryExportCmd writes a history file.
type HistoryExportCmd struct {
	ID     string `arg:"" help:"Game ID"`
	Output string `short:"o" type:"path" help:"Output file (default <game-id>.toml)"`
}

func (c *HistoryExportCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	game, err := a.store.Game(ctx, c.ID)
	if err != nil {
		return err
	}
	seating, err := directory.Load(ctx, a.store, c.ID)
	if err != nil {
		return err
	}
	rows, err := a.store.Rounds(ctx, c.ID)
	if err != nil {
		return err
	}

	path := c.Output
	if path == "" {
		path = game.ID + ".toml"
	}
	if err := history.WriteFile(path, history.Build(game, seating, rows)); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	a.logger.Info().Str("game_id", game.ID).Str("path", path).Int("rounds", len(rows)).Msg("history exported")
	return nil
}

// HistoryShowCmd renders a history file. It needs no database.
type HistoryShowCmd struct {
	File string `arg:"" type:"existingfile" help:"History file"`
}

func (c *HistoryShowCmd) Run() error {
	h, err := history.ReadFile(c.File)
	if err != nil {
		return err
	}

	headers := []string{"#", "Time"}
	for i, k := range round.Keys {
		name := round.UnknownPlayer
		if i < len(h.Game.Players) {
			name = h.Game.Players[i]
		}
		headers = append(headers, fmt.Sprintf("%s %s", k, name))
	}
	headers = append(headers, "Winner")

	rows := make([][]string, 0, len(h.Rounds)+1)
	for _, e := range h.Rounds {
		r := e.Round()
		line := []string{fmt.Sprint(e.Seq), e.RecordedAt.Local().Format(time.TimeOnly)}
		for _, k := range round.Keys {
			line = append(line, points(r.Get(k)))
		}
		rows = append(rows, append(line, e.Winner))
	}
	if len(rows) > 0 {
		totals := h.Totals()
		line := []string{"Σ", ""}
		for _, k := range round.Keys {
			line = append(line, points(totals.Get(k)))
		}
		rows = append(rows, append(line, ""))
	}

	status := "live"
	if h.Game.Ended {
		status = "ended"
	}
	title := fmt.Sprintf("%s %s (%s, %s)", h.Game.GameType, h.Game.ID, status, h.Game.CreatedAt.Local().Format(time.DateTime))
	printTable(os.Stdout, title, headers, rows)
	return nil
}
