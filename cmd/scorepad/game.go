package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

// GameCmd groups game lifecycle commands.
type GameCmd struct {
	Create GameCreateCmd `cmd:"" help:"Start a game with four seated profiles"`
	End    GameEndCmd    `cmd:"" help:"End a game and print the totals"`
	Delete GameDeleteCmd `cmd:"" help:"Delete a game and its rounds"`
	List   GameListCmd   `cmd:"" help:"List games of a type"`
	Show   GameShowCmd   `cmd:"" help:"Show a game's seats and rounds"`
}

// GameCreateCmd creates a game.
type GameCreateCmd struct {
	Type   string   `required:"" help:"Game type, e.g. tienlen"`
	Seat   []string `required:"" help:"Seat assignment KEY=PROFILE_ID, repeated for A, B, C and D"`
	Thread string   `help:"Slack thread timestamp to post rounds into"`
}

func (c *GameCreateCmd) Run(g *Globals) error {
	seats, err := parseSeats(c.Seat)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	game, err := a.store.CreateGame(ctx, store.NewGame{GameType: c.Type, Seats: seats, SlackThread: c.Thread})
	if err != nil {
		return err
	}
	a.logger.Info().Str("game_id", game.ID).Str("game_type", game.GameType).Msg("game created")
	fmt.Println(game.ID)
	return nil
}

// parseSeats reads KEY=PROFILE_ID assignments. Every seat must be given
// exactly once.
func parseSeats(values []string) (map[round.PlayerKey]string, error) {
	seats := make(map[round.PlayerKey]string, round.NumPlayers)
	for _, v := range values {
		key, id, ok := strings.Cut(v, "=")
		if !ok {
			return nil, fmt.Errorf("seat %q: expected KEY=PROFILE_ID", v)
		}
		k, err := round.ParsePlayerKey(strings.TrimSpace(key))
		if err != nil {
			return nil, fmt.Errorf("seat %q: %w", v, err)
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("seat %q: profile id is empty", v)
		}
		if _, dup := seats[k]; dup {
			return nil, fmt.Errorf("seat %s assigned twice", k)
		}
		seats[k] = id
	}
	for _, k := range round.Keys {
		if _, ok := seats[k]; !ok {
			return nil, fmt.Errorf("seat %s is not assigned", k)
		}
	}
	return seats, nil
}

// GameEndCmd ends a game.
type GameEndCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *GameEndCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	totals, err := a.store.EndGame(ctx, c.ID)
	if err != nil {
		return err
	}
	a.logger.Info().Str("game_id", c.ID).Msg("game ended")

	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Name, points(t.Points)})
	}
	printTable(os.Stdout, "Final totals", []string{"Player", "Points"}, rows)
	return nil
}

// GameDeleteCmd deletes a game.
type GameDeleteCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *GameDeleteCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.DeleteGame(ctx, c.ID); err != nil {
		return err
	}
	a.logger.Info().Str("game_id", c.ID).Msg("game deleted")
	return nil
}

// GameListCmd lists games of one type in a date range.
type GameListCmd struct {
	Type string `required:"" help:"Game type"`
	From string `help:"First day (YYYY-MM-DD or RFC 3339)"`
	To   string `help:"Last day (YYYY-MM-DD or RFC 3339)"`
}

func (c *GameListCmd) Run(g *Globals) error {
	from, to, err := dateRange(c.From, c.To)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	games, err := a.store.GamesByType(ctx, store.GameQuery{GameType: c.Type, From: from, To: to})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(games))
	for _, gp := range games {
		status := "live"
		if gp.IsEnded {
			status = "ended"
		}
		parts := make([]string, 0, len(gp.Points))
		for _, p := range gp.Points {
			parts = append(parts, p.Name+" "+points(p.Points))
		}
		rows = append(rows, []string{
			gp.ID,
			gp.CreatedAt.Local().Format(time.DateTime),
			status,
			strings.Join(parts, "  "),
		})
	}
	printTable(os.Stdout, c.Type+" games", []string{"ID", "Created", "Status", "Points"}, rows)
	return nil
}

// GameShowCmd prints seats and rounds.
type GameShowCmd struct {
	ID string `arg:"" help:"Game ID"`
}

func (c *GameShowCmd) Run(g *Globals) error {
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

	headers := []string{"#"}
	for _, k := range round.Keys {
		headers = append(headers, fmt.Sprintf("%s %s", k, round.DisplayName(seating, k)))
	}
	var totals round.Round
	out := make([][]string, 0, len(rows)+1)
	for _, r := range rows {
		line := []string{fmt.Sprint(r.Seq)}
		for _, k := range round.Keys {
			line = append(line, points(r.Round.Get(k)))
			totals[k] += r.Round.Get(k)
		}
		out = append(out, line)
	}
	if len(rows) > 0 {
		line := []string{"Σ"}
		for _, k := range round.Keys {
			line = append(line, points(totals[k]))
		}
		out = append(out, line)
	}

	status := "live"
	if game.IsEnded {
		status = "ended"
	}
	title := fmt.Sprintf("%s %s (%s, %s)", game.GameType, game.ID, status, game.CreatedAt.Local().Format(time.DateTime))
	printTable(os.Stdout, title, headers, out)
	return nil
}

// dateRange parses optional from/to bounds. A bare date in to covers the
// whole day.
func dateRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDay(from, false)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("from: %w", err)
	}
	end, err := parseDay(to, true)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("to: %w", err)
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("to %s is before from %s", to, from)
	}
	return start, end, nil
}

func parseDay(value string, endOfDay bool) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", value)
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return t, nil
}
