package main

import (
	"context"
	"os"
	"time"

	"github.com/lox/scorepad/internal/store"
)

// ReportCmd groups point reports.
type ReportCmd struct {
	Date ReportDateCmd `cmd:"" help:"Points per player for a game type over a date range"`
	User ReportUserCmd `cmd:"" help:"Points per game for one player"`
}

// ReportDateCmd aggregates points by player.
type ReportDateCmd struct {
	Type string `required:"" help:"Game type"`
	From string `help:"First day (YYYY-MM-DD or RFC 3339)"`
	To   string `help:"Last day (YYYY-MM-DD or RFC 3339)"`
}

func (c *ReportDateCmd) Run(g *Globals) error {
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

	report, err := a.store.ReportByDate(ctx, store.GameQuery{GameType: c.Type, From: from, To: to})
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(report))
	for _, np := range report {
		rows = append(rows, []string{np.Name, points(np.Point)})
	}
	printTable(os.Stdout, c.Type+" standings", []string{"Player", "Points"}, rows)
	return nil
}

// ReportUserCmd lists one player's games.
type ReportUserCmd struct {
	Ref string `arg:"" help:"Email address or chat user ID"`
}

func (c *ReportUserCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.store.ReportByUser(ctx, c.Ref)
	if err != nil {
		return err
	}
	total := 0
	rows := make([][]string, 0, len(report)+1)
	for _, gp := range report {
		total += gp.Point
		rows = append(rows, []string{
			gp.GameDate.Local().Format(time.DateTime),
			gp.GameType,
			gp.GameID,
			points(gp.Point),
		})
	}
	if len(rows) > 0 {
		rows = append(rows, []string{"", "", "total", points(total)})
	}
	printTable(os.Stdout, "Games for "+c.Ref, []string{"Date", "Type", "Game", "Points"}, rows)
	return nil
}
