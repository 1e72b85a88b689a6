package main

import (
	"context"
	"os"

	"github.com/lox/scorepad/internal/store"
)

// ProfileCmd groups profile commands.
type ProfileCmd struct {
	Add  ProfileAddCmd  `cmd:"" help:"Add or update a profile"`
	List ProfileListCmd `cmd:"" help:"List profiles"`
}

// ProfileAddCmd upserts a profile.
type ProfileAddCmd struct {
	ID     string `arg:"" help:"Profile ID"`
	Name   string `arg:"" help:"Display name"`
	Email  string `help:"Email address used by user reports"`
	UserID string `name:"user-id" help:"Chat user ID used by user reports"`
}

func (c *ProfileAddCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.store.UpsertProfile(ctx, store.Profile{ID: c.ID, Name: c.Name, Email: c.Email, UserID: c.UserID}); err != nil {
		return err
	}
	a.logger.Info().Str("profile_id", c.ID).Str("name", c.Name).Msg("profile saved")
	return nil
}

// ProfileListCmd prints every profile.
type ProfileListCmd struct{}

func (c *ProfileListCmd) Run(g *Globals) error {
	ctx := context.Background()
	a, err := g.setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	profiles, err := a.store.Profiles(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		rows = append(rows, []string{p.ID, p.Name, p.Email, p.UserID})
	}
	printTable(os.Stdout, "Profiles", []string{"ID", "Name", "Email", "User ID"}, rows)
	return nil
}
