// Package directory maps a game's seats to player profiles.
package directory

import (
	"context"
	"fmt"

	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

// Seat is one resolved seat.
type Seat struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
}

// Seating is a read-only round.Directory for one game.
type Seating struct {
	seats [round.NumPlayers]Seat
}

// New builds a Seating from seat → profile ID assignments and a profile ID →
// name lookup. Profiles missing from names keep an empty name and resolve to
// round.UnknownPlayer in summaries.
func New(seats map[round.PlayerKey]string, names map[string]string) *Seating {
	s := &Seating{}
	for k, id := range seats {
		if !k.Valid() {
			continue
		}
		s.seats[k] = Seat{ProfileID: id, Name: names[id]}
	}
	return s
}

// ProfileID implements round.Directory.
func (s *Seating) ProfileID(k round.PlayerKey) (string, bool) {
	if s == nil || !k.Valid() || s.seats[k].ProfileID == "" {
		return "", false
	}
	return s.seats[k].ProfileID, true
}

// DisplayName implements round.Directory.
func (s *Seating) DisplayName(k round.PlayerKey) (string, bool) {
	if s == nil || !k.Valid() || s.seats[k].Name == "" {
		return "", false
	}
	return s.seats[k].Name, true
}

// Seats returns the seats keyed by letter.
func (s *Seating) Seats() map[string]Seat {
	out := make(map[string]Seat, round.NumPlayers)
	for _, k := range round.Keys {
		out[k.String()] = s.seats[k]
	}
	return out
}

// Source is the subset of the store needed to build a Seating.
type Source interface {
	Game(ctx context.Context, id string) (store.Game, error)
	Profiles(ctx context.Context) ([]store.Profile, error)
}

// Load builds the Seating for gameID.
func Load(ctx context.Context, src Source, gameID string) (*Seating, error) {
	game, err := src.Game(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	profiles, err := src.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	names := make(map[string]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	return New(game.Seats, names), nil
}

var _ round.Directory = (*Seating)(nil)
