// Package store defines game persistence types and the Store contract.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/lox/scorepad/internal/round"
)

var (
	// ErrNotFound is returned when a game or profile does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrGameEnded is returned when rounds are recorded against an ended game.
	ErrGameEnded = errors.New("store: game has ended")
)

// Profile is a player identity.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	UserID string `json:"user_id,omitempty"`
}

// NewGame describes a game to create.
type NewGame struct {
	GameType    string
	Seats       map[round.PlayerKey]string
	SlackThread string
}

// Game is a stored game.
type Game struct {
	ID          string                     `json:"id"`
	GameType    string                     `json:"game_type"`
	IsEnded     bool                       `json:"is_ended"`
	SlackThread string                     `json:"slack_thread,omitempty"`
	Seats       map[round.PlayerKey]string `json:"seats"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// PlayerPoints is a profile's point total within one game.
type PlayerPoints struct {
	ProfileID string `json:"profile_id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
}

// GameWithPoints is a game together with its final point rows.
type GameWithPoints struct {
	Game
	Points []PlayerPoints `json:"points"`
}

// RoundRow is a recorded round.
type RoundRow struct {
	Seq        int         `json:"seq"`
	Round      round.Round `json:"round"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// GameQuery selects games of one type created within [From, To].
type GameQuery struct {
	GameType string
	From     time.Time
	To       time.Time
}

// NamePoints is a report line summed per profile.
type NamePoints struct {
	Name  string `json:"name"`
	Point int    `json:"point"`
}

// UserGamePoint is one game's total for a single profile.
type UserGamePoint struct {
	GameID   string    `json:"game_id"`
	GameType string    `json:"game_type"`
	Point    int       `json:"point"`
	GameDate time.Time `json:"game_date"`
}

// Store persists games, rounds and profile points.
type Store interface {
	round.Recorder

	UpsertProfile(ctx context.Context, p Profile) error
	Profiles(ctx context.Context) ([]Profile, error)

	CreateGame(ctx context.Context, g NewGame) (Game, error)
	Game(ctx context.Context, id string) (Game, error)
	EndGame(ctx context.Context, id string) ([]PlayerPoints, error)
	DeleteGame(ctx context.Context, id string) error
	GamesByType(ctx context.Context, q GameQuery) ([]GameWithPoints, error)
	Rounds(ctx context.Context, gameID string) ([]RoundRow, error)

	ReportByDate(ctx context.Context, q GameQuery) ([]NamePoints, error)
	ReportByUser(ctx context.Context, ref string) ([]UserGamePoint, error)

	Close() error
}
