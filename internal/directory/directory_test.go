package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

type fakeSource struct {
	game     store.Game
	profiles []store.Profile
	err      error
}

func (f fakeSource) Game(_ context.Context, id string) (store.Game, error) {
	if f.err != nil {
		return store.Game{}, f.err
	}
	if id != f.game.ID {
		return store.Game{}, store.ErrNotFound
	}
	return f.game, nil
}

func (f fakeSource) Profiles(context.Context) ([]store.Profile, error) {
	return f.profiles, nil
}

func TestSeatingResolvesSeats(t *testing.T) {
	s := New(map[round.PlayerKey]string{
		round.A: "p-an",
		round.B: "p-binh",
		round.C: "p-ghost",
	}, map[string]string{"p-an": "An", "p-binh": "Binh"})

	id, ok := s.ProfileID(round.A)
	assert.True(t, ok)
	assert.Equal(t, "p-an", id)

	name, ok := s.DisplayName(round.B)
	assert.True(t, ok)
	assert.Equal(t, "Binh", name)

	_, ok = s.DisplayName(round.C)
	assert.False(t, ok)
	assert.Equal(t, round.UnknownPlayer, round.DisplayName(s, round.C))

	_, ok = s.ProfileID(round.D)
	assert.False(t, ok)
	_, ok = s.ProfileID(round.PlayerKey(9))
	assert.False(t, ok)

	seats := s.Seats()
	assert.Equal(t, Seat{ProfileID: "p-ghost"}, seats["C"])
	assert.Equal(t, Seat{}, seats["D"])
}

func TestNilSeating(t *testing.T) {
	var s *Seating
	_, ok := s.ProfileID(round.A)
	assert.False(t, ok)
	_, ok = s.DisplayName(round.A)
	assert.False(t, ok)
}

func TestLoad(t *testing.T) {
	src := fakeSource{
		game: store.Game{ID: "g1", Seats: map[round.PlayerKey]string{
			round.A: "p-an", round.B: "p-binh", round.C: "p-chi", round.D: "p-dung",
		}},
		profiles: []store.Profile{
			{ID: "p-an", Name: "An"},
			{ID: "p-binh", Name: "Binh"},
			{ID: "p-chi", Name: "Chi"},
			{ID: "p-dung", Name: "Dung"},
		},
	}

	s, err := Load(context.Background(), src, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Dung", round.DisplayName(s, round.D))

	_, err = Load(context.Background(), src, "g2")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = Load(context.Background(), fakeSource{err: errors.New("db down")}, "g1")
	assert.Error(t, err)
}
