package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/scorepad/internal/round"
)

type names map[round.PlayerKey]string

func (n names) ProfileID(k round.PlayerKey) (string, bool) { return "", false }

func (n names) DisplayName(k round.PlayerKey) (string, bool) {
	v, ok := n[k]
	return v, ok
}

var seated = names{round.A: "An", round.B: "Binh", round.C: "Chi", round.D: "Dung"}

func TestParseSeats(t *testing.T) {
	seats, err := parseSeats([]string{"A=p-an", "b=p-binh", "C = p-chi", "D=p-dung"})
	require.NoError(t, err)
	assert.Equal(t, map[round.PlayerKey]string{
		round.A: "p-an", round.B: "p-binh", round.C: "p-chi", round.D: "p-dung",
	}, seats)

	for _, bad := range [][]string{
		{"A=p-an", "B=p-binh", "C=p-chi"},
		{"A=p-an", "A=p-binh", "C=p-chi", "D=p-dung"},
		{"E=p-an", "B=p-binh", "C=p-chi", "D=p-dung"},
		{"A", "B=p-binh", "C=p-chi", "D=p-dung"},
		{"A=", "B=p-binh", "C=p-chi", "D=p-dung"},
	} {
		_, err := parseSeats(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestParseSets(t *testing.T) {
	p, err := parseSets([]string{"A=5", "b=-5", "C=0"})
	require.NoError(t, err)
	v, ok := p.Get(round.B)
	require.True(t, ok)
	assert.Equal(t, -5, v)
	assert.Equal(t, []round.PlayerKey{round.D}, p.Unset())

	for _, bad := range [][]string{
		nil,
		{"A=five"},
		{"A=1", "A=2"},
		{"Z=1"},
		{"A:1"},
		{"A=100001"},
		{"A=9223372036854775807", "B=9223372036854775807", "C=2"},
	} {
		_, err := parseSets(bad)
		assert.Error(t, err, "%v", bad)
	}
}

func TestRoundResolve(t *testing.T) {
	rules := round.DefaultRules()

	tests := []struct {
		name   string
		cmd    RoundCmd
		want   round.Round
		source round.Source
	}{
		{"three values", RoundCmd{Set: []string{"A=5", "B=-5", "C=0"}}, round.Round{5, -5, 0, 0}, round.SourceSubmit},
		{"four values", RoundCmd{Set: []string{"A=1", "B=2", "C=3", "D=-6"}}, round.Round{1, 2, 3, -6}, round.SourceSubmit},
		{"white win", RoundCmd{WhiteWin: "b"}, round.Round{-13, 39, -13, -13}, round.SourceWhiteWin},
		{"single white-win value", RoundCmd{Set: []string{"D=39"}}, round.Round{-13, -13, -13, 39}, round.SourceWhiteWin},
		{"shorthand", RoundCmd{Shorthand: "an 5 binh 3 chi 2"}, round.Round{-5, -3, -2, 10}, round.SourceShorthand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, source, err := tt.cmd.resolve(rules, seated)
			require.NoError(t, err)
			assert.Equal(t, tt.want, r)
			assert.Equal(t, tt.source, source)
		})
	}
}

func TestRoundResolveRejects(t *testing.T) {
	rules := round.DefaultRules()

	_, _, err := (&RoundCmd{Set: []string{"A=1"}}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrIncompleteRound)

	_, _, err = (&RoundCmd{Set: []string{"A=0", "B=0", "C=0"}}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrDegenerateRound)

	_, _, err = (&RoundCmd{Set: []string{"A=1", "B=1", "C=1", "D=1"}}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrUnbalancedRound)

	_, _, err = (&RoundCmd{Set: []string{"A=39", "B=-13"}}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrIncompleteRound)

	_, _, err = (&RoundCmd{Set: []string{"A=9223372036854775807", "B=9223372036854775807", "C=2"}}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrOutOfRange)

	_, _, err = (&RoundCmd{Shorthand: "hello"}).resolve(rules, seated)
	assert.Error(t, err)

	_, _, err = (&RoundCmd{Shorthand: "an 5"}).resolve(rules, seated)
	assert.ErrorIs(t, err, round.ErrIncompleteRound)
}

func TestDateRange(t *testing.T) {
	from, to, err := dateRange("", "")
	require.NoError(t, err)
	assert.True(t, from.IsZero())
	assert.True(t, to.IsZero())

	from, to, err = dateRange("2025-03-01", "2025-03-01")
	require.NoError(t, err)
	assert.Equal(t, 0, from.Hour())
	assert.Equal(t, 24*time.Hour-time.Millisecond, to.Sub(from))

	from, _, err = dateRange("2025-03-01T10:00:00Z", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), from.UTC())

	_, _, err = dateRange("yesterday", "")
	assert.Error(t, err)

	_, _, err = dateRange("2025-03-02", "2025-03-01")
	assert.Error(t, err)
}
