package shorthand

import (
	"testing"

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

var table = names{
	round.A: "An",
	round.B: "Bình",
	round.C: "Minh Châu",
	round.D: "Đức",
}

func partial(vals map[round.PlayerKey]int) round.PartialRound {
	var p round.PartialRound
	for k, v := range vals {
		p = p.With(k, v)
	}
	return p
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[round.PlayerKey]int
	}{
		{"names", "an 5 binh -5 minh chau 0", map[round.PlayerKey]int{round.A: 5, round.B: -5, round.C: 0}},
		{"separators", "An=5, Bình: -5; Đức +7", map[round.PlayerKey]int{round.A: 5, round.B: -5, round.D: 7}},
		{"keys", "a 1 B 2 c 3 d -6", map[round.PlayerKey]int{round.A: 1, round.B: 2, round.C: 3, round.D: -6}},
		{"first name", "minh 4", map[round.PlayerKey]int{round.C: 4}},
		{"prefix", "bin 3 du -3", map[round.PlayerKey]int{round.B: 3, round.D: -3}},
		{"last wins", "an 1 an 2", map[round.PlayerKey]int{round.A: 2}},
		{"positional", "5 -5 0", map[round.PlayerKey]int{round.A: 5, round.B: -5, round.C: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.text, table)
			require.True(t, ok)
			assert.Equal(t, partial(tt.want), got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, text := range []string{
		"",
		"   ",
		"hello",
		"5 an",
		"an 5 zed 3",
		"an 5 binh",
		"an five",
		"1 2 3 4 5",
		"an 9223372036854775807 binh 9223372036854775807 chi 2",
		"an 100001",
		"9223372036854775807 1 1",
	} {
		_, ok := Parse(text, table)
		assert.False(t, ok, "%q should not parse", text)
	}
}

func TestParseAcceptsBound(t *testing.T) {
	got, ok := Parse("an 100000 binh -100000", table)
	require.True(t, ok)
	assert.Equal(t, partial(map[round.PlayerKey]int{round.A: round.MaxPoints, round.B: -round.MaxPoints}), got)
}

func TestParseAmbiguousPrefix(t *testing.T) {
	dir := names{round.A: "Minh", round.B: "Minh Anh"}

	_, ok := Parse("mi 3", dir)
	assert.False(t, ok)

	got, ok := Parse("minh 3", dir)
	require.True(t, ok)
	assert.Equal(t, partial(map[round.PlayerKey]int{round.A: 3}), got)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "duc", Fold("Đức"))
	assert.Equal(t, "minh chau", Fold("  Minh   Châu "))
	assert.Equal(t, "nguyen", Fold("Nguyễn"))
}

func TestParseIsRoundParser(t *testing.T) {
	var _ round.Parser = Parse
}
