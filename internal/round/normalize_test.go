package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fixedParser(p PartialRound, ok bool) Parser {
	return func(string, Directory) (PartialRound, bool) { return p, ok }
}

func TestNormalizeNegatesAndCompletes(t *testing.T) {
	n := NewNormalizer(fixedParser(partialOf(ip(5), ip(-5), ip(0), nil), true))

	got := n.Normalize("an 5 binh -5 chi 0", sampleDirectory())

	assert.True(t, got.Parsed)
	assert.True(t, got.Valid)
	assert.Equal(t, Round{-5, 5, 0, 0}, got.Round)
}

func TestNormalizeLeavesPartialForCorrection(t *testing.T) {
	n := NewNormalizer(fixedParser(partialOf(ip(5), ip(3), nil, nil), true))

	got := n.Normalize("an 5 binh 3", sampleDirectory())

	assert.True(t, got.Parsed)
	assert.False(t, got.Valid)
	assert.Equal(t, partialOf(ip(-5), ip(-3), nil, nil), got.Partial)
}

func TestNormalizeUnbalancedFullRound(t *testing.T) {
	n := NewNormalizer(fixedParser(partialOf(ip(5), ip(3), ip(1), ip(1)), true))

	got := n.Normalize("x", nil)

	assert.True(t, got.Parsed)
	assert.False(t, got.Valid)
	assert.Equal(t, partialOf(ip(-5), ip(-3), ip(-1), ip(-1)), got.Partial)
}

func TestNormalizeUnparsed(t *testing.T) {
	assert.False(t, NewNormalizer(fixedParser(PartialRound{}, false)).Normalize("??", nil).Parsed)
	assert.False(t, NewNormalizer(fixedParser(PartialRound{}, true)).Normalize("", nil).Parsed)
	assert.False(t, NewNormalizer(nil).Normalize("an 5", nil).Parsed)
}

func TestNormalizeDoubleNegationRoundTrip(t *testing.T) {
	raw := partialOf(ip(4), ip(-9), nil, nil)
	n := NewNormalizer(fixedParser(raw, true))

	got := n.Normalize("", nil)

	back := NewNormalizer(fixedParser(got.Partial, true)).Normalize("", nil)
	assert.Equal(t, raw, back.Partial)
}
