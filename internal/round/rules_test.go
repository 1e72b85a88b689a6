package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWhiteWinEveryWinner(t *testing.T) {
	rules := DefaultRules()
	for _, k := range Keys {
		r, err := rules.ResolveWhiteWin(k, DefaultWhiteWin)
		require.NoError(t, err)
		assert.True(t, r.Valid(), "white win for %s must validate", k)
		for _, other := range Keys {
			if other == k {
				assert.Equal(t, 39, r.Get(other))
			} else {
				assert.Equal(t, -13, r.Get(other))
			}
		}
	}
}

func TestResolveWhiteWinOtherVariant(t *testing.T) {
	rules := Rules{WhiteWin: 60, LoserShare: 20}
	require.NoError(t, rules.Validate())

	r, err := rules.ResolveWhiteWin(C, 60)
	require.NoError(t, err)
	assert.Equal(t, Round{-20, -20, 60, -20}, r)
}

func TestResolveWhiteWinRejects(t *testing.T) {
	rules := DefaultRules()

	_, err := rules.ResolveWhiteWin(A, 38)
	assert.ErrorIs(t, err, ErrNotWhiteWin)

	_, err = rules.ResolveWhiteWin(PlayerKey(7), 39)
	assert.Error(t, err)

	_, err = Rules{}.ResolveWhiteWin(A, 0)
	assert.ErrorIs(t, err, ErrNotWhiteWin)
}

func TestRulesValidate(t *testing.T) {
	assert.NoError(t, DefaultRules().Validate())
	assert.NoError(t, Rules{}.Validate(), "disabled rules are valid")
	assert.Error(t, Rules{WhiteWin: 40, LoserShare: 13}.Validate())
	assert.Error(t, Rules{WhiteWin: 39}.Validate())
}

func TestIsWhiteWin(t *testing.T) {
	rules := DefaultRules()
	assert.True(t, rules.IsWhiteWin(39))
	assert.False(t, rules.IsWhiteWin(-39))
	assert.False(t, rules.IsWhiteWin(13))
	assert.False(t, Rules{}.IsWhiteWin(0))
}

func TestShortcut(t *testing.T) {
	rules := DefaultRules()

	k, ok := rules.Shortcut(partialOf(nil, nil, ip(39), nil))
	require.True(t, ok)
	assert.Equal(t, C, k)

	_, ok = rules.Shortcut(partialOf(ip(38), nil, nil, nil))
	assert.False(t, ok)

	_, ok = rules.Shortcut(partialOf(ip(39), ip(-13), nil, nil))
	assert.False(t, ok, "only a lone value is a shortcut")

	_, ok = rules.Shortcut(PartialRound{})
	assert.False(t, ok)

	_, ok = Rules{}.Shortcut(partialOf(ip(0), nil, nil, nil))
	assert.False(t, ok)
}

func TestRulesValidateBound(t *testing.T) {
	assert.Error(t, Rules{WhiteWin: 3 * (MaxPoints + 1), LoserShare: MaxPoints + 1}.Validate())
}
