package round

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlayerKey(t *testing.T) {
	for i, s := range []string{"A", "b", " C ", "d"} {
		k, err := ParsePlayerKey(s)
		require.NoError(t, err)
		assert.Equal(t, Keys[i], k)
	}
	for _, s := range []string{"", "E", "AB", "1"} {
		_, err := ParsePlayerKey(s)
		assert.Error(t, err, s)
	}
}

func TestPartialRoundIsValueType(t *testing.T) {
	p := PartialRound{}.With(A, 5)
	q := p.With(B, -5)

	_, ok := p.Get(B)
	assert.False(t, ok, "With must not mutate the receiver")
	v, ok := q.Get(B)
	require.True(t, ok)
	assert.Equal(t, -5, v)

	assert.Equal(t, []PlayerKey{B, C, D}, p.Unset())
	assert.True(t, PartialRound{}.IsEmpty())
	assert.True(t, q.Without(A).Without(B).IsEmpty())
}

func TestPartialRoundJSON(t *testing.T) {
	p := partialOf(ip(5), nil, ip(0), nil)

	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"A":5,"B":null,"C":0,"D":null}`, string(data))

	var decoded PartialRound
	require.NoError(t, json.Unmarshal([]byte(`{"A":5,"C":0,"D":null}`), &decoded))
	assert.Equal(t, p, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"E":1}`), &decoded))
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"A":9223372036854775807,"B":1}`), &decoded), ErrOutOfRange)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"A":-100001}`), &decoded), ErrOutOfRange)
}

func TestRoundJSONRequiresAllSeats(t *testing.T) {
	var r Round
	require.NoError(t, json.Unmarshal([]byte(`{"A":5,"B":-5,"C":10,"D":-10}`), &r))
	assert.Equal(t, Round{5, -5, 10, -10}, r)

	assert.Error(t, json.Unmarshal([]byte(`{"A":5,"B":-5}`), &r))
}

func TestNegateTwiceRestores(t *testing.T) {
	cases := []PartialRound{
		{},
		partialOf(ip(5), ip(-5), ip(0), nil),
		partialOf(ip(39), ip(-13), ip(-13), ip(-13)),
		partialOf(nil, nil, ip(-7), nil),
	}
	for _, p := range cases {
		assert.Equal(t, p, p.Negate().Negate(), p.String())
	}
}

func TestRoundString(t *testing.T) {
	assert.Equal(t, "A=5 B=_ C=0 D=_", partialOf(ip(5), nil, ip(0), nil).String())
	assert.Equal(t, "A=1 B=2 C=-3 D=0", Round{1, 2, -3, 0}.String())
}
