package round

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteLeavesOutOfRangeInputs(t *testing.T) {
	p := partialOf(ip(math.MaxInt), ip(math.MaxInt), ip(2), nil)
	assert.Equal(t, p, Complete(p))
}

func TestCompleteFillsLastSeat(t *testing.T) {
	for missing := range Keys {
		for _, vals := range [][3]int{{5, -5, 10}, {1, 2, 3}, {0, 0, 7}, {-13, -13, -13}} {
			var p PartialRound
			i := 0
			for _, k := range Keys {
				if int(k) == missing {
					continue
				}
				p = p.With(k, vals[i])
				i++
			}

			got := Complete(p)
			v, ok := got.Get(PlayerKey(missing))
			require.True(t, ok)
			assert.Equal(t, -(vals[0] + vals[1] + vals[2]), v)

			r, ok := got.Round()
			require.True(t, ok)
			assert.Equal(t, 0, r.Sum())
			assert.True(t, Validate(got), "completed %v should validate", got)
		}
	}
}

func TestCompleteAllZeroStillRejected(t *testing.T) {
	got := Complete(partialOf(ip(0), ip(0), ip(0), nil))
	assert.Equal(t, partialOf(ip(0), ip(0), ip(0), ip(0)), got)
	assert.Equal(t, ErrDegenerateRound, Classify(got))
}

func TestCompleteIdentity(t *testing.T) {
	cases := map[string]PartialRound{
		"none unset":  partialOf(ip(1), ip(2), ip(3), ip(4)),
		"two unset":   partialOf(ip(5), ip(-5), nil, nil),
		"three unset": partialOf(nil, ip(9), nil, nil),
		"four unset":  {},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, p, Complete(p))
		})
	}
}
