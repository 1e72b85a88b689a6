package round

import (
	"errors"
	"fmt"
)

const (
	// DefaultWhiteWin is the maximal single-round score of the default variant.
	DefaultWhiteWin = 39
	// DefaultLoserShare is what each of the other three seats pays on a white win.
	DefaultLoserShare = 13
)

// ErrNotWhiteWin is returned when a value does not match the configured sentinel.
var ErrNotWhiteWin = errors.New("round: value is not a white win")

// Rules holds the scoring constants of a game variant.
type Rules struct {
	// WhiteWin is the sentinel value that settles a round on its own.
	// Zero or negative disables the shortcut.
	WhiteWin int
	// LoserShare is deducted from each non-winning seat on a white win.
	LoserShare int
}

// DefaultRules returns the 39 / 13 variant.
func DefaultRules() Rules {
	return Rules{WhiteWin: DefaultWhiteWin, LoserShare: DefaultLoserShare}
}

// Enabled reports whether the white-win shortcut is active.
func (r Rules) Enabled() bool {
	return r.WhiteWin > 0
}

// Validate checks that a white win splits into an exact zero-sum round.
func (r Rules) Validate() error {
	if !r.Enabled() {
		return nil
	}
	if r.LoserShare <= 0 {
		return fmt.Errorf("round: loser share must be positive, got %d", r.LoserShare)
	}
	if !InRange(r.WhiteWin) {
		return fmt.Errorf("round: white win %d exceeds %d", r.WhiteWin, MaxPoints)
	}
	if r.LoserShare*(NumPlayers-1) != r.WhiteWin {
		return fmt.Errorf("round: white win %d does not split into %d shares of %d",
			r.WhiteWin, NumPlayers-1, r.LoserShare)
	}
	return nil
}

// IsWhiteWin reports whether an entered value triggers the shortcut.
func (r Rules) IsWhiteWin(v int) bool {
	return r.Enabled() && v == r.WhiteWin
}

// ResolveWhiteWin builds the round for a white win by winner. The winner
// takes the sentinel and every other seat pays LoserShare.
func (r Rules) ResolveWhiteWin(winner PlayerKey, value int) (Round, error) {
	if !winner.Valid() {
		return Round{}, fmt.Errorf("round: invalid winner %d", int(winner))
	}
	if !r.IsWhiteWin(value) {
		return Round{}, fmt.Errorf("%w: %d", ErrNotWhiteWin, value)
	}
	var out Round
	for _, k := range Keys {
		if k == winner {
			out[k] = r.WhiteWin
		} else {
			out[k] = -r.LoserShare
		}
	}
	return out, nil
}

// Shortcut reports the seat to settle as a white win when p holds exactly one
// value and that value is the sentinel. Used by one-shot entries.
func (r Rules) Shortcut(p PartialRound) (PlayerKey, bool) {
	if len(p.Unset()) != NumPlayers-1 {
		return 0, false
	}
	for _, k := range Keys {
		if v, ok := p.Get(k); ok {
			return k, r.IsWhiteWin(v)
		}
	}
	return 0, false
}
