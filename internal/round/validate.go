package round

import "errors"

var (
	// ErrIncompleteRound is returned when one or more seats are unset.
	ErrIncompleteRound = errors.New("round: incomplete round")
	// ErrDegenerateRound is returned for the all-zero round.
	ErrDegenerateRound = errors.New("round: all four values are zero")
	// ErrUnbalancedRound is returned when the four values do not sum to zero.
	ErrUnbalancedRound = errors.New("round: values do not sum to zero")
	// ErrOutOfRange is returned when a seat value exceeds MaxPoints.
	ErrOutOfRange = errors.New("round: value out of range")
)

// Validate reports whether p is complete and legal: every seat set and within
// MaxPoints, not all zero, and summing to exactly zero.
func Validate(p PartialRound) bool {
	return Classify(p) == nil
}

// Classify returns nil for a legal round, or the sentinel error describing
// why it cannot be recorded yet.
func Classify(p PartialRound) error {
	for _, k := range Keys {
		if v, ok := p.Get(k); ok && !InRange(v) {
			return ErrOutOfRange
		}
	}
	r, ok := p.Round()
	if !ok {
		return ErrIncompleteRound
	}
	if r.AllZero() {
		return ErrDegenerateRound
	}
	if r.Sum() != 0 {
		return ErrUnbalancedRound
	}
	return nil
}

// RejectReason names the error class for metrics labels.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrIncompleteRound):
		return "incomplete"
	case errors.Is(err, ErrDegenerateRound):
		return "degenerate"
	case errors.Is(err, ErrUnbalancedRound):
		return "unbalanced"
	case errors.Is(err, ErrOutOfRange):
		return "out_of_range"
	default:
		return "other"
	}
}
