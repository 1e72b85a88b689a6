// Package round implements round entry and reconciliation for four-player
// zero-sum scoring.
//
// A round assigns an integer point delta to each of the four seats A, B, C
// and D. A round is only ever recorded when its deltas sum to zero and at
// least one of them is non-zero.
//
// # Pure functions
//
// The reconciliation rules are plain functions over value types:
//
//	p := round.PartialRound{}.With(round.A, 5).With(round.B, -5).With(round.C, 10)
//	p = round.Complete(p)      // D is derived as -10
//	ok := round.Validate(p)    // true
//
// Rules carries the white-win sentinel for the game variant:
//
//	r, _ := round.DefaultRules().ResolveWhiteWin(round.A, 39)
//	// A=39, B=-13, C=-13, D=-13
//
// # Entry sessions
//
// Session composes the functions above into the entry flow used by the
// websocket transport and the CLI. Every emitted round leaves through an
// Emitter, which records the round synchronously and fans chat and
// commentary deliveries out to background goroutines.
//
// # Winner tie-break
//
// When several seats share the maximum value, the winner is the first of
// them in A, B, C, D order. Summaries sort by ascending value with the same
// key order among equal values.
package round
