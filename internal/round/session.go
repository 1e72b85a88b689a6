package round

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Session is the entry controller for one game. It owns the PartialRound
// being typed and is not safe for concurrent use; callers serialize access.
type Session struct {
	rules      Rules
	emitter    *Emitter
	normalizer *Normalizer
	dir        Directory
	logger     zerolog.Logger

	partial PartialRound
}

// NewSession creates a session that emits through emitter.
func NewSession(logger zerolog.Logger, rules Rules, emitter *Emitter, normalizer *Normalizer, dir Directory) *Session {
	return &Session{
		rules:      rules,
		emitter:    emitter,
		normalizer: normalizer,
		dir:        dir,
		logger:     logger.With().Str("component", "session").Logger(),
	}
}

// Partial returns the values typed so far.
func (s *Session) Partial() PartialRound {
	return s.partial
}

// CanSubmit reports whether the current values form a legal round.
func (s *Session) CanSubmit() bool {
	return Validate(s.partial)
}

// Reset clears every seat.
func (s *Session) Reset() {
	s.partial = PartialRound{}
}

// SetPoint records a value for k. A white-win value emits immediately for k.
// Otherwise the round is auto-completed and emitted once it validates. The
// returned emission is nil when the round is still in progress.
func (s *Session) SetPoint(ctx context.Context, k PlayerKey, v int) (*Emission, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("round: invalid player key %d", int(k))
	}

	if s.rules.IsWhiteWin(v) {
		return s.WhiteWin(ctx, k)
	}

	next := Complete(s.partial.With(k, v))
	if !Validate(next) {
		s.partial = next
		return nil, nil
	}
	s.Reset()
	return s.emit(ctx, next, SourceEntry)
}

// ClearPoint unsets k without running completion.
func (s *Session) ClearPoint(k PlayerKey) {
	s.partial = s.partial.Without(k)
}

// Submit emits the current values if they form a legal round. Otherwise the
// classification error is returned and nothing changes.
func (s *Session) Submit(ctx context.Context) (*Emission, error) {
	if err := Classify(s.partial); err != nil {
		if s.emitter != nil {
			s.emitter.observer.RoundRejected(RejectReason(err))
		}
		return nil, err
	}
	p := s.partial
	s.Reset()
	return s.emit(ctx, p, SourceSubmit)
}

// WhiteWin settles the round with winner taking the white-win value.
func (s *Session) WhiteWin(ctx context.Context, winner PlayerKey) (*Emission, error) {
	r, err := s.rules.ResolveWhiteWin(winner, s.rules.WhiteWin)
	if err != nil {
		return nil, err
	}
	s.Reset()
	return s.emitRound(ctx, r, SourceWhiteWin)
}

// Shorthand normalizes text into the session. A legal result is emitted; an
// incomplete one replaces the typed values for manual correction. Text the
// parser cannot read leaves the session untouched and returns ok=false.
func (s *Session) Shorthand(ctx context.Context, text string) (em *Emission, ok bool, err error) {
	res := s.normalizer.Normalize(text, s.dir)
	if !res.Parsed {
		s.logger.Debug().Str("text", text).Msg("shorthand not understood")
		return nil, false, nil
	}
	if !res.Valid {
		s.partial = res.Partial
		return nil, true, nil
	}
	s.Reset()
	em, err = s.emitRound(ctx, res.Round, SourceShorthand)
	return em, true, err
}

func (s *Session) emit(ctx context.Context, p PartialRound, source Source) (*Emission, error) {
	r, ok := p.Round()
	if !ok {
		return nil, ErrIncompleteRound
	}
	return s.emitRound(ctx, r, source)
}

func (s *Session) emitRound(ctx context.Context, r Round, source Source) (*Emission, error) {
	if s.emitter == nil {
		return nil, fmt.Errorf("round: session has no emitter")
	}
	em, err := s.emitter.Emit(ctx, r, source)
	if err != nil {
		return nil, err
	}
	return &em, nil
}
