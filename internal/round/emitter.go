package round

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
)

// Source labels the path a round took to emission.
type Source string

const (
	SourceEntry     Source = "entry"
	SourceSubmit    Source = "submit"
	SourceWhiteWin  Source = "white_win"
	SourceShorthand Source = "shorthand"
)

// RoundRecord is what the persistence collaborator receives.
type RoundRecord struct {
	GameID     string
	Seating    map[PlayerKey]string
	Round      Round
	RecordedAt time.Time
}

// Recorder stores finalized rounds. Its error is the only one Emit surfaces.
type Recorder interface {
	RecordRound(ctx context.Context, rec RoundRecord) error
}

// Notifier posts text to a chat thread.
type Notifier interface {
	Notify(ctx context.Context, text, thread string) error
}

// Commentator produces a short remark about a round.
type Commentator interface {
	Comment(ctx context.Context, names []string, winner string) (string, error)
}

// Observer receives emission events, typically for metrics.
type Observer interface {
	RoundEmitted(source string)
	RoundRejected(reason string)
	RecordFailed()
	SideChannelFailed(channel string)
}

type nopObserver struct{}

func (nopObserver) RoundEmitted(string)      {}
func (nopObserver) RoundRejected(string)     {}
func (nopObserver) RecordFailed()            {}
func (nopObserver) SideChannelFailed(string) {}

// Emission describes a recorded round.
type Emission struct {
	GameID     string     `json:"game_id"`
	Source     Source     `json:"source"`
	Round      Round      `json:"round"`
	Standings  []Standing `json:"standings"`
	Winner     PlayerKey  `json:"winner"`
	WinnerName string     `json:"winner_name"`
	Summary    string     `json:"summary"`
	RecordedAt time.Time  `json:"recorded_at"`
}

const defaultSideChannelTimeout = 30 * time.Second

// Emitter is the single exit point for finalized rounds.
type Emitter struct {
	gameID   string
	recorder Recorder
	dir      Directory
	logger   zerolog.Logger

	notifier    Notifier
	commentator Commentator
	thread      string
	locale      language.Tag
	clock       quartz.Clock
	observer    Observer
	timeout     time.Duration

	wg sync.WaitGroup
}

// EmitterOption configures an Emitter.
type EmitterOption func(*Emitter)

// WithNotifier enables chat delivery to thread.
func WithNotifier(n Notifier, thread string) EmitterOption {
	return func(e *Emitter) {
		e.notifier = n
		e.thread = thread
	}
}

// WithCommentator enables commentary. It is only used alongside a notifier.
func WithCommentator(c Commentator) EmitterOption {
	return func(e *Emitter) { e.commentator = c }
}

// WithLocale sets the summary language.
func WithLocale(tag language.Tag) EmitterOption {
	return func(e *Emitter) { e.locale = tag }
}

// WithClock sets the clock used for RecordedAt.
func WithClock(clock quartz.Clock) EmitterOption {
	return func(e *Emitter) { e.clock = clock }
}

// WithObserver attaches an observer.
func WithObserver(o Observer) EmitterOption {
	return func(e *Emitter) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithSideChannelTimeout bounds each chat or commentary delivery.
func WithSideChannelTimeout(d time.Duration) EmitterOption {
	return func(e *Emitter) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEmitter creates an emitter for one game.
func NewEmitter(logger zerolog.Logger, gameID string, recorder Recorder, dir Directory, opts ...EmitterOption) *Emitter {
	e := &Emitter{
		gameID:   gameID,
		recorder: recorder,
		dir:      dir,
		logger:   logger.With().Str("component", "emitter").Str("game_id", gameID).Logger(),
		locale:   language.English,
		clock:    quartz.NewReal(),
		observer: nopObserver{},
		timeout:  defaultSideChannelTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit records r and dispatches chat and commentary in the background.
// Only a recording failure is returned.
func (e *Emitter) Emit(ctx context.Context, r Round, source Source) (Emission, error) {
	if err := Classify(r.Partial()); err != nil {
		e.observer.RoundRejected(RejectReason(err))
		return Emission{}, err
	}
	if e.recorder == nil {
		return Emission{}, errors.New("round: no recorder configured")
	}

	standings := Standings(r, e.dir)
	winner := Winner(r)
	em := Emission{
		GameID:     e.gameID,
		Source:     source,
		Round:      r,
		Standings:  standings,
		Winner:     winner,
		WinnerName: DisplayName(e.dir, winner),
		Summary:    Summary(e.locale, standings),
		RecordedAt: e.clock.Now().UTC(),
	}

	rec := RoundRecord{
		GameID:     e.gameID,
		Seating:    e.seating(),
		Round:      r,
		RecordedAt: em.RecordedAt,
	}
	if err := e.recorder.RecordRound(ctx, rec); err != nil {
		e.observer.RecordFailed()
		return Emission{}, fmt.Errorf("record round: %w", err)
	}

	e.observer.RoundEmitted(string(source))
	e.logger.Info().
		Str("source", string(source)).
		Str("round", r.String()).
		Str("winner", winner.String()).
		Msg(em.Summary)

	e.dispatch(ctx, em)
	return em, nil
}

// Wait blocks until background deliveries have finished.
func (e *Emitter) Wait() {
	e.wg.Wait()
}

func (e *Emitter) seating() map[PlayerKey]string {
	seats := make(map[PlayerKey]string, NumPlayers)
	if e.dir == nil {
		return seats
	}
	for _, k := range Keys {
		if id, ok := e.dir.ProfileID(k); ok {
			seats[k] = id
		}
	}
	return seats
}

func (e *Emitter) dispatch(ctx context.Context, em Emission) {
	if e.notifier == nil {
		return
	}
	base := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(base, e.timeout)
		defer cancel()
		if err := e.notifier.Notify(ctx, ChatText(em.Standings), e.thread); err != nil {
			e.observer.SideChannelFailed("notify")
			e.logger.Error().Err(err).Msg("round notification failed")
		}
	}()

	if e.commentator == nil {
		return
	}
	names := make([]string, 0, NumPlayers)
	for _, k := range Keys {
		names = append(names, DisplayName(e.dir, k))
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(base, e.timeout)
		defer cancel()
		msg, err := e.commentator.Comment(ctx, names, em.WinnerName)
		if err != nil {
			e.observer.SideChannelFailed("commentary")
			e.logger.Error().Err(err).Msg("could not get commentary")
			return
		}
		if msg == "" {
			return
		}
		if err := e.notifier.Notify(ctx, msg, e.thread); err != nil {
			e.observer.SideChannelFailed("notify")
			e.logger.Error().Err(err).Msg("commentary notification failed")
		}
	}()
}
