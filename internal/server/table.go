package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/shorthand"
	"github.com/lox/scorepad/internal/store"
)

// table is the live entry state of one game. All session access happens
// under mu, which makes the session single-writer across connections.
type table struct {
	gameID  string
	seating *directory.Seating
	rules   round.Rules
	norm    *round.Normalizer
	emitter *round.Emitter
	logger  zerolog.Logger
	srv     *Server

	mu      sync.Mutex
	session *round.Session
	conns   map[*connection]struct{}

	refs int // guarded by hub.mu
}

// outcome is what a table operation produced.
type outcome struct {
	emission *round.Emission
	// changed is set when the partial round may differ.
	changed bool
}

func (t *table) attach(c *connection) {
	t.mu.Lock()
	t.conns[c] = struct{}{}
	t.mu.Unlock()
	t.broadcastState()
}

func (t *table) detach(c *connection) {
	t.mu.Lock()
	delete(t.conns, c)
	t.mu.Unlock()
	t.broadcastState()
}

// handle applies one decoded inbound message.
func (t *table) handle(msgType MessageType, apply func(*round.Session) (outcome, error)) error {
	t.mu.Lock()
	out, err := apply(t.session)
	t.mu.Unlock()

	if out.emission != nil {
		t.broadcastRound(*out.emission)
	}
	if out.changed || out.emission != nil {
		t.broadcastState()
	}
	if err != nil {
		t.logger.Debug().Err(err).Str("type", string(msgType)).Msg("session request refused")
	}
	return err
}

func setPoint(ctx context.Context, k round.PlayerKey, v int) func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		em, err := s.SetPoint(ctx, k, v)
		return outcome{emission: em, changed: true}, err
	}
}

func clearPoint(k round.PlayerKey) func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		s.ClearPoint(k)
		return outcome{changed: true}, nil
	}
}

func submit(ctx context.Context) func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		em, err := s.Submit(ctx)
		return outcome{emission: em, changed: em != nil}, err
	}
}

func whiteWin(ctx context.Context, k round.PlayerKey) func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		em, err := s.WhiteWin(ctx, k)
		return outcome{emission: em, changed: true}, err
	}
}

// errShorthandNotUnderstood is reported when the parser extracts nothing.
var errShorthandNotUnderstood = errors.New("shorthand not understood")

func enterShorthand(ctx context.Context, text string) func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		em, ok, err := s.Shorthand(ctx, text)
		if !ok {
			return outcome{}, errShorthandNotUnderstood
		}
		return outcome{emission: em, changed: true}, err
	}
}

func reset() func(*round.Session) (outcome, error) {
	return func(s *round.Session) (outcome, error) {
		s.Reset()
		return outcome{changed: true}, nil
	}
}

// Entry is a one-shot round submitted outside the live session. Exactly one
// field is used, checked in the order WhiteWin, Shorthand, Points. A single
// point equal to the white-win value settles the round as a white win.
type Entry struct {
	Points    *round.PartialRound `json:"points,omitempty"`
	WhiteWin  *round.PlayerKey    `json:"white_win,omitempty"`
	Shorthand string              `json:"shorthand,omitempty"`
}

// errEmptyEntry is returned when an Entry carries nothing.
var errEmptyEntry = errors.New("entry needs points, white_win or shorthand")

// record emits e directly without touching the typed partial.
func (t *table) record(ctx context.Context, e Entry) (round.Emission, error) {
	t.mu.Lock()
	em, err := t.recordLocked(ctx, e)
	t.mu.Unlock()
	if err != nil {
		return round.Emission{}, err
	}
	t.broadcastRound(em)
	return em, nil
}

func (t *table) recordLocked(ctx context.Context, e Entry) (round.Emission, error) {
	switch {
	case e.WhiteWin != nil:
		r, err := t.rules.ResolveWhiteWin(*e.WhiteWin, t.rules.WhiteWin)
		if err != nil {
			return round.Emission{}, err
		}
		return t.emitter.Emit(ctx, r, round.SourceWhiteWin)

	case e.Shorthand != "":
		res := t.norm.Normalize(e.Shorthand, t.seating)
		if !res.Parsed {
			return round.Emission{}, errShorthandNotUnderstood
		}
		if !res.Valid {
			return round.Emission{}, fmt.Errorf("%w: %s", round.Classify(res.Partial), res.Partial)
		}
		return t.emitter.Emit(ctx, res.Round, round.SourceShorthand)

	case e.Points != nil:
		if k, ok := t.rules.Shortcut(*e.Points); ok {
			r, err := t.rules.ResolveWhiteWin(k, t.rules.WhiteWin)
			if err != nil {
				return round.Emission{}, err
			}
			return t.emitter.Emit(ctx, r, round.SourceWhiteWin)
		}
		p := round.Complete(*e.Points)
		if err := round.Classify(p); err != nil {
			return round.Emission{}, fmt.Errorf("%w: %s", err, p)
		}
		r, _ := p.Round()
		return t.emitter.Emit(ctx, r, round.SourceSubmit)

	default:
		return round.Emission{}, errEmptyEntry
	}
}

func (t *table) state() StateData {
	t.mu.Lock()
	defer t.mu.Unlock()
	return StateData{
		GameID:    t.gameID,
		Partial:   t.session.Partial(),
		CanSubmit: t.session.CanSubmit(),
		Seats:     t.seating.Seats(),
		Clients:   len(t.conns),
	}
}

func (t *table) recipients() []*connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*connection, 0, len(t.conns))
	for c := range t.conns {
		out = append(out, c)
	}
	return out
}

func (t *table) broadcastState() {
	t.broadcast(TypeState, t.state())
}

func (t *table) broadcastRound(em round.Emission) {
	t.broadcast(TypeRound, em)
}

func (t *table) broadcast(msgType MessageType, data any) {
	msg, err := NewMessage(msgType, data, t.srv.clock.Now())
	if err != nil {
		t.logger.Error().Err(err).Str("type", string(msgType)).Msg("failed to encode message")
		return
	}
	count := 0
	for _, c := range t.recipients() {
		if err := c.send(msg); err == nil {
			count++
		}
	}
	t.logger.Debug().Str("type", string(msgType)).Int("recipients", count).Msg("broadcast")
}

// hub owns the live tables, one per game.
type hub struct {
	srv *Server

	mu     sync.Mutex
	tables map[string]*table

	// draining tracks side-channel deliveries of released tables.
	draining sync.WaitGroup
}

func newHub(srv *Server) *hub {
	return &hub{srv: srv, tables: make(map[string]*table)}
}

// acquire returns the live table for gameID, opening it if needed. Every
// acquire must be paired with release.
func (h *hub) acquire(ctx context.Context, gameID string) (*table, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if t, ok := h.tables[gameID]; ok {
		t.refs++
		return t, nil
	}
	t, err := h.open(ctx, gameID)
	if err != nil {
		return nil, err
	}
	t.refs = 1
	h.tables[gameID] = t
	h.srv.metrics.SessionOpened()
	return t, nil
}

func (h *hub) open(ctx context.Context, gameID string) (*table, error) {
	game, err := h.srv.store.Game(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.IsEnded {
		return nil, store.ErrGameEnded
	}
	seating, err := directory.Load(ctx, h.srv.store, gameID)
	if err != nil {
		return nil, err
	}

	cfg := h.srv.cfg
	logger := h.srv.logger.With().Str("game_id", gameID).Logger()
	opts := []round.EmitterOption{
		round.WithLocale(cfg.Locale),
		round.WithClock(h.srv.clock),
		round.WithObserver(h.srv.metrics),
		round.WithSideChannelTimeout(cfg.SideChannelTimeout),
	}
	if cfg.Notifier != nil {
		opts = append(opts, round.WithNotifier(cfg.Notifier, game.SlackThread))
		if cfg.Commentator != nil {
			opts = append(opts, round.WithCommentator(cfg.Commentator))
		}
	}
	emitter := round.NewEmitter(logger, gameID, h.srv.store, seating, opts...)
	norm := round.NewNormalizer(shorthand.Parse)

	return &table{
		gameID:  gameID,
		seating: seating,
		rules:   cfg.Rules,
		norm:    norm,
		emitter: emitter,
		logger:  logger.With().Str("component", "table").Logger(),
		srv:     h.srv,
		session: round.NewSession(logger, cfg.Rules, emitter, norm, seating),
		conns:   make(map[*connection]struct{}),
	}, nil
}

// release drops a reference and closes the table when none remain. Pending
// chat deliveries keep running and are awaited by wait.
func (h *hub) release(t *table) {
	h.mu.Lock()
	defer h.mu.Unlock()

	t.refs--
	if t.refs > 0 {
		return
	}
	delete(h.tables, t.gameID)
	h.srv.metrics.SessionClosed()

	h.draining.Add(1)
	go func() {
		defer h.draining.Done()
		t.emitter.Wait()
	}()
}

// live returns the table for gameID if one is open.
func (h *hub) live(gameID string) (*table, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tables[gameID]
	return t, ok
}

// closeAll disconnects every client and waits for pending deliveries.
func (h *hub) closeAll() {
	h.mu.Lock()
	tables := make([]*table, 0, len(h.tables))
	for _, t := range h.tables {
		tables = append(tables, t)
	}
	h.mu.Unlock()

	for _, t := range tables {
		for _, c := range t.recipients() {
			_ = c.close()
		}
		t.emitter.Wait()
	}
	h.draining.Wait()
}
