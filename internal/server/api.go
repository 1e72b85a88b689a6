package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/history"
	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

const maxBodySize = 1 << 16

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.store.Profiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if profiles == nil {
		profiles = []store.Profile{}
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) handleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	var p store.Profile
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(p.ID) == "" || strings.TrimSpace(p.Name) == "" {
		s.writeError(w, r, fmt.Errorf("%w: id and name are required", errBadRequest))
		return
	}
	if err := s.store.UpsertProfile(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type createGameRequest struct {
	GameType    string                     `json:"game_type"`
	Seats       map[round.PlayerKey]string `json:"seats"`
	SlackThread string                     `json:"slack_thread,omitempty"`
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if strings.TrimSpace(req.GameType) == "" {
		s.writeError(w, r, fmt.Errorf("%w: game_type is required", errBadRequest))
		return
	}
	for _, k := range round.Keys {
		if strings.TrimSpace(req.Seats[k]) == "" {
			s.writeError(w, r, fmt.Errorf("%w: seat %s is required", errBadRequest, k))
			return
		}
	}
	game, err := s.store.CreateGame(r.Context(), store.NewGame{
		GameType:    req.GameType,
		Seats:       req.Seats,
		SlackThread: req.SlackThread,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info().Str("game_id", game.ID).Str("game_type", game.GameType).Msg("game created")
	writeJSON(w, http.StatusCreated, game)
}

// parseRange reads from/to query values as dates or RFC 3339 timestamps. A
// bare date in to covers the whole day.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	parse := func(name string, endOfDay bool) (time.Time, error) {
		raw := strings.TrimSpace(r.URL.Query().Get(name))
		if raw == "" {
			return time.Time{}, nil
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t, nil
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: invalid %s %q", errBadRequest, name, raw)
		}
		if endOfDay {
			t = t.Add(24*time.Hour - time.Millisecond)
		}
		return t, nil
	}
	from, err := parse("from", false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parse("to", true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func gameQuery(r *http.Request) (store.GameQuery, error) {
	gameType := strings.TrimSpace(r.URL.Query().Get("type"))
	if gameType == "" {
		return store.GameQuery{}, fmt.Errorf("%w: type is required", errBadRequest)
	}
	from, to, err := parseRange(r)
	if err != nil {
		return store.GameQuery{}, err
	}
	return store.GameQuery{GameType: gameType, From: from, To: to}, nil
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	q, err := gameQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	games, err := s.store.GamesByType(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, games)
}

type gameResponse struct {
	store.Game
	Players map[string]directory.Seat `json:"players"`
	Live    bool                      `json:"live"`
	Partial *round.PartialRound       `json:"partial,omitempty"`
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	game, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seating, err := directory.Load(r.Context(), s.store, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := gameResponse{Game: game, Players: seating.Seats()}
	if t, ok := s.hub.live(id); ok {
		st := t.state()
		resp.Live = true
		resp.Partial = &st.Partial
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	totals, err := s.store.EndGame(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info().Str("game_id", id).Msg("game ended")
	writeJSON(w, http.StatusOK, totals)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeleteGame(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Info().Str("game_id", id).Msg("game deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := s.store.Rounds(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if rounds == nil {
		rounds = []store.RoundRow{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (s *Server) handleRecordRound(w http.ResponseWriter, r *http.Request) {
	var entry Entry
	if err := decodeBody(r, &entry); err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.hub.acquire(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.hub.release(t)

	em, err := t.record(r.Context(), entry)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, em)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	game, err := s.store.Game(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	seating, err := directory.Load(r.Context(), s.store, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.store.Rounds(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/toml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+".toml"))
	if err := history.Encode(w, history.Build(game, seating, rows)); err != nil {
		s.logger.Error().Err(err).Str("game_id", id).Msg("history export failed")
	}
}

func (s *Server) handleReportByDate(w http.ResponseWriter, r *http.Request) {
	q, err := gameQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	report, err := s.store.ReportByDate(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if report == nil {
		report = []store.NamePoints{}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleReportByUser(w http.ResponseWriter, r *http.Request) {
	report, err := s.store.ReportByUser(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	t, err := s.hub.acquire(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.hub.release(t)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("game_id", id).Msg("failed to upgrade connection")
		return
	}

	c := newConnection(r.Context(), conn, t, t.logger)
	t.attach(c)
	c.run()
	t.detach(c)
}
