package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

// classifyError maps an error to a client-facing code and HTTP status.
func classifyError(err error) (string, int) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "not_found", http.StatusNotFound
	case errors.Is(err, store.ErrGameEnded):
		return "game_ended", http.StatusConflict
	case errors.Is(err, round.ErrIncompleteRound):
		return "incomplete_round", http.StatusUnprocessableEntity
	case errors.Is(err, round.ErrDegenerateRound):
		return "degenerate_round", http.StatusUnprocessableEntity
	case errors.Is(err, round.ErrUnbalancedRound):
		return "unbalanced_round", http.StatusUnprocessableEntity
	case errors.Is(err, round.ErrOutOfRange):
		return "out_of_range", http.StatusUnprocessableEntity
	case errors.Is(err, round.ErrNotWhiteWin):
		return "white_win_disabled", http.StatusUnprocessableEntity
	case errors.Is(err, errShorthandNotUnderstood):
		return "shorthand_not_understood", http.StatusUnprocessableEntity
	case errors.Is(err, errEmptyEntry), errors.Is(err, errBadRequest):
		return "bad_request", http.StatusBadRequest
	default:
		return "internal", http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, status := classifyError(err)
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, map[string]ErrorData{"error": {Code: code, Message: err.Error()}})
}
