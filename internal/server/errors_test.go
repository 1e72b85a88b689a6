package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/scorepad/internal/round"
	"github.com/lox/scorepad/internal/store"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err    error
		code   string
		status int
	}{
		{store.ErrNotFound, "not_found", http.StatusNotFound},
		{fmt.Errorf("load: %w", store.ErrGameEnded), "game_ended", http.StatusConflict},
		{round.ErrIncompleteRound, "incomplete_round", http.StatusUnprocessableEntity},
		{round.ErrDegenerateRound, "degenerate_round", http.StatusUnprocessableEntity},
		{round.ErrUnbalancedRound, "unbalanced_round", http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: A=100001", round.ErrOutOfRange), "out_of_range", http.StatusUnprocessableEntity},
		{round.ErrNotWhiteWin, "white_win_disabled", http.StatusUnprocessableEntity},
		{errShorthandNotUnderstood, "shorthand_not_understood", http.StatusUnprocessableEntity},
		{errEmptyEntry, "bad_request", http.StatusBadRequest},
		{errors.New("disk full"), "internal", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		code, status := classifyError(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
		assert.Equal(t, tt.status, status, tt.err.Error())
	}
}
