package server

import (
	"encoding/json"
	"time"

	"github.com/lox/scorepad/internal/directory"
	"github.com/lox/scorepad/internal/round"
)

// MessageType names a session message.
type MessageType string

// Client → server
const (
	TypeSetPoint   MessageType = "set_point"
	TypeClearPoint MessageType = "clear_point"
	TypeSubmit     MessageType = "submit"
	TypeWhiteWin   MessageType = "white_win"
	TypeShorthand  MessageType = "shorthand"
	TypeReset      MessageType = "reset"
)

// Server → client
const (
	TypeState MessageType = "state"
	TypeRound MessageType = "round"
	TypeError MessageType = "error"
)

// Message is the envelope for every session frame.
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage wraps data in an envelope stamped with at.
func NewMessage(t MessageType, data any, at time.Time) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Data: raw, Timestamp: at}, nil
}

// SetPointData carries a seat value.
type SetPointData struct {
	Key   round.PlayerKey `json:"key"`
	Value int             `json:"value"`
}

// SeatData addresses a single seat.
type SeatData struct {
	Key round.PlayerKey `json:"key"`
}

// ShorthandData carries free text.
type ShorthandData struct {
	Text string `json:"text"`
}

// StateData is the session snapshot sent after every change.
type StateData struct {
	GameID    string                    `json:"game_id"`
	Partial   round.PartialRound        `json:"partial"`
	CanSubmit bool                      `json:"can_submit"`
	Seats     map[string]directory.Seat `json:"seats"`
	Clients   int                       `json:"clients"`
}

// ErrorData reports a refused or failed request.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
