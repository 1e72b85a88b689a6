package server

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/lox/scorepad/internal/round"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096

	sendBuffer = 64
)

// ErrConnectionClosed is returned when sending to a closed connection.
var ErrConnectionClosed = errors.New("server: connection closed")

// connection is one websocket client attached to a table.
type connection struct {
	conn   *websocket.Conn
	table  *table
	logger zerolog.Logger

	out       chan *Message
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

func newConnection(ctx context.Context, conn *websocket.Conn, t *table, logger zerolog.Logger) *connection {
	ctx, cancel := context.WithCancel(ctx)
	return &connection{
		conn:   conn,
		table:  t,
		logger: logger.With().Str("component", "conn").Str("remote", conn.RemoteAddr().String()).Logger(),
		out:    make(chan *Message, sendBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// run pumps messages until the peer goes away. It blocks.
func (c *connection) run() {
	go c.writePump()
	c.readPump()
}

func (c *connection) close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.mu.Lock()
		c.closed = true
		close(c.out)
		c.mu.Unlock()
		err = c.conn.Close()
	})
	return err
}

// send queues msg. A client that cannot keep up is disconnected.
func (c *connection) send(msg *Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.out <- msg:
		return nil
	default:
		c.logger.Warn().Msg("send buffer full, closing connection")
		go func() { _ = c.close() }()
		return ErrConnectionClosed
	}
}

func (c *connection) sendError(code, message string) {
	msg, err := NewMessage(TypeError, ErrorData{Code: code, Message: message}, c.table.srv.clock.Now())
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to create error message")
		return
	}
	_ = c.send(msg)
}

func (c *connection) readPump() {
	defer func() { _ = c.close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}
		if msgType != websocket.TextMessage {
			c.sendError("invalid_message", "expected a JSON text frame")
			continue
		}
		c.handleMessage(raw)
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *connection) handleMessage(raw []byte) {
	if err := c.table.srv.validator.ValidateMessage(raw); err != nil {
		c.sendError("invalid_message", err.Error())
		return
	}

	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("invalid_message", err.Error())
		return
	}
	c.logger.Debug().Str("type", string(msg.Type)).Msg("received message")

	var apply func(*round.Session) (outcome, error)
	switch msg.Type {
	case TypeSetPoint:
		var data SetPointData
		if !c.decode(msg.Data, &data) {
			return
		}
		apply = setPoint(c.ctx, data.Key, data.Value)
	case TypeClearPoint:
		var data SeatData
		if !c.decode(msg.Data, &data) {
			return
		}
		apply = clearPoint(data.Key)
	case TypeWhiteWin:
		var data SeatData
		if !c.decode(msg.Data, &data) {
			return
		}
		apply = whiteWin(c.ctx, data.Key)
	case TypeShorthand:
		var data ShorthandData
		if !c.decode(msg.Data, &data) {
			return
		}
		apply = enterShorthand(c.ctx, data.Text)
	case TypeSubmit:
		apply = submit(c.ctx)
	case TypeReset:
		apply = reset()
	default:
		// Unreachable while the envelope schema enumerates every type.
		c.sendError("invalid_message", "unsupported message type: "+string(msg.Type))
		return
	}

	if err := c.table.handle(msg.Type, apply); err != nil {
		code, _ := classifyError(err)
		c.sendError(code, err.Error())
	}
}

func (c *connection) decode(data json.RawMessage, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		c.sendError("invalid_message", err.Error())
		return false
	}
	return true
}
