// Package notify delivers round results to a Slack channel thread.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/lox/scorepad/internal/round"
)

// DefaultBaseURL is the Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

var (
	// ErrRejected indicates Slack answered but refused the message.
	ErrRejected = errors.New("notify: message rejected")

	// ErrUnavailable indicates Slack could not be reached or is throttling.
	ErrUnavailable = errors.New("notify: unavailable")
)

// SlackConfig configures a SlackNotifier.
type SlackConfig struct {
	Token   string
	Channel string
	BaseURL string
	Timeout time.Duration
	// Rate bounds outgoing messages per second. Slack allows roughly one
	// message per second per channel.
	Rate  rate.Limit
	Burst int
}

// SlackNotifier posts messages with chat.postMessage.
type SlackNotifier struct {
	cfg     SlackConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewSlackNotifier creates a notifier for cfg.Channel.
func NewSlackNotifier(logger zerolog.Logger, cfg SlackConfig) (*SlackNotifier, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("slack token is required")
	}
	if strings.TrimSpace(cfg.Channel) == "" {
		return nil, fmt.Errorf("slack channel is required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 1
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 3
	}
	return &SlackNotifier{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(cfg.Rate, cfg.Burst),
		logger:  logger.With().Str("component", "slack").Logger(),
	}, nil
}

type postMessageRequest struct {
	Channel  string `json:"channel"`
	Text     string `json:"text"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

type postMessageResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	TS    string `json:"ts,omitempty"`
}

// Notify implements round.Notifier. An empty thread posts to the channel.
func (n *SlackNotifier) Notify(ctx context.Context, text, thread string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body, err := json.Marshal(postMessageRequest{Channel: n.cfg.Channel, Text: text, ThreadTS: thread})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.BaseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.cfg.Token)

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited, retry after %s", ErrUnavailable, resp.Header.Get("Retry-After"))
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	var out postMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return fmt.Errorf("%w: decode error: %v", ErrUnavailable, err)
	}
	if !out.OK {
		return fmt.Errorf("%w: %s", ErrRejected, out.Error)
	}
	n.logger.Debug().Str("thread", thread).Str("ts", out.TS).Msg("posted message")
	return nil
}

var _ round.Notifier = (*SlackNotifier)(nil)
