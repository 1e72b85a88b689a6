package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T, handler http.HandlerFunc) *SlackNotifier {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n, err := NewSlackNotifier(zerolog.New(io.Discard), SlackConfig{
		Token:   "xoxb-test",
		Channel: "C123",
		BaseURL: srv.URL + "/",
		Rate:    1000,
		Burst:   10,
	})
	require.NoError(t, err)
	return n
}

func TestNotifyPostsToThread(t *testing.T) {
	var got postMessageRequest
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"ts":"1700.02"}`))
	})

	err := n.Notify(context.Background(), "Binh: -5, An: 5", "1700.01")
	require.NoError(t, err)
	assert.Equal(t, postMessageRequest{Channel: "C123", Text: "Binh: -5, An: 5", ThreadTS: "1700.01"}, got)
}

func TestNotifySkipsEmptyText(t *testing.T) {
	called := false
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	require.NoError(t, n.Notify(context.Background(), "  ", ""))
	assert.False(t, called)
}

func TestNotifyErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "slack refuses",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
			},
			want: ErrRejected,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "30")
				w.WriteHeader(http.StatusTooManyRequests)
			},
			want: ErrUnavailable,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			want: ErrUnavailable,
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			want: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newTestNotifier(t, tt.handler)
			err := n.Notify(context.Background(), "An: 5", "")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNotifyCancelledContext(t *testing.T) {
	n := newTestNotifier(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, n.Notify(ctx, "An: 5", ""))
}

func TestNewSlackNotifierValidation(t *testing.T) {
	_, err := NewSlackNotifier(zerolog.Nop(), SlackConfig{Channel: "C1"})
	assert.Error(t, err)
	_, err = NewSlackNotifier(zerolog.Nop(), SlackConfig{Token: "t"})
	assert.Error(t, err)

	n, err := NewSlackNotifier(zerolog.Nop(), SlackConfig{Token: "t", Channel: "C1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, n.cfg.BaseURL)
}
