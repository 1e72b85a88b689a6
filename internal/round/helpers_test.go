package round

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard).Level(zerolog.Disabled)
}

func partialOf(vals ...*int) PartialRound {
	var p PartialRound
	for i, v := range vals {
		if v != nil {
			p = p.With(Keys[i], *v)
		}
	}
	return p
}

func ip(v int) *int { return &v }

type stubDirectory map[PlayerKey][2]string

func (d stubDirectory) ProfileID(k PlayerKey) (string, bool) {
	v, ok := d[k]
	return v[0], ok
}

func (d stubDirectory) DisplayName(k PlayerKey) (string, bool) {
	v, ok := d[k]
	return v[1], ok
}

func sampleDirectory() stubDirectory {
	return stubDirectory{
		A: {"p-an", "An"},
		B: {"p-binh", "Binh"},
		C: {"p-chi", "Chi"},
		D: {"p-dung", "Dung"},
	}
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []RoundRecord
	err     error
}

func (r *recordingRecorder) RecordRound(_ context.Context, rec RoundRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func (r *recordingRecorder) rounds() []Round {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Round, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Round)
	}
	return out
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	threads  []string
	err      error
}

func (n *recordingNotifier) Notify(_ context.Context, text, thread string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.messages = append(n.messages, text)
	n.threads = append(n.threads, thread)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

type stubCommentator struct {
	msg    string
	err    error
	names  []string
	winner string
}

func (c *stubCommentator) Comment(_ context.Context, names []string, winner string) (string, error) {
	c.names = names
	c.winner = winner
	return c.msg, c.err
}

type countingObserver struct {
	mu       sync.Mutex
	emitted  map[string]int
	rejected map[string]int
	failed   map[string]int
	records  int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		emitted:  map[string]int{},
		rejected: map[string]int{},
		failed:   map[string]int{},
	}
}

func (o *countingObserver) RoundEmitted(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emitted[source]++
}

func (o *countingObserver) RoundRejected(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rejected[reason]++
}

func (o *countingObserver) RecordFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records++
}

func (o *countingObserver) SideChannelFailed(channel string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failed[channel]++
}

var errBoom = errors.New("boom")
