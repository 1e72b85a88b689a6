// Package metrics exposes round entry counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lox/scorepad/internal/round"
)

const namespace = "scorepad"

// Collector counts round emissions and failures. It implements round.Observer.
type Collector struct {
	emitted     *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	sideChannel *prometheus.CounterVec
	recordFails prometheus.Counter
	sessions    prometheus.Gauge
}

// New creates a collector and registers it with reg. A nil reg skips
// registration, which tests use to avoid the global registry.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		emitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_emitted_total",
			Help:      "Rounds recorded, by entry path.",
		}, []string{"source"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_rejected_total",
			Help:      "Submissions refused, by rejection class.",
		}, []string{"reason"}),
		sideChannel: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "side_channel_failures_total",
			Help:      "Failed chat or commentary deliveries.",
		}, []string{"channel"}),
		recordFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_failures_total",
			Help:      "Rounds that could not be persisted.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Live entry sessions with at least one connection.",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.emitted, c.rejected, c.sideChannel, c.recordFails, c.sessions)
	}
	return c
}

// RoundEmitted implements round.Observer.
func (c *Collector) RoundEmitted(source string) { c.emitted.WithLabelValues(source).Inc() }

// RoundRejected implements round.Observer.
func (c *Collector) RoundRejected(reason string) { c.rejected.WithLabelValues(reason).Inc() }

// RecordFailed implements round.Observer.
func (c *Collector) RecordFailed() { c.recordFails.Inc() }

// SideChannelFailed implements round.Observer.
func (c *Collector) SideChannelFailed(channel string) { c.sideChannel.WithLabelValues(channel).Inc() }

// SessionOpened increments the live session gauge.
func (c *Collector) SessionOpened() { c.sessions.Inc() }

// SessionClosed decrements the live session gauge.
func (c *Collector) SessionClosed() { c.sessions.Dec() }

var _ round.Observer = (*Collector)(nil)
