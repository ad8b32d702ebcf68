// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package promsink exports rdv lifecycle events as Prometheus metrics.
package promsink

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"code.hybscloud.com/rdv"
)

// Metric label values for exchange outcomes.
const (
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeTimeout   = "timeout"
	outcomeStale     = "stale"
)

var (
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdv_events_total",
			Help: "Total number of bridge lifecycle events by signal.",
		},
		[]string{"signal"},
	)

	exchangesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdv_exchanges_total",
			Help: "Total number of request exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	exchangeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rdv_exchange_seconds",
			Help:    "Duration from request submission to its terminal, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	timeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rdv_timeouts_total",
			Help: "Total number of expired waits by side.",
		},
		[]string{"side"},
	)

	violationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rdv_violations_total",
			Help: "Total number of fatal protocol violations.",
		},
	)
)

func init() {
	prometheus.MustRegister(eventsTotal)
	prometheus.MustRegister(exchangesTotal)
	prometheus.MustRegister(exchangeDuration)
	prometheus.MustRegister(timeoutsTotal)
	prometheus.MustRegister(violationsTotal)

	// Pre-initialize label combinations so they appear in /metrics with
	// value 0 from startup, rather than only after first observation.
	for _, o := range []string{outcomeDelivered, outcomeFailed, outcomeTimeout, outcomeStale} {
		exchangesTotal.WithLabelValues(o)
	}
	for _, s := range []string{"submit", "claim"} {
		timeoutsTotal.WithLabelValues(s)
	}
}

// Sink records bridge lifecycle metrics. Exchange latency pairs each
// submission with its terminal by sequence number.
// Safe for concurrent use.
type Sink struct {
	mu        sync.Mutex
	submitted map[rdv.Seq]time.Time
}

// New creates a metrics sink.
func New() *Sink {
	return &Sink{submitted: make(map[rdv.Seq]time.Time)}
}

// Emit implements rdv.Sink.
func (s *Sink) Emit(e rdv.Event) {
	eventsTotal.WithLabelValues(string(e.Signal)).Inc()

	switch e.Signal {
	case rdv.SignalSubmitted:
		s.begin(e.Seq, e.Time)
	case rdv.SignalResolved:
		exchangesTotal.WithLabelValues(outcomeDelivered).Inc()
		s.settle(e.Seq, e.Time)
	case rdv.SignalFailed:
		exchangesTotal.WithLabelValues(outcomeFailed).Inc()
		s.settle(e.Seq, e.Time)
	case rdv.SignalStale:
		exchangesTotal.WithLabelValues(outcomeStale).Inc()
	case rdv.SignalTimeout:
		side, _ := e.Field("side")
		if side == "submit" {
			exchangesTotal.WithLabelValues(outcomeTimeout).Inc()
			timeoutsTotal.WithLabelValues("submit").Inc()
			s.forget(e.Seq)
		} else {
			timeoutsTotal.WithLabelValues("claim").Inc()
		}
	case rdv.SignalViolation:
		violationsTotal.Inc()
	}
}

func (s *Sink) begin(seq rdv.Seq, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A runaway map means terminals stopped pairing up; start over.
	if len(s.submitted) > 1024 {
		s.submitted = make(map[rdv.Seq]time.Time)
	}
	s.submitted[seq] = at
}

func (s *Sink) settle(seq rdv.Seq, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	begin, ok := s.submitted[seq]
	if !ok {
		return
	}
	delete(s.submitted, seq)
	exchangeDuration.Observe(at.Sub(begin).Seconds())
}

func (s *Sink) forget(seq rdv.Seq) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submitted, seq)
}
