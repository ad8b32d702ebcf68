// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package memsink provides an in-memory recording sink, mainly for
// tests and harnesses that assert on bridge lifecycle events.
package memsink

import (
	"sync"
	"time"

	"code.hybscloud.com/rdv"
)

// Sink records every emitted event in arrival order.
// Safe for concurrent use.
type Sink struct {
	mu     sync.Mutex
	events []rdv.Event
	max    int
}

// New creates an unbounded recorder.
func New() *Sink {
	return &Sink{}
}

// NewBounded creates a recorder that keeps only the most recent max
// events.
func NewBounded(max int) *Sink {
	return &Sink{max: max}
}

// Emit implements rdv.Sink.
func (s *Sink) Emit(e rdv.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if s.max > 0 && len(s.events) > s.max {
		s.events = s.events[len(s.events)-s.max:]
	}
}

// Events returns a copy of the recorded events.
func (s *Sink) Events() []rdv.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]rdv.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Count returns how many recorded events carry sig.
func (s *Sink) Count(sig rdv.Signal) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Signal == sig {
			n++
		}
	}
	return n
}

// Last returns the most recent event carrying sig.
func (s *Sink) Last(sig rdv.Signal) (rdv.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		if s.events[i].Signal == sig {
			return s.events[i], true
		}
	}
	return rdv.Event{}, false
}

// Reset discards all recorded events.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}

// WaitFor polls until an event carrying sig has been recorded or the
// timeout passes.
func (s *Sink) WaitFor(sig rdv.Signal, timeout time.Duration) (rdv.Event, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if e, ok := s.Last(sig); ok {
			return e, true
		}
		if !time.Now().Before(deadline) {
			return rdv.Event{}, false
		}
		time.Sleep(time.Millisecond)
	}
}
