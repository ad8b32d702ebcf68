// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
)

// slotCapacity is the ring capacity for exchange cells. 1 enforces the
// single in-flight exchange discipline at the transport level.
const slotCapacity = 1

// slot is a single-item rendezvous cell: one producer deposits, one
// consumer removes, each under a deadline-bounded backoff wait. The
// shared cancel flag releases blocked callers on stop. The queue is
// always tried before the flag, so an item already deposited is still
// handed over after stop; only empty-cell waits are released.
//
// Per-direction SPSC discipline: the submitter produces requests and
// consumes responses, the driver the reverse. No locks are held across
// waits; the wait is a backoff poll over a lock-free ring.
type slot[T any] struct {
	q      *lfq.SPSC[T]
	cancel *atomix.Uint32
	// staging is producer-owned; Enqueue copies from it into the ring,
	// avoiding a per-put heap escape of the element.
	staging T
}

// put deposits v once the cell is free. Zero deadline waits without
// limit. Returns ErrCancelled once the cancel flag is raised,
// ErrTimeout when the deadline passes first.
func (s *slot[T]) put(v T, deadline time.Time) error {
	var bo iox.Backoff
	s.staging = v
	for {
		err := s.q.Enqueue(&s.staging)
		if err == nil {
			return nil
		}
		if !iox.IsWouldBlock(err) {
			return err
		}
		if s.cancel.Load() != 0 {
			return ErrCancelled
		}
		if expired(deadline) {
			return ErrTimeout
		}
		bo.Wait()
	}
}

// take removes the deposited item, blocking until one is present, the
// deadline passes, or the cancel flag is raised.
func (s *slot[T]) take(deadline time.Time) (T, error) {
	var bo iox.Backoff
	for {
		v, err := s.q.Dequeue()
		if err == nil {
			return v, nil
		}
		if !iox.IsWouldBlock(err) {
			var zero T
			return zero, err
		}
		if s.cancel.Load() != 0 {
			var zero T
			return zero, ErrCancelled
		}
		if expired(deadline) {
			var zero T
			return zero, ErrTimeout
		}
		bo.Wait()
	}
}

// expired reports whether deadline is set and has passed. A zero
// deadline never expires.
func expired(deadline time.Time) bool {
	return !deadline.IsZero() && !time.Now().Before(deadline)
}

// deadlineFor converts a timeout into an absolute deadline.
// Non-positive timeouts mean no limit.
func deadlineFor(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}
