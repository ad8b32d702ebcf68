// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfq"
)

// Bridge carries single-exchange rendezvous between one blocking
// submitter and one driver. The submitter deposits a request and blocks
// for its response; the driver claims the request, executes it, and
// posts exactly one terminal back.
//
// At most one request is outstanding at a time. Ownership of the
// exchange moves through the pending sequence word: Submit sets it,
// exactly one of Resolve/Fail/abandonment clears it, so a response can
// never reach a caller other than the one that created the request.
type Bridge[X, Y any] struct {
	serial Serial
	name   string
	sink   Sink

	submitTimeout time.Duration

	seq     atomix.Uint64 // last allocated request sequence
	pending atomix.Uint64 // outstanding request sequence, 0 when none
	state   atomix.Uint32 // State word
	cancel  atomix.Uint32 // releases slot waits once non-zero

	reqs  slot[Request[X]]
	resps slot[response[Y]]
	reqQ  lfq.SPSC[Request[X]]
	respQ lfq.SPSC[response[Y]]
}

// New creates a bridge between one submitter and one driver.
// Both exchange cells, their ring buffers excepted, live in a single
// allocation alongside the shared state words.
func New[X, Y any](opts ...Option) *Bridge[X, Y] {
	cfg := config{submitTimeout: DefaultSubmitTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bridge[X, Y]{
		serial:        nextSerial(),
		name:          cfg.name,
		sink:          cfg.sink,
		submitTimeout: cfg.submitTimeout,
	}
	b.reqQ.Init(slotCapacity)
	b.respQ.Init(slotCapacity)
	b.reqs = slot[Request[X]]{q: &b.reqQ, cancel: &b.cancel}
	b.resps = slot[response[Y]]{q: &b.respQ, cancel: &b.cancel}

	b.emit(LevelInfo, SignalStarted, 0)
	return b
}

// Serial returns the serial number assigned to this bridge.
func (b *Bridge[X, Y]) Serial() Serial {
	return b.serial
}

// State returns the current lifecycle state.
func (b *Bridge[X, Y]) State() State {
	return State(b.state.Load())
}

// Stopped reports whether the bridge reached a terminal state.
func (b *Bridge[X, Y]) Stopped() bool {
	return b.State().terminal()
}

// Submit evaluates x through the driver under the bridge's configured
// round-trip timeout. See SubmitTimeout.
func (b *Bridge[X, Y]) Submit(x X) (Y, error) {
	return b.SubmitTimeout(x, b.submitTimeout)
}

// SubmitTimeout deposits a request for x and blocks until the driver
// posts its terminal, the timeout elapses, or the bridge stops. One
// deadline covers the whole round trip. Non-positive d waits without
// limit.
//
// On timeout the request is abandoned: a later terminal for it is
// dropped as stale, never delivered to a different caller. A delivery
// racing the deadline wins over abandonment, so a completed execution
// is returned slightly late rather than discarded.
//
// At most one submit may be in flight; a concurrent second call returns
// ErrProtocol without disturbing the live exchange. After Stop, submits
// return ErrCancelled.
func (b *Bridge[X, Y]) SubmitTimeout(x X, d time.Duration) (Y, error) {
	var zero Y
	if !b.state.CompareAndSwap(uint32(StateIdle), uint32(StateAwaitingExecution)) {
		switch b.State() {
		case StateStopped:
			return zero, ErrCancelled
		case StateFailed:
			return zero, fmt.Errorf("%w: submit on failed bridge", ErrProtocol)
		default:
			return zero, fmt.Errorf("%w: concurrent submit", ErrProtocol)
		}
	}

	seq := b.seq.Add(1)
	req := Request[X]{Seq: seq, Value: x, At: time.Now()}
	b.pending.Store(seq)
	deadline := deadlineFor(d)
	b.emit(LevelDebug, SignalSubmitted, seq)

	if err := b.reqs.put(req, deadline); err != nil {
		b.pending.CompareAndSwap(seq, 0)
		if errors.Is(err, ErrTimeout) {
			b.restoreIdle()
			b.emit(LevelWarn, SignalTimeout, seq, F("side", "submit"))
			return zero, fmt.Errorf("%w: submit of request %d", ErrTimeout, seq)
		}
		return zero, b.releaseErr()
	}

	resp, err := b.resps.take(deadline)
	switch {
	case err == nil:
	case errors.Is(err, ErrTimeout):
		if b.pending.CompareAndSwap(seq, 0) {
			b.restoreIdle()
			b.emit(LevelWarn, SignalTimeout, seq, F("side", "submit"))
			return zero, fmt.Errorf("%w: no response to request %d", ErrTimeout, seq)
		}
		// The driver claimed delivery first; its response is moments
		// away. Take it without a deadline and deliver late.
		resp, err = b.resps.take(time.Time{})
		if err != nil {
			return zero, b.releaseErr()
		}
	default:
		b.pending.CompareAndSwap(seq, 0)
		return zero, b.releaseErr()
	}

	if resp.seq != seq {
		b.abort("deliver", resp.seq)
		return zero, fmt.Errorf("%w: response for request %d delivered to request %d", ErrProtocol, resp.seq, seq)
	}
	b.restoreIdle()
	if resp.err != nil {
		return zero, resp.err
	}
	return resp.y, nil
}

// NextRequest blocks up to d for the next request and claims it.
// Returns ErrTimeout when the window passes with no request (the bridge
// is unaffected), ErrStopped as end-of-stream once the bridge stopped,
// and ErrProtocol once it failed. Requests whose submitter already
// timed out are discarded here, unexecuted.
func (b *Bridge[X, Y]) NextRequest(d time.Duration) (Request[X], error) {
	deadline := deadlineFor(d)
	for {
		req, err := b.reqs.take(deadline)
		if err != nil {
			if errors.Is(err, ErrTimeout) {
				b.emit(LevelWarn, SignalTimeout, 0, F("side", "claim"))
				return Request[X]{}, fmt.Errorf("%w: no request to claim", ErrTimeout)
			}
			return Request[X]{}, b.streamEndErr()
		}
		if b.pending.Load() != req.Seq {
			b.emit(LevelWarn, SignalStale, req.Seq, F("side", "claim"))
			continue
		}
		if !b.state.CompareAndSwap(uint32(StateAwaitingExecution), uint32(StateExecuting)) {
			if b.State().terminal() {
				return Request[X]{}, b.streamEndErr()
			}
		}
		b.emit(LevelDebug, SignalClaimed, req.Seq)
		return req, nil
	}
}

// Resolve posts the success terminal for the outstanding request.
// A terminal for a request that is no longer outstanding is dropped
// with ErrStale; one for a sequence this bridge never issued is fatal:
// the bridge moves to StateFailed and ErrProtocol is returned.
func (b *Bridge[X, Y]) Resolve(seq Seq, y Y) error {
	return b.terminal("resolve", seq, response[Y]{seq: seq, y: y})
}

// Fail posts the failure terminal for the outstanding request. The
// blocked submit returns an error unwrapping to both ErrExecution and
// cause. Stale and never-issued sequences behave as in Resolve.
func (b *Bridge[X, Y]) Fail(seq Seq, cause error) error {
	resp := response[Y]{seq: seq, err: fmt.Errorf("%w: request %d: %w", ErrExecution, seq, cause)}
	return b.terminal("fail", seq, resp)
}

// terminal delivers resp for seq if and only if seq is the outstanding
// request. The pending CAS is the single delivery gate; zero is the
// no-request sentinel and must never match it, or an idle gate would
// accept a response no submit is waiting for.
func (b *Bridge[X, Y]) terminal(op string, seq Seq, resp response[Y]) error {
	if seq == 0 || !b.pending.CompareAndSwap(seq, 0) {
		if b.State().terminal() {
			return ErrStopped
		}
		if seq == 0 || seq > b.seq.Load() {
			b.abort(op, seq)
			return fmt.Errorf("%w: %s of never-issued request %d", ErrProtocol, op, seq)
		}
		b.emit(LevelWarn, SignalStale, seq, F("side", op))
		return fmt.Errorf("%w: request %d", ErrStale, seq)
	}
	if err := b.resps.put(resp, time.Time{}); err != nil {
		return ErrStopped
	}
	if resp.err != nil {
		b.emit(LevelWarn, SignalFailed, seq, F("error", resp.err.Error()))
	} else {
		b.emit(LevelDebug, SignalResolved, seq)
	}
	return nil
}

// Stop halts the exchange: both sides are released, no further requests
// are accepted, drained terminals are dropped. Idempotent and safe from
// any goroutine.
func (b *Bridge[X, Y]) Stop() {
	if b.State().terminal() {
		return
	}
	b.emit(LevelInfo, SignalStopRequest, 0)
	for {
		cur := b.state.Load()
		if State(cur).terminal() {
			return
		}
		if b.state.CompareAndSwap(cur, uint32(StateStopped)) {
			break
		}
	}
	b.cancel.Store(1)
	b.emit(LevelInfo, SignalStopped, 0)
}

// abort moves the bridge to StateFailed and releases both sides.
// Already-terminal bridges are left as they are.
func (b *Bridge[X, Y]) abort(op string, seq Seq) {
	for {
		cur := b.state.Load()
		if State(cur).terminal() {
			return
		}
		if b.state.CompareAndSwap(cur, uint32(StateFailed)) {
			break
		}
	}
	b.cancel.Store(1)
	b.emit(LevelError, SignalViolation, seq, F("op", op))
}

// restoreIdle returns the state word to StateIdle after an exchange
// ends, whichever live phase it was in. Terminal states stay put.
func (b *Bridge[X, Y]) restoreIdle() {
	if b.state.CompareAndSwap(uint32(StateExecuting), uint32(StateIdle)) {
		return
	}
	b.state.CompareAndSwap(uint32(StateAwaitingExecution), uint32(StateIdle))
}

// releaseErr maps a cancel-flag release to the submitter-visible error.
func (b *Bridge[X, Y]) releaseErr() error {
	if b.State() == StateFailed {
		return fmt.Errorf("%w: bridge failed", ErrProtocol)
	}
	return ErrCancelled
}

// streamEndErr maps a cancel-flag release to the driver-visible error.
func (b *Bridge[X, Y]) streamEndErr() error {
	if b.State() == StateFailed {
		return fmt.Errorf("%w: bridge failed", ErrProtocol)
	}
	return ErrStopped
}

// emit publishes one lifecycle event to the configured sink, if any.
func (b *Bridge[X, Y]) emit(level Level, sig Signal, seq Seq, fields ...Field) {
	if b.sink == nil {
		return
	}
	b.sink.Emit(Event{
		Time:   time.Now(),
		Level:  level,
		Signal: sig,
		Bridge: b.serial,
		Name:   b.name,
		Seq:    seq,
		Fields: fields,
	})
}
