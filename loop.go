// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"code.hybscloud.com/atomix"
)

// Evaluator turns one request payload into its response value.
type Evaluator[X, Y any] interface {
	Evaluate(ctx context.Context, x X) (Y, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc[X, Y any] func(context.Context, X) (Y, error)

// Evaluate calls f(ctx, x).
func (f EvaluatorFunc[X, Y]) Evaluate(ctx context.Context, x X) (Y, error) {
	return f(ctx, x)
}

// LoopState is the executor loop lifecycle state.
type LoopState uint32

const (
	// LoopIdle: Run has not been called.
	LoopIdle LoopState = iota
	// LoopRunning: claiming and executing requests.
	LoopRunning
	// LoopDraining: stop requested; the in-flight request finishes and
	// its terminal is posted before exit.
	LoopDraining
	// LoopStopped: the loop exited.
	LoopStopped
)

// String returns the loop state name used in events.
func (s LoopState) String() string {
	switch s {
	case LoopIdle:
		return "idle"
	case LoopRunning:
		return "running"
	case LoopDraining:
		return "draining"
	case LoopStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Executor drives the claim/evaluate/terminal loop on the driver side
// of a bridge. It is single-threaded: requests are executed one at a
// time, in claim order.
type Executor[X, Y any] struct {
	bridge *Bridge[X, Y]
	eval   Evaluator[X, Y]

	claimTimeout time.Duration
	idleLimit    int

	state atomix.Uint32 // LoopState
	stop  atomix.Uint32 // graceful halt requested once non-zero
}

// NewExecutor pairs b with eval. Policy options wrap eval before the
// loop sees it; the loop itself never retries a posted terminal.
func NewExecutor[X, Y any](b *Bridge[X, Y], eval Evaluator[X, Y], opts ...ExecOption[X, Y]) *Executor[X, Y] {
	cfg := execConfig[X, Y]{claimTimeout: DefaultClaimTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Executor[X, Y]{
		bridge:       b,
		eval:         layeredEvaluator(eval, cfg.layers),
		claimTimeout: cfg.claimTimeout,
		idleLimit:    cfg.idleLimit,
	}
}

// State returns the loop lifecycle state.
func (e *Executor[X, Y]) State() LoopState {
	return LoopState(e.state.Load())
}

// Stop requests a graceful halt. It takes effect at the loop's next
// check-in: the in-flight evaluation finishes and its terminal is
// posted first, then the bridge is stopped and Run returns nil.
// Idempotent and safe from any goroutine.
func (e *Executor[X, Y]) Stop() {
	if !e.stop.CompareAndSwap(0, 1) {
		return
	}
	if e.state.CompareAndSwap(uint32(LoopRunning), uint32(LoopDraining)) {
		e.bridge.emit(LevelInfo, SignalExecDrain, 0)
	}
}

// Run claims, evaluates, and posts terminals until the bridge stops,
// ctx is cancelled, Stop is called, or the idle limit trips. Run may be
// called once.
//
// Clean ends (end-of-stream, Stop) return nil; ctx cancellation returns
// ctx's error; bridge failure and idle-limit exhaustion return wrapped
// errors. On every exit path the bridge is stopped, so no submitter is
// left blocked behind a dead loop.
func (e *Executor[X, Y]) Run(ctx context.Context) error {
	if !e.state.CompareAndSwap(uint32(LoopIdle), uint32(LoopRunning)) {
		return fmt.Errorf("%w: executor ran twice", ErrProtocol)
	}
	b := e.bridge
	b.emit(LevelInfo, SignalExecStart, 0)
	defer func() {
		e.state.Store(uint32(LoopStopped))
		b.emit(LevelInfo, SignalExecStop, 0)
	}()

	idle := 0
	for {
		// Check-in point: halts take effect here, never mid-request.
		if err := ctx.Err(); err != nil {
			b.Stop()
			return err
		}
		if e.stop.Load() != 0 {
			b.Stop()
			return nil
		}

		req, err := b.NextRequest(e.claimTimeout)
		switch {
		case err == nil:
		case errors.Is(err, ErrTimeout):
			idle++
			if e.idleLimit > 0 && idle >= e.idleLimit {
				b.emit(LevelError, SignalExecStall, 0, F("consecutive_timeouts", idle))
				b.Stop()
				return fmt.Errorf("%w: no request within %d claim windows", ErrTimeout, idle)
			}
			continue
		case errors.Is(err, ErrStopped):
			return nil
		default:
			return err
		}

		idle = 0
		y, evalErr := e.evalOne(ctx, req)
		var term error
		if evalErr != nil {
			term = b.Fail(req.Seq, evalErr)
		} else {
			term = b.Resolve(req.Seq, y)
		}
		if term != nil && errors.Is(term, ErrProtocol) {
			return term
		}
		// Stale and stopped terminals are drops, not loop failures.
	}
}

// evalOne runs one evaluation, converting a panic into a failure
// terminal so the claimed request is never orphaned.
func (e *Executor[X, Y]) evalOne(ctx context.Context, req Request[X]) (y Y, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rdv: evaluator panic: %v", r)
		}
	}()
	return e.eval.Evaluate(ctx, req.Value)
}
