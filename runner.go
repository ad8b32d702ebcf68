// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Solver is a blocking routine that repeatedly evaluates points through
// eval and returns its final result. Each eval call blocks on one
// bridge round trip; errors come back as ordinary return values.
type Solver[X, Y, R any] func(eval func(X) (Y, error)) (R, error)

// Runner owns the goroutine a solver runs on. Whatever way the solver
// ends, the runner stops the bridge on the way out, so the driver side
// always observes end-of-stream.
type Runner[X, Y, R any] struct {
	bridge *Bridge[X, Y]
	id     string
	done   chan struct{}
	result R
	err    error
}

// StartSolver launches solver on a dedicated goroutine with eval bound
// to b.Submit. A solver panic is captured as its terminal error; the
// goroutine never crashes the process.
func StartSolver[X, Y, R any](b *Bridge[X, Y], solver Solver[X, Y, R], opts ...RunnerOption) *Runner[X, Y, R] {
	cfg := runnerConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	r := &Runner[X, Y, R]{bridge: b, id: cfg.id, done: make(chan struct{})}
	go r.run(solver)
	return r
}

func (r *Runner[X, Y, R]) run(solver Solver[X, Y, R]) {
	b := r.bridge
	b.emit(LevelInfo, SignalSolverStart, 0, F("run_id", r.id))
	defer close(r.done)
	defer b.Stop()
	defer func() {
		if rec := recover(); rec != nil {
			r.err = fmt.Errorf("%w: panic: %v", ErrSolver, rec)
			b.emit(LevelError, SignalSolverFail, 0, F("run_id", r.id), F("error", r.err.Error()))
		}
	}()

	result, err := solver(func(x X) (Y, error) { return b.Submit(x) })
	if err != nil {
		r.err = fmt.Errorf("%w: %w", ErrSolver, err)
		b.emit(LevelError, SignalSolverFail, 0, F("run_id", r.id), F("error", err.Error()))
		return
	}
	r.result = result
	b.emit(LevelInfo, SignalSolverDone, 0, F("run_id", r.id))
}

// Result blocks until the solver finishes and returns its outcome.
// A non-nil error is ErrSolver-wrapped; the solver's own cause stays
// reachable through errors.Is and errors.As.
func (r *Runner[X, Y, R]) Result() (R, error) {
	<-r.done
	return r.result, r.err
}

// Join waits up to d for the solver goroutine to exit. Non-positive d
// waits without limit. ErrTimeout means the goroutine is still running:
// it is reported as leaked, never killed.
func (r *Runner[X, Y, R]) Join(d time.Duration) error {
	if d <= 0 {
		<-r.done
		return nil
	}
	select {
	case <-r.done:
		return nil
	case <-time.After(d):
		r.bridge.emit(LevelWarn, SignalSolverLeak, 0, F("run_id", r.id))
		return fmt.Errorf("%w: solver still running after %v", ErrTimeout, d)
	}
}

// Done is closed when the solver goroutine exits.
func (r *Runner[X, Y, R]) Done() <-chan struct{} {
	return r.done
}

// ID returns the run identifier.
func (r *Runner[X, Y, R]) ID() string {
	return r.id
}
