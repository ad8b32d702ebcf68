// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rdv bridges a blocking, callback-driven solver and a
// cooperative step-executor running on separate goroutines.
//
// The solver calls eval(x) and blocks; the driver claims the request,
// executes it (directly or as a [code.hybscloud.com/kont] instruction
// plan), and posts back exactly one terminal. Timeouts and cancellation
// work in both directions.
//
// # Architecture
//
//   - Transport: Single-slot lock-free SPSC cells via [code.hybscloud.com/lfq]; waits are deadline-bounded adaptive backoff ([code.hybscloud.com/iox]). [New] creates a [Bridge].
//   - Exchange: At most one request in flight. Delivery ownership moves through an atomic pending-sequence CAS, so a response can never reach the wrong caller.
//   - Terminals: Every request ends exactly once: delivered, failed, timed out, or cancelled. Late terminals are dropped as stale; never-issued sequences fail the bridge.
//   - Observability: Lifecycle [Event]s flow to a pluggable [Sink]; adapters live in capsink, slogsink, promsink, and memsink.
//
// # API Topologies
//
//   - Blocking side: [Bridge.Submit] / [Bridge.SubmitTimeout]; [StartSolver] owns the solver goroutine with [Runner.Result], [Runner.Join], [Runner.Done].
//   - Driver side: [Bridge.NextRequest], [Bridge.Resolve], [Bridge.Fail]; [NewExecutor] runs the claim/evaluate/terminal loop with retry, backoff, and timeout policies.
//   - Plans: [Planner] builds a per-payload instruction sequence; [Drive] steps it against an [Engine] one suspension at a time. Cont-world builders lift via [ReifyPlanner].
//   - Degenerate: [Inline] and [InlineSolve] run both sides on one goroutine with no rendezvous, as a harness baseline.
//
// # Integration
//
//   - Lifecycle: [Bridge.Stop] is idempotent and releases both sides; [Executor.Stop] drains the in-flight request first.
//   - Errors: Sentinels ([ErrTimeout], [ErrCancelled], [ErrStopped], [ErrExecution], [ErrProtocol], [ErrSolver], [ErrStale]) compose with errors.Is through wrap chains.
//
// # Example
//
//	b := rdv.New[float64, float64]()
//	exec := rdv.NewExecutor(b, rdv.EvaluatorFunc[float64, float64](measure))
//	go exec.Run(context.Background())
//	runner := rdv.StartSolver(b, func(eval func(float64) (float64, error)) (float64, error) {
//		y, err := eval(2.0)
//		if err != nil {
//			return 0, err
//		}
//		return y, nil
//	})
//	result, err := runner.Result()
package rdv
