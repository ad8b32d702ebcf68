// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "context"

// Inline binds eval directly to the caller: each call evaluates on the
// calling goroutine with no rendezvous in between. For harnesses and
// baseline comparison against the bridged path.
func Inline[X, Y any](ctx context.Context, eval Evaluator[X, Y]) func(X) (Y, error) {
	return func(x X) (Y, error) {
		return eval.Evaluate(ctx, x)
	}
}

// InlineSolve runs solver to completion on the calling goroutine,
// evaluating every submission through eval directly. Does not spawn
// goroutines or create channels.
func InlineSolve[X, Y, R any](ctx context.Context, eval Evaluator[X, Y], solver Solver[X, Y, R]) (R, error) {
	return solver(Inline(ctx, eval))
}
