// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"context"

	"code.hybscloud.com/kont"
)

// Engine executes one suspended instruction and returns its resume
// value. Implementations decide what each operation type means; the
// bridge treats instructions as opaque.
type Engine interface {
	Dispatch(ctx context.Context, op kont.Operation) (kont.Resumed, error)
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(context.Context, kont.Operation) (kont.Resumed, error)

// Dispatch calls f(ctx, op).
func (f EngineFunc) Dispatch(ctx context.Context, op kont.Operation) (kont.Resumed, error) {
	return f(ctx, op)
}

// Planner builds the instruction sequence that evaluates one payload.
type Planner[X, Y any] func(x X) kont.Expr[Y]

// Instruct wraps a single engine instruction as a complete plan
// resuming with the instruction's result type.
func Instruct[A any, O kont.Op[O, A]](op O) kont.Expr[A] {
	return kont.ExprPerform(op)
}

// Drive steps plan to completion against eng, dispatching suspended
// instructions in order. On engine error or ctx cancellation the rest
// of the plan is discarded and the error returned; cancellation is
// cooperative, observed between instructions.
func Drive[Y any](ctx context.Context, eng Engine, plan kont.Expr[Y]) (Y, error) {
	result, susp := kont.StepExpr(plan)
	for susp != nil {
		if err := ctx.Err(); err != nil {
			susp.Discard()
			var zero Y
			return zero, err
		}
		v, err := eng.Dispatch(ctx, susp.Op())
		if err != nil {
			susp.Discard()
			var zero Y
			return zero, err
		}
		result, susp = susp.Resume(v)
	}
	return result, nil
}

// PlanEvaluator evaluates each payload by driving its plan against
// eng, one instruction at a time.
func PlanEvaluator[X, Y any](eng Engine, plan Planner[X, Y]) Evaluator[X, Y] {
	return EvaluatorFunc[X, Y](func(ctx context.Context, x X) (Y, error) {
		return Drive(ctx, eng, plan(x))
	})
}

// ReifyPlanner lifts a Cont-world plan builder into a Planner.
func ReifyPlanner[X, Y any](f func(X) kont.Eff[Y]) Planner[X, Y] {
	return func(x X) kont.Expr[Y] {
		return kont.Reify(f(x))
	}
}
