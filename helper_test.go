// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"context"
	"testing"
	"time"

	"code.hybscloud.com/rdv"
)

// doubler is the no-frills evaluator for round-trip tests.
var doubler = rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
	return 2 * x, nil
})

// runExecutor drives b's claim loop on a fresh goroutine with a short
// claim window so stop requests take effect quickly. The returned
// channel carries Run's error once the loop exits; tests end the loop
// by stopping the bridge or the executor.
func runExecutor[X, Y any](tb testing.TB, b *rdv.Bridge[X, Y], eval rdv.Evaluator[X, Y], opts ...rdv.ExecOption[X, Y]) <-chan error {
	tb.Helper()
	opts = append([]rdv.ExecOption[X, Y]{rdv.WithClaimTimeout[X, Y](10 * time.Millisecond)}, opts...)
	exec := rdv.NewExecutor(b, eval, opts...)
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background())
	}()
	return done
}
