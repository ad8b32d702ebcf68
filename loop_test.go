// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"code.hybscloud.com/rdv"
	"code.hybscloud.com/rdv/memsink"
)

func TestDrainFinishesInFlight(t *testing.T) {
	skipRace(t)
	// Stop during an evaluation: the in-flight request still gets its
	// response before the loop exits.
	b := rdv.New[int, int]()
	slow := rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
		time.Sleep(100 * time.Millisecond)
		return x + 1, nil
	})
	exec := rdv.NewExecutor(b, slow, rdv.WithClaimTimeout[int, int](10*time.Millisecond))
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background())
	}()

	type outcome struct {
		y   int
		err error
	}
	out := make(chan outcome, 1)
	go func() {
		y, err := b.Submit(1)
		out <- outcome{y, err}
	}()

	time.Sleep(30 * time.Millisecond) // Claimed and mid-evaluation by now
	exec.Stop()

	o := <-out
	if o.err != nil {
		t.Fatalf("submit during drain: %v", o.err)
	}
	if o.y != 2 {
		t.Fatalf("got %d, want 2", o.y)
	}
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := exec.State(); got != rdv.LoopStopped {
		t.Fatalf("loop state got %v, want stopped", got)
	}
	if !b.Stopped() {
		t.Fatal("bridge should be stopped after the drain")
	}
}

func TestIdleLimitStops(t *testing.T) {
	// The configured run of empty claim windows stops the loop and the
	// bridge.
	sink := memsink.New()
	b := rdv.New[int, int](rdv.WithSink(sink))
	exec := rdv.NewExecutor(b, doubler,
		rdv.WithClaimTimeout[int, int](10*time.Millisecond),
		rdv.WithIdleLimit[int, int](3),
	)

	err := exec.Run(context.Background())
	if !errors.Is(err, rdv.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if !b.Stopped() {
		t.Fatal("bridge should be stopped after the stall")
	}
	e, ok := sink.Last(rdv.SignalExecStall)
	if !ok {
		t.Fatal("stall should be reported")
	}
	if v, _ := e.Field("consecutive_timeouts"); v != 3 {
		t.Fatalf("consecutive_timeouts got %v, want 3", v)
	}
}

func TestRetryRecoversFlakyEvaluation(t *testing.T) {
	skipRace(t)
	// Retries absorb transient evaluation failures before a terminal is
	// posted.
	calls := 0
	flaky := rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient fault")
		}
		return x * 10, nil
	})
	b := rdv.New[int, int]()
	done := runExecutor(t, b, flaky, rdv.WithRetry[int, int](3))

	y, err := b.Submit(4)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if y != 40 {
		t.Fatalf("got %d, want 40", y)
	}
	b.Stop()
	<-done
	if calls != 3 {
		t.Fatalf("evaluator calls got %d, want 3", calls)
	}
}

func TestRetryBackoffRecoversFlakyEvaluation(t *testing.T) {
	skipRace(t)
	// Backoff retries absorb the same fault streak as plain retries; the
	// delays between attempts stay inside the layer, invisible to the
	// submitter beyond latency.
	calls := 0
	flaky := rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("transient fault")
		}
		return x * 10, nil
	})
	b := rdv.New[int, int]()
	done := runExecutor(t, b, flaky, rdv.WithRetryBackoff[int, int](3, time.Millisecond))

	y, err := b.Submit(4)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if y != 40 {
		t.Fatalf("got %d, want 40", y)
	}
	b.Stop()
	<-done
	if calls != 3 {
		t.Fatalf("evaluator calls got %d, want 3", calls)
	}
}

func TestStepTimeoutFailsSlowEvaluation(t *testing.T) {
	skipRace(t)
	// The step timeout cancels a stuck evaluation through its context
	// and posts the failure terminal long before the evaluator would
	// have finished on its own.
	stuck := rdv.EvaluatorFunc[int, int](func(ctx context.Context, x int) (int, error) {
		select {
		case <-time.After(5 * time.Second):
			return x, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	})
	b := rdv.New[int, int]()
	done := runExecutor(t, b, stuck, rdv.WithStepTimeout[int, int](20*time.Millisecond))

	start := time.Now()
	_, err := b.Submit(1)
	if !errors.Is(err, rdv.ErrExecution) {
		t.Fatalf("got %v, want ErrExecution", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("deadline cause not reachable in %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("failure terminal took %v, want well under a second", elapsed)
	}
	b.Stop()
	<-done
}

func TestContextCancelStopsLoop(t *testing.T) {
	// Cancelling the run context stops the loop and the bridge.
	b := rdv.New[int, int]()
	exec := rdv.NewExecutor(b, doubler, rdv.WithClaimTimeout[int, int](10*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- exec.Run(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if !b.Stopped() {
		t.Fatal("bridge should be stopped after cancellation")
	}
}

func TestRunTwiceRejected(t *testing.T) {
	// The loop is one-shot.
	b := rdv.New[int, int]()
	exec := rdv.NewExecutor(b, doubler)
	exec.Stop() // first Run exits at its first check-in

	if err := exec.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := exec.Run(context.Background()); !errors.Is(err, rdv.ErrProtocol) {
		t.Fatalf("second run got %v, want ErrProtocol", err)
	}
}

func TestEvaluatorPanicFailsRequest(t *testing.T) {
	skipRace(t)
	// An evaluator panic fails the claimed request; the loop survives
	// and serves the next exchange.
	eval := rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
		if x == 13 {
			panic("unlucky")
		}
		return x, nil
	})
	b := rdv.New[int, int]()
	done := runExecutor(t, b, eval)

	_, err := b.Submit(13)
	if !errors.Is(err, rdv.ErrExecution) {
		t.Fatalf("got %v, want ErrExecution", err)
	}
	if !strings.Contains(err.Error(), "panic") {
		t.Fatalf("panic missing from %v", err)
	}

	y, err := b.Submit(7)
	if err != nil {
		t.Fatalf("submit after panic: %v", err)
	}
	if y != 7 {
		t.Fatalf("got %d, want 7", y)
	}
	b.Stop()
	<-done
}

func TestLoopStateTransitions(t *testing.T) {
	// The loop state reflects its lifecycle.
	b := rdv.New[int, int]()
	exec := rdv.NewExecutor(b, doubler, rdv.WithClaimTimeout[int, int](10*time.Millisecond))
	if got := exec.State(); got != rdv.LoopIdle {
		t.Fatalf("initial state got %v, want idle", got)
	}

	done := make(chan error, 1)
	go func() {
		done <- exec.Run(context.Background())
	}()
	time.Sleep(30 * time.Millisecond)
	if got := exec.State(); got != rdv.LoopRunning {
		t.Fatalf("running state got %v, want running", got)
	}

	exec.Stop()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := exec.State(); got != rdv.LoopStopped {
		t.Fatalf("final state got %v, want stopped", got)
	}
}
