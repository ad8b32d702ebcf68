// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/quick"
	"time"

	"code.hybscloud.com/rdv"
)

// TestPropertyBridgedEvaluationIdentity proves that for any arbitrarily
// generated sequence of submissions through a live executor, every
// submission returns exactly the evaluator's value for its own input,
// in submission order.
func TestPropertyBridgedEvaluationIdentity(t *testing.T) {
	skipRace(t)

	property := func(payload []int16) bool {
		b := rdv.New[int, int]()
		done := runExecutor(t, b, doubler)

		ok := true
		for _, v := range payload {
			y, err := b.Submit(int(v))
			if err != nil || y != 2*int(v) {
				ok = false
				break
			}
		}
		b.Stop()
		<-done
		return ok
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 30}); err != nil {
		t.Error(err)
	}
}

// TestPropertySingleFlightUnderContention proves that when arbitrarily
// many goroutines race their submissions against a live executor, every
// submission either round-trips exactly its own value or is refused as
// a concurrent submit, at least one always gets through, and the state
// word only ever holds a named lifecycle state.
func TestPropertySingleFlightUnderContention(t *testing.T) {
	skipRace(t)

	property := func(payload []int16) bool {
		b := rdv.New[int, int]()
		done := runExecutor(t, b, doubler)

		var wg sync.WaitGroup
		results := make([]int, len(payload))
		errs := make([]error, len(payload))
		states := make([]rdv.State, len(payload))
		for i := range payload {
			wg.Add(1)
			go func(i, x int) {
				defer wg.Done()
				// Staggered starts: same-bucket goroutines collide,
				// later buckets find the bridge free again.
				time.Sleep(time.Duration(i%4) * time.Millisecond)
				results[i], errs[i] = b.Submit(x)
				states[i] = b.State()
			}(i, int(payload[i]))
		}
		wg.Wait()
		b.Stop()
		<-done

		delivered := 0
		for i := range payload {
			switch {
			case errs[i] == nil:
				if results[i] != 2*int(payload[i]) {
					return false
				}
				delivered++
			case errors.Is(errs[i], rdv.ErrProtocol):
			default:
				return false
			}
			switch states[i] {
			case rdv.StateIdle, rdv.StateAwaitingExecution,
				rdv.StateExecuting, rdv.StateStopped, rdv.StateFailed:
			default:
				return false
			}
		}
		return len(payload) == 0 || delivered > 0
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 30}); err != nil {
		t.Error(err)
	}
}

var errInjected = errors.New("injected fault")

// TestPropertyFailureRouting proves that for any arbitrary pattern of
// passing and failing evaluations, each submission reports exactly its
// own outcome: successes deliver values, failures deliver ErrExecution,
// and neither leaks into a neighboring exchange.
func TestPropertyFailureRouting(t *testing.T) {
	skipRace(t)

	property := func(flags []bool) bool {
		faulty := rdv.EvaluatorFunc[int, int](func(_ context.Context, x int) (int, error) {
			if x < 0 {
				return 0, errInjected
			}
			return x, nil
		})
		b := rdv.New[int, int]()
		done := runExecutor(t, b, faulty)

		ok := true
		for i, pass := range flags {
			x := i + 1
			if !pass {
				x = -x
			}
			y, err := b.Submit(x)
			switch {
			case pass && (err != nil || y != x):
				ok = false
			case !pass && !errors.Is(err, rdv.ErrExecution):
				ok = false
			case !pass && !errors.Is(err, errInjected):
				ok = false
			}
			if !ok {
				break
			}
		}
		b.Stop()
		<-done
		return ok
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 30}); err != nil {
		t.Error(err)
	}
}
