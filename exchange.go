// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "time"

// Request is one pending evaluation travelling from the blocking side
// to the driver. Fields are set at submit time and never mutated after.
type Request[X any] struct {
	Seq   Seq
	Value X
	At    time.Time
}

// response carries the terminal outcome for one request back to the
// blocked submitter. seq always matches the request it answers; at most
// one response exists per request.
type response[Y any] struct {
	seq Seq
	y   Y
	err error
}

// State is the bridge lifecycle state word.
//
// The conceptual awaiting-solver-consumption phase between delivery and
// pickup collapses into StateExecuting: delivery and consumption happen
// inside one resolve/take pair, so it is never observable on its own.
type State uint32

const (
	// StateIdle: no request outstanding.
	StateIdle State = iota
	// StateAwaitingExecution: a request is deposited and unclaimed.
	StateAwaitingExecution
	// StateExecuting: the driver claimed the request and owes exactly
	// one terminal for it.
	StateExecuting
	// StateStopped: terminal. Stop released both sides.
	StateStopped
	// StateFailed: terminal. A fatal protocol violation released both
	// sides.
	StateFailed
)

// String returns the state name used in events.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingExecution:
		return "awaiting-execution"
	case StateExecuting:
		return "executing"
	case StateStopped:
		return "stopped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// terminal reports whether no further transitions are possible.
func (s State) terminal() bool {
	return s == StateStopped || s == StateFailed
}
