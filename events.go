// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "time"

// Level classifies event severity.
type Level int8

const (
	LevelDebug Level = iota - 1
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the lowercase level name.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Signal identifies one kind of lifecycle event.
type Signal string

const (
	SignalStarted     = Signal("rdv.bridge.started")
	SignalSubmitted   = Signal("rdv.request.submitted")
	SignalClaimed     = Signal("rdv.request.claimed")
	SignalStale       = Signal("rdv.request.stale")
	SignalResolved    = Signal("rdv.response.delivered")
	SignalFailed      = Signal("rdv.response.failed")
	SignalTimeout     = Signal("rdv.wait.timeout")
	SignalStopRequest = Signal("rdv.bridge.stop.requested")
	SignalStopped     = Signal("rdv.bridge.stopped")
	SignalViolation   = Signal("rdv.bridge.violation")
	SignalSolverStart = Signal("rdv.solver.started")
	SignalSolverDone  = Signal("rdv.solver.completed")
	SignalSolverFail  = Signal("rdv.solver.failed")
	SignalSolverLeak  = Signal("rdv.solver.leaked")
	SignalExecStart   = Signal("rdv.executor.started")
	SignalExecDrain   = Signal("rdv.executor.draining")
	SignalExecStop    = Signal("rdv.executor.stopped")
	SignalExecStall   = Signal("rdv.executor.stalled")
)

// Field is one key/value attachment on an Event.
type Field struct {
	Key   string
	Value any
}

// F constructs a Field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Event is one lifecycle notification. Bridge carries the emitting
// bridge's serial; Seq is 0 for events not tied to a request.
type Event struct {
	Time   time.Time
	Level  Level
	Signal Signal
	Bridge Serial
	Name   string
	Seq    Seq
	Fields []Field
}

// Field returns the value attached under key, if any.
func (e Event) Field(key string) (any, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Sink receives lifecycle events. Implementations must be safe for
// concurrent use. Emission is advisory: the exchange never waits on a
// sink beyond the Emit call itself.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) {
	f(e)
}

// Tee fans each event out to every sink in order.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) Emit(e Event) {
	for _, s := range t {
		s.Emit(e)
	}
}
