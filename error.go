// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import "errors"

// Sentinel errors returned by bridge operations. Call sites wrap them
// with fmt.Errorf("%w: …") to attach the side, sequence number, and
// cause; errors.Is matches through the whole chain.
var (
	// ErrTimeout reports that a bounded wait elapsed before the other
	// side made progress.
	ErrTimeout = errors.New("rdv: wait deadline exceeded")

	// ErrCancelled reports that Stop released a blocked submitter.
	// The request gets no response; this is its one terminal outcome.
	ErrCancelled = errors.New("rdv: bridge stopped")

	// ErrStopped is the end-of-stream marker for the driver side:
	// once the bridge is stopped no further requests will arrive, and
	// terminals for drained requests are dropped rather than delivered.
	ErrStopped = errors.New("rdv: no more requests")

	// ErrStale reports a terminal for a request that is no longer
	// outstanding, typically because the submitter timed out first.
	// The terminal is dropped; the bridge stays usable.
	ErrStale = errors.New("rdv: stale terminal dropped")

	// ErrExecution reports that the driver failed the request. The
	// chain unwraps to the cause passed to Fail.
	ErrExecution = errors.New("rdv: execution failed")

	// ErrProtocol reports a broken exchange discipline: a terminal for
	// a never-issued sequence, a submit on a failed bridge, or a second
	// concurrent submit. Terminals with never-issued sequence numbers
	// are fatal and move the bridge to StateFailed.
	ErrProtocol = errors.New("rdv: protocol violation")

	// ErrSolver wraps the solver's own terminal failure, including
	// captured panics. The original cause stays reachable via
	// errors.Is/errors.As.
	ErrSolver = errors.New("rdv: solver failed")
)
