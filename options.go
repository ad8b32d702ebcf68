// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rdv

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// DefaultSubmitTimeout bounds the Submit round trip when no explicit
// timeout is configured or given.
const DefaultSubmitTimeout = 30 * time.Second

// DefaultClaimTimeout is the executor's per-iteration claim window.
const DefaultClaimTimeout = 500 * time.Millisecond

// Option configures a Bridge.
type Option func(*config)

type config struct {
	sink          Sink
	name          string
	submitTimeout time.Duration
}

// WithSink routes the bridge's lifecycle events to s.
func WithSink(s Sink) Option {
	return func(c *config) { c.sink = s }
}

// WithName tags the bridge's events with a name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithSubmitTimeout sets the default Submit round-trip bound.
// Non-positive d waits without limit.
func WithSubmitTimeout(d time.Duration) Option {
	return func(c *config) { c.submitTimeout = d }
}

// evalExchange shuttles one evaluation through a pipz pipeline.
type evalExchange[X, Y any] struct {
	x X
	y Y
}

// evalPipeline is one resilience layer around the evaluation pipeline.
type evalPipeline[X, Y any] func(pipz.Chainable[*evalExchange[X, Y]]) pipz.Chainable[*evalExchange[X, Y]]

// ExecOption configures an Executor.
type ExecOption[X, Y any] func(*execConfig[X, Y])

type execConfig[X, Y any] struct {
	claimTimeout time.Duration
	idleLimit    int
	layers       []evalPipeline[X, Y]
}

// WithClaimTimeout sets the executor's per-iteration claim window.
func WithClaimTimeout[X, Y any](d time.Duration) ExecOption[X, Y] {
	return func(c *execConfig[X, Y]) { c.claimTimeout = d }
}

// WithIdleLimit makes the n-th consecutive claim timeout fatal: the
// executor stops the bridge and returns an error. 0 disables the limit.
func WithIdleLimit[X, Y any](n int) ExecOption[X, Y] {
	return func(c *execConfig[X, Y]) { c.idleLimit = n }
}

// WithRetry retries a failed evaluation up to maxAttempts times before
// its failure terminal is posted.
func WithRetry[X, Y any](maxAttempts int) ExecOption[X, Y] {
	return func(c *execConfig[X, Y]) {
		c.layers = append(c.layers, func(pipeline pipz.Chainable[*evalExchange[X, Y]]) pipz.Chainable[*evalExchange[X, Y]] {
			return pipz.NewRetry("evaluate-retry", pipeline, maxAttempts)
		})
	}
}

// WithRetryBackoff retries a failed evaluation with exponential backoff
// starting at baseDelay.
func WithRetryBackoff[X, Y any](maxAttempts int, baseDelay time.Duration) ExecOption[X, Y] {
	return func(c *execConfig[X, Y]) {
		c.layers = append(c.layers, func(pipeline pipz.Chainable[*evalExchange[X, Y]]) pipz.Chainable[*evalExchange[X, Y]] {
			return pipz.NewBackoff("evaluate-backoff", pipeline, maxAttempts, baseDelay)
		})
	}
}

// WithStepTimeout bounds one evaluation; evaluations exceeding d are
// cancelled through their context and failed.
func WithStepTimeout[X, Y any](d time.Duration) ExecOption[X, Y] {
	return func(c *execConfig[X, Y]) {
		c.layers = append(c.layers, func(pipeline pipz.Chainable[*evalExchange[X, Y]]) pipz.Chainable[*evalExchange[X, Y]] {
			return pipz.NewTimeout("evaluate-timeout", pipeline, d)
		})
	}
}

// layeredEvaluator wraps ev in the configured pipz layers, innermost
// first, so the last option listed is the outermost layer.
func layeredEvaluator[X, Y any](ev Evaluator[X, Y], layers []evalPipeline[X, Y]) Evaluator[X, Y] {
	if len(layers) == 0 {
		return ev
	}
	pipeline := pipz.Apply("evaluate", func(ctx context.Context, e *evalExchange[X, Y]) (*evalExchange[X, Y], error) {
		y, err := ev.Evaluate(ctx, e.x)
		if err != nil {
			return e, err
		}
		e.y = y
		return e, nil
	})
	var chain pipz.Chainable[*evalExchange[X, Y]] = pipeline
	for _, layer := range layers {
		chain = layer(chain)
	}
	return EvaluatorFunc[X, Y](func(ctx context.Context, x X) (Y, error) {
		out, err := chain.Process(ctx, &evalExchange[X, Y]{x: x})
		if err != nil {
			var zero Y
			return zero, err
		}
		return out.y, nil
	})
}

// RunnerOption configures a solver runner.
type RunnerOption func(*runnerConfig)

type runnerConfig struct {
	id string
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunnerOption {
	return func(c *runnerConfig) { c.id = id }
}
