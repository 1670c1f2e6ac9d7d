// Tool Executor with Retry Logic.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Timeout and panic containment hidden

package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Executor runs tools under a per-invocation timeout and retries transient
// execution failures with exponential backoff.
type Executor struct {
	config  ToolConfig
	backoff []backoff.ExponentialBackOffOpts
}

// NewExecutor creates a new tool executor with the given configuration.
// Extra backoff options override the defaults.
func NewExecutor(config ToolConfig, opts ...backoff.ExponentialBackOffOpts) *Executor {
	return &Executor{
		config: config,
		backoff: append([]backoff.ExponentialBackOffOpts{
			backoff.WithInitialInterval(100 * time.Millisecond),
			backoff.WithMultiplier(2.0),
			backoff.WithMaxInterval(2 * time.Second),
			backoff.WithMaxElapsedTime(0), // bounded by retries and ctx instead
			backoff.WithRandomizationFactor(0),
		}, opts...),
	}
}

// Execute invokes the tool. It never returns a Go error: timeouts, panics and
// exhausted retries all come back as execution failures.
func (e *Executor) Execute(ctx context.Context, tool Tool, input string) ToolResult {
	timeout := e.config.TimeoutOrDefault()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var result ToolResult
	op := func() error {
		result = e.invokeOnce(ctx, tool, input)
		if result.Success() || !result.Retryable {
			return nil
		}
		return result.Error
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(e.backoff...), uint64(e.config.Retries())),
		ctx,
	)
	_ = backoff.Retry(op, b)

	if !result.Success() && errors.Is(ctx.Err(), context.DeadlineExceeded) && result.Kind != ResultInputError {
		return ExecutionFailure(fmt.Errorf("%s timed out after %s", tool.Metadata().Name, timeout), false)
	}
	return result
}

// invokeOnce runs a single attempt, honoring the deadline even when the tool
// does not watch ctx.
func (e *Executor) invokeOnce(ctx context.Context, tool Tool, input string) ToolResult {
	done := make(chan ToolResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- ExecutionFailure(fmt.Errorf("%s failed unexpectedly: %v", tool.Metadata().Name, r), false)
			}
		}()
		done <- tool.Invoke(ctx, input)
	}()

	select {
	case result := <-done:
		return result
	case <-ctx.Done():
		return ExecutionFailure(ctx.Err(), false)
	}
}
