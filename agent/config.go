// Agent configuration types.
//
// Information Hiding:
// - Configuration validation logic hidden
// - Default values hidden

package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/richinex/healthradar/tools"
)

// Budget defaults.
const (
	DefaultMaxIterations    = 6
	DefaultMaxParseFailures = 3
	DefaultTimeout          = 60 * time.Second
)

// Config holds agent configuration.
type Config struct {
	// Instructions open the prompt.
	Instructions string

	// MaxIterations bounds model calls per run.
	MaxIterations int

	// MaxParseFailures bounds consecutive unparseable outputs.
	MaxParseFailures int

	// Timeout bounds the whole run, model and operation latency included.
	Timeout time.Duration

	// Tool configures the per-invocation timeout and transient retries.
	Tool tools.ToolConfig

	// Logger receives step and status logs. Nil discards.
	Logger *slog.Logger
}

// DefaultConfig returns the default budgets.
func DefaultConfig() Config {
	return Config{
		Instructions:     DefaultInstructions,
		MaxIterations:    DefaultMaxIterations,
		MaxParseFailures: DefaultMaxParseFailures,
		Timeout:          DefaultTimeout,
		Tool:             tools.DefaultToolConfig(),
	}
}

// Validate rejects non-positive budgets.
func (c *Config) Validate() error {
	var errs []error
	if c.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max iterations must be positive, got %d", c.MaxIterations))
	}
	if c.MaxParseFailures <= 0 {
		errs = append(errs, fmt.Errorf("max parse failures must be positive, got %d", c.MaxParseFailures))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.Tool.Timeout < 0 {
		errs = append(errs, fmt.Errorf("tool timeout must not be negative, got %s", c.Tool.Timeout))
	}
	return errors.Join(errs...)
}
