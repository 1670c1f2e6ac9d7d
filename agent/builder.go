// Agent builder for fluent configuration.
//
// Information Hiding:
// - Builder state management hidden
// - Default value application hidden

package agent

import (
	"log/slog"
	"time"

	"github.com/richinex/healthradar/tools"
)

// Builder provides fluent configuration for creating agents.
// Usage: agent.NewBuilder(completer, registry).MaxIterations(4).Build()
type Builder struct {
	completer Completer
	registry  *tools.Registry
	config    Config
}

// NewBuilder starts from DefaultConfig.
func NewBuilder(completer Completer, registry *tools.Registry) *Builder {
	return &Builder{
		completer: completer,
		registry:  registry,
		config:    DefaultConfig(),
	}
}

// Instructions replaces the opening instructions of the prompt.
func (b *Builder) Instructions(text string) *Builder {
	b.config.Instructions = text
	return b
}

// MaxIterations sets the model-call budget.
func (b *Builder) MaxIterations(n int) *Builder {
	b.config.MaxIterations = n
	return b
}

// MaxParseFailures sets how many consecutive unparseable outputs are tolerated.
func (b *Builder) MaxParseFailures(n int) *Builder {
	b.config.MaxParseFailures = n
	return b
}

// Timeout sets the wall-clock budget for a run.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.config.Timeout = d
	return b
}

// ToolConfig sets the per-invocation timeout and retries.
func (b *Builder) ToolConfig(cfg tools.ToolConfig) *Builder {
	b.config.Tool = cfg
	return b
}

// Logger sets the logger.
func (b *Builder) Logger(logger *slog.Logger) *Builder {
	b.config.Logger = logger
	return b
}

// Config returns the configuration built so far.
func (b *Builder) Config() Config {
	return b.config
}

// Build validates the configuration and creates the agent.
func (b *Builder) Build() (*Agent, error) {
	return New(b.completer, b.registry, b.config)
}
