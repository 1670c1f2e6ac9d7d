// Package tools provides the operation contract and registry for the agent.
//
// Information Hiding:
// - Operation execution details hidden behind interface
// - Parameter parsing and typing hidden in implementations
// - Registry implementation details hidden from consumers
// - Failures internalized as Result values, never returned as Go errors
package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Observation prefixes that let the model tell data from failure.
const (
	InputErrorMarker = "Invalid input:"
	ErrorMarker      = "Error:"
)

// ErrInvalidInput is wrapped by argument parsers when the action input is malformed.
var ErrInvalidInput = errors.New("invalid input")

// ToolParameter defines a parameter schema for a tool.
type ToolParameter struct {
	Name        string `json:"name"`
	ParamType   string `json:"param_type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// ToolMetadata describes what a tool does and how to call it.
// Description is the model's only contract for the input syntax.
type ToolMetadata struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  []ToolParameter `json:"parameters"`
}

// String returns a string representation of the tool metadata.
func (m ToolMetadata) String() string {
	return fmt.Sprintf("%s: %s", m.Name, m.Description)
}

// ResultKind classifies a tool result.
type ResultKind int

const (
	ResultOK ResultKind = iota
	ResultInputError
	ResultExecutionError
)

// String returns the kind name.
func (k ResultKind) String() string {
	switch k {
	case ResultOK:
		return "ok"
	case ResultInputError:
		return "input_error"
	case ResultExecutionError:
		return "execution_error"
	default:
		return "unknown"
	}
}

// ToolResult represents the result of a tool invocation.
// Success is determined by whether Error is nil.
type ToolResult struct {
	Output    string
	Error     error
	Kind      ResultKind
	Retryable bool
}

// Success returns true if the tool invocation produced data.
func (t ToolResult) Success() bool {
	return t.Error == nil
}

// Observation renders the result as the text fed back to the model.
func (t ToolResult) Observation() string {
	if t.Error == nil {
		return t.Output
	}
	msg := strings.TrimPrefix(t.Error.Error(), ErrInvalidInput.Error()+": ")
	if t.Kind == ResultInputError {
		return InputErrorMarker + " " + msg
	}
	return ErrorMarker + " " + msg
}

// SuccessResult creates a successful tool result.
func SuccessResult(output string) ToolResult {
	return ToolResult{Output: output, Kind: ResultOK}
}

// InputFailure creates a result for malformed action input.
func InputFailure(err error) ToolResult {
	return ToolResult{Error: err, Kind: ResultInputError}
}

// ExecutionFailure creates a result for a store-side failure.
func ExecutionFailure(err error, retryable bool) ToolResult {
	return ToolResult{Error: err, Kind: ResultExecutionError, Retryable: retryable}
}

// Tool is the interface that all retrieval operations implement.
//
// Invoke must not panic and must not return a Go error: every failure is
// reported through ToolResult so the reasoning loop always receives text.
type Tool interface {
	// Metadata returns tool metadata (name, description, parameters).
	Metadata() ToolMetadata

	// Invoke parses the raw action input and runs the operation.
	Invoke(ctx context.Context, input string) ToolResult
}

// Sourced is implemented by tools that read from a named data source.
type Sourced interface {
	Source() string
}

// SourceOf returns the data source a tool reads from, or "" if it names none.
func SourceOf(t Tool) string {
	if s, ok := t.(Sourced); ok {
		return s.Source()
	}
	return ""
}

// ToolConfig holds tool execution configuration.
// The zero value is safe: timeout defaults to 10s and transient failures are not retried.
type ToolConfig struct {
	Timeout    time.Duration
	MaxRetries uint32
}

// TimeoutOrDefault returns the configured timeout, defaulting to 10 seconds if zero.
func (c *ToolConfig) TimeoutOrDefault() time.Duration {
	if c == nil || c.Timeout <= 0 {
		return DefaultToolTimeout
	}
	return c.Timeout
}

// Retries returns how many times a transient failure is retried.
func (c *ToolConfig) Retries() uint32 {
	if c == nil {
		return 0
	}
	return c.MaxRetries
}

// DefaultToolTimeout bounds a single invocation, store latency included.
const DefaultToolTimeout = 10 * time.Second

// DefaultToolConfig returns the default tool configuration.
func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		Timeout:    DefaultToolTimeout,
		MaxRetries: 2,
	}
}
