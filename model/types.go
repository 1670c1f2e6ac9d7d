// Package model provides domain types shared across packages.
package model

import (
	"strings"
	"time"
)

// Context keys recognized on an incoming query.
const (
	ContextZipCode      = "zip_code"
	ContextLocationKey  = "location_key"
	ContextLookbackDays = "lookback_days"
	ContextDateRange    = "date_range"
)

// Query is a single natural-language question plus optional structured context.
// It is created per request and never persisted.
type Query struct {
	Text    string
	Context map[string]string
}

// NewQuery creates a query, copying the context so later mutation by the caller
// cannot leak into a running loop.
func NewQuery(text string, context map[string]string) Query {
	q := Query{Text: strings.TrimSpace(text)}
	if len(context) > 0 {
		q.Context = make(map[string]string, len(context))
		for k, v := range context {
			q.Context[k] = strings.TrimSpace(v)
		}
	}
	return q
}

// Value returns the context value for key, or "".
func (q Query) Value(key string) string {
	if q.Context == nil {
		return ""
	}
	return q.Context[key]
}

// LocationKey returns the ZIP code from context, accepting either key.
func (q Query) LocationKey() string {
	if zip := q.Value(ContextZipCode); zip != "" {
		return zip
	}
	return q.Value(ContextLocationKey)
}

// StepKind tags what the model emitted in a reasoning step.
type StepKind string

const (
	StepAction      StepKind = "action"
	StepFinal       StepKind = "final"
	StepUnparseable StepKind = "unparseable"
)

// Step represents a single cycle of the reasoning loop.
// Raw holds the unparsed model output and is only kept for unparseable steps.
type Step struct {
	Iteration   int      `json:"iteration"`
	Kind        StepKind `json:"kind"`
	Thought     string   `json:"thought,omitempty"`
	Action      string   `json:"action,omitempty"`
	ActionInput string   `json:"action_input,omitempty"`
	Observation string   `json:"observation,omitempty"`
	Raw         string   `json:"-"`
}

// Outcome classifies what happened when an operation was invoked.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeInputError       Outcome = "input_error"
	OutcomeExecutionError   Outcome = "execution_error"
	OutcomeUnknownOperation Outcome = "unknown_operation"
)

// Invocation records one operation call made during a query.
// Used for provenance and instrumentation.
type Invocation struct {
	Name       string        `json:"name"`
	Source     string        `json:"source,omitempty"`
	Input      string        `json:"input"`
	Outcome    Outcome       `json:"outcome"`
	OutputSize int           `json:"output_size"`
	Duration   time.Duration `json:"duration"`
}

// ReturnedData reports whether the invocation completed with a store result.
// Execution errors may reach the store but return nothing.
func (i Invocation) ReturnedData() bool {
	return i.Outcome == OutcomeOK
}
