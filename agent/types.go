// Package agent provides the ReAct agent implementation.
//
// Contains all types used by agents for decisions, parsed output and results.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/richinex/healthradar/model"
)

// Completer is the text-completion service the loop reasons with.
// llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f(ctx, prompt).
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Terminal errors recorded on Result.Err. They are never shown to users.
var (
	ErrBudgetExhausted = errors.New("reasoning budget exhausted")
	ErrParseExhausted  = errors.New("too many unparseable model outputs")
)

// ErrorAnswer is the only text users see when the loop fails internally.
const ErrorAnswer = "I encountered an error processing your query. Please try rephrasing your question."

// Decision is the JSON encoding of a reasoning step. Models that ignore the
// text grammar and answer in JSON are parsed through it.
type Decision struct {
	Thought     string          `json:"thought"`
	Action      *DecisionAction `json:"action,omitempty"`
	IsFinal     bool            `json:"is_final"`
	FinalAnswer *string         `json:"final_answer,omitempty"`
}

// UnmarshalJSON implements custom unmarshaling that accepts either a string or
// JSON value for FinalAnswer.
func (d *Decision) UnmarshalJSON(data []byte) error {
	type DecisionAlias Decision
	aux := &struct {
		FinalAnswer json.RawMessage `json:"final_answer,omitempty"`
		*DecisionAlias
	}{
		DecisionAlias: (*DecisionAlias)(d),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.FinalAnswer) > 0 && string(aux.FinalAnswer) != "null" {
		var s string
		if err := json.Unmarshal(aux.FinalAnswer, &s); err == nil {
			d.FinalAnswer = &s
			return nil
		}

		var v interface{}
		if err := json.Unmarshal(aux.FinalAnswer, &v); err == nil {
			pretty, err := json.MarshalIndent(v, "", "  ")
			if err == nil {
				s := string(pretty)
				d.FinalAnswer = &s
			}
		}
	}

	return nil
}

// DecisionAction names an operation and its input inside a Decision.
type DecisionAction struct {
	Tool  string          `json:"tool"`
	Input json.RawMessage `json:"input"`
}

// InputText renders the action input as the raw text operations parse.
// A JSON string is unquoted; objects and numbers keep their JSON text.
func (a DecisionAction) InputText() string {
	raw := strings.TrimSpace(string(a.Input))
	if raw == "" || raw == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(a.Input, &s); err == nil {
		return s
	}
	return raw
}

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess         Status = "success"
	StatusParseExhausted  Status = "parse_exhausted"
	StatusBudgetExhausted Status = "budget_exhausted"
	StatusError           Status = "error"
)

// Step is an alias for model.Step for agent reasoning steps.
type Step = model.Step

// Result is the outcome of one run of the loop.
type Result struct {
	Answer      string
	Status      Status
	Steps       []Step
	Invocations []model.Invocation
	Elapsed     time.Duration
	LLMCalls    int

	// Err is the internal cause for non-success statuses. Log it, never show it.
	Err error
}

// IsSuccess checks if the run ended with a final answer.
func (r Result) IsSuccess() bool {
	return r.Status == StatusSuccess
}
