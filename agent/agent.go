// ReAct (Reason + Act) loop implementation.
//
// This is the only place model output is turned into operation calls.
//
// Information Hiding:
// - ReAct loop internals hidden
// - Model communication hidden behind Completer
// - Operation execution coordination hidden
// - Budget enforcement and fallback answers hidden

package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/richinex/healthradar/internal/logging"
	"github.com/richinex/healthradar/model"
	"github.com/richinex/healthradar/tools"
)

// maxQuotedObservation bounds raw data quoted in a fallback answer.
const maxQuotedObservation = 500

// Agent answers questions by alternating model calls and operation calls.
// It holds no per-query state and is safe for concurrent use.
type Agent struct {
	config    Config
	completer Completer
	registry  *tools.Registry
	executor  *tools.Executor
	logger    *slog.Logger
}

// New creates an agent over a frozen registry.
func New(completer Completer, registry *tools.Registry, config Config) (*Agent, error) {
	if completer == nil {
		return nil, errors.New("agent: completer is required")
	}
	if registry == nil {
		return nil, errors.New("agent: registry is required")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("agent: invalid config: %w", err)
	}
	if config.Instructions == "" {
		config.Instructions = DefaultInstructions
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Agent{
		config:    config,
		completer: completer,
		registry:  registry,
		executor:  tools.NewExecutor(config.Tool),
		logger:    logger,
	}, nil
}

// run carries the mutable state of one query.
type run struct {
	steps       []Step
	invocations []model.Invocation
	data        []quoted
	llmCalls    int
}

// quoted is an observation that returned data, kept for fallback answers.
type quoted struct {
	operation   string
	observation string
}

// Run answers one query. It never returns an error: failures are reported
// through Result.Status with a user-safe Answer.
func (a *Agent) Run(ctx context.Context, q model.Query) (res Result) {
	start := time.Now()
	r := &run{}
	log := a.logger.With("query", q.Text)

	defer func() {
		if p := recover(); p != nil {
			log.Error("reasoning loop panicked", "panic", p)
			res = a.finish(r, start, StatusError, ErrorAnswer, fmt.Errorf("panic: %v", p))
		}
		log.Info("query finished",
			"status", res.Status,
			"iterations", res.LLMCalls,
			"invocations", len(res.Invocations),
			"elapsed", res.Elapsed,
		)
	}()

	ctx, cancel := context.WithTimeout(ctx, a.config.Timeout)
	defer cancel()

	preamble := buildPreamble(a.config.Instructions, a.registry, augmentQuestion(q))
	parseFailures := 0

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return a.stopped(r, start, err)
		}

		text, err := a.completer.Complete(ctx, buildPrompt(preamble, r.steps))
		r.llmCalls++
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return a.stopped(r, start, ctxErr)
			}
			log.Error("model call failed", "iteration", iteration, "error", err)
			return a.finish(r, start, StatusError, ErrorAnswer, fmt.Errorf("model call failed: %w", err))
		}

		switch out := ParseOutput(text).(type) {
		case FinalAnswer:
			r.steps = append(r.steps, Step{
				Iteration:   iteration,
				Kind:        model.StepFinal,
				Thought:     out.Thought,
				Observation: out.Answer,
			})
			log.Debug("final answer", "iteration", iteration)
			return a.finish(r, start, StatusSuccess, out.Answer, nil)

		case Action:
			parseFailures = 0
			observation := a.act(ctx, r, out)
			r.steps = append(r.steps, Step{
				Iteration:   iteration,
				Kind:        model.StepAction,
				Thought:     out.Thought,
				Action:      out.Name,
				ActionInput: out.Input,
				Observation: observation,
			})
			log.Debug("action step", "iteration", iteration, "action", out.Name, "input", out.Input)

		case Unparseable:
			parseFailures++
			r.steps = append(r.steps, Step{
				Iteration:   iteration,
				Kind:        model.StepUnparseable,
				Observation: invalidFormatPrefix + out.Reason,
				Raw:         out.Raw,
			})
			log.Debug("unparseable output", "iteration", iteration, "reason", out.Reason, "consecutive", parseFailures)
			if parseFailures >= a.config.MaxParseFailures {
				return a.finish(r, start, StatusParseExhausted, a.fallbackAnswer(r), ErrParseExhausted)
			}
		}
	}

	return a.finish(r, start, StatusBudgetExhausted, a.fallbackAnswer(r),
		fmt.Errorf("%w: %d iterations", ErrBudgetExhausted, a.config.MaxIterations))
}

// act dispatches one action and records the invocation.
func (a *Agent) act(ctx context.Context, r *run, action Action) string {
	started := time.Now()

	tool, ok := a.registry.Lookup(action.Name)
	if !ok {
		observation := fmt.Sprintf("%s is not a valid operation, try one of [%s]",
			action.Name, strings.Join(a.registry.Names(), ", "))
		r.invocations = append(r.invocations, model.Invocation{
			Name:     action.Name,
			Input:    action.Input,
			Outcome:  model.OutcomeUnknownOperation,
			Duration: time.Since(started),
		})
		return observation
	}

	name := tool.Metadata().Name
	result := a.executor.Execute(ctx, tool, action.Input)
	observation := result.Observation()

	inv := model.Invocation{
		Name:       name,
		Source:     tools.SourceOf(tool),
		Input:      action.Input,
		Outcome:    outcomeOf(result),
		OutputSize: len(result.Output),
		Duration:   time.Since(started),
	}
	r.invocations = append(r.invocations, inv)

	if inv.ReturnedData() {
		r.data = append(r.data, quoted{operation: name, observation: observation})
		a.logger.Info("operation invoked", "operation", name, "bytes", inv.OutputSize, "duration", inv.Duration)
	} else {
		a.logger.Warn("operation failed", "operation", name, "outcome", inv.Outcome, "error", result.Error)
	}
	return observation
}

func outcomeOf(result tools.ToolResult) model.Outcome {
	switch result.Kind {
	case tools.ResultOK:
		return model.OutcomeOK
	case tools.ResultInputError:
		return model.OutcomeInputError
	default:
		return model.OutcomeExecutionError
	}
}

// stopped ends a run whose context is done. The loop's own deadline is a
// budget; any other cancellation is an error.
func (a *Agent) stopped(r *run, start time.Time, err error) Result {
	if errors.Is(err, context.DeadlineExceeded) {
		return a.finish(r, start, StatusBudgetExhausted, a.fallbackAnswer(r),
			fmt.Errorf("%w: timeout after %s", ErrBudgetExhausted, a.config.Timeout))
	}
	return a.finish(r, start, StatusError, ErrorAnswer, err)
}

func (a *Agent) finish(r *run, start time.Time, status Status, answer string, err error) Result {
	return Result{
		Answer:      answer,
		Status:      status,
		Steps:       r.steps,
		Invocations: r.invocations,
		Elapsed:     time.Since(start),
		LLMCalls:    r.llmCalls,
		Err:         err,
	}
}

// fallbackAnswer apologizes without inventing figures. When operations did
// return data, it names them and quotes what they returned.
func (a *Agent) fallbackAnswer(r *run) string {
	if len(r.data) == 0 {
		return "I'm sorry, I wasn't able to retrieve any data to answer your question. " +
			"Please try rephrasing it, for example by naming a ZIP code, a time window or a data set."
	}

	var names []string
	seen := map[string]bool{}
	for _, d := range r.data {
		if !seen[d.operation] {
			seen[d.operation] = true
			names = append(names, d.operation)
		}
	}

	var b strings.Builder
	b.WriteString("I'm sorry, I wasn't able to finish interpreting the data for your question. ")
	fmt.Fprintf(&b, "These operations returned data: %s. Here is what they returned:", strings.Join(names, ", "))
	for _, d := range r.data {
		obs := d.observation
		if runes := []rune(obs); len(runes) > maxQuotedObservation {
			obs = string(runes[:maxQuotedObservation]) + "..."
		}
		fmt.Fprintf(&b, "\n- %s: %s", d.operation, obs)
	}
	return b.String()
}
