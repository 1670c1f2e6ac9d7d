// Package chat turns questions into answers with provenance and latency.
//
// Information Hiding:
// - Context normalization hidden
// - Source attribution rules hidden
// - Instrumentation hidden behind metrics.Recorder
package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/healthradar/agent"
	"github.com/richinex/healthradar/internal/logging"
	"github.com/richinex/healthradar/metrics"
	"github.com/richinex/healthradar/model"
)

// Runner answers one query. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, q model.Query) agent.Result
}

// Response is what callers of the chat surface receive.
type Response struct {
	Response    string   `json:"response"`
	Sources     []string `json:"sources"`
	QueryTimeMs float64  `json:"query_time_ms"`
	Status      string   `json:"status"`

	// Steps is the reasoning trace, for local debugging only.
	Steps []model.Step `json:"-"`
}

// Service answers questions through a Runner and records metrics.
type Service struct {
	runner   Runner
	recorder metrics.Recorder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder sets the metrics recorder. The default discards.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a chat service over runner.
func NewService(runner Runner, opts ...Option) *Service {
	s := &Service{
		runner:   runner,
		recorder: metrics.Nop{},
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs one question with optional structured context such as
// zip_code, lookback_days or date_range. It always returns a Response.
func (s *Service) Answer(ctx context.Context, query string, queryContext map[string]any) Response {
	start := time.Now()
	log := s.logger.With("query_id", uuid.NewString())
	log.Info("chat query received", "query", query)

	res := s.runner.Run(ctx, model.NewQuery(query, contextValues(queryContext)))
	elapsed := time.Since(start)

	for _, inv := range res.Invocations {
		s.recorder.IncInvocation(inv.Name, string(inv.Outcome))
	}
	s.recorder.IncQueries(queryOutcome(res))
	s.recorder.ObserveLatency(Classify(res.Invocations), elapsed)

	resp := Response{
		Response:    res.Answer,
		Sources:     []string{},
		QueryTimeMs: float64(elapsed.Microseconds()) / 1000,
		Status:      string(res.Status),
		Steps:       res.Steps,
	}
	if res.Status != agent.StatusError {
		resp.Sources = Sources(res.Invocations)
	}

	if res.Err != nil {
		log.Warn("chat query ended without a final answer", "status", res.Status, "error", res.Err)
	}
	log.Info("chat query answered",
		"status", resp.Status,
		"sources", resp.Sources,
		"query_time_ms", resp.QueryTimeMs,
	)
	return resp
}

// queryOutcome folds the terminal status into the success/error pair the
// query counter is tagged with. Exhausted budgets count as errors.
func queryOutcome(res agent.Result) string {
	if res.IsSuccess() {
		return metrics.OutcomeSuccess
	}
	return metrics.OutcomeError
}

// Sources lists the data sources behind invocations that returned data,
// in first-use order without duplicates.
func Sources(invocations []model.Invocation) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, inv := range invocations {
		if !inv.ReturnedData() || inv.Source == "" || seen[inv.Source] {
			continue
		}
		seen[inv.Source] = true
		out = append(out, inv.Source)
	}
	return out
}

// Classify labels a query by the data source of its first successful
// invocation.
func Classify(invocations []model.Invocation) string {
	if sources := Sources(invocations); len(sources) > 0 {
		return sources[0]
	}
	return metrics.GeneralLabel
}

// contextValues flattens JSON-ish context values to text.
func contextValues(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case json.Number:
			out[k] = t.String()
		case float64:
			out[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			out[k] = strconv.Itoa(t)
		case bool:
			out[k] = strconv.FormatBool(t)
		default:
			if b, err := json.Marshal(t); err == nil {
				out[k] = string(b)
			} else {
				out[k] = fmt.Sprint(t)
			}
		}
	}
	return out
}
