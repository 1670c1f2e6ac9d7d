package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/healthradar/agent"
	"github.com/richinex/healthradar/health"
	"github.com/richinex/healthradar/metrics"
	"github.com/richinex/healthradar/model"
	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

type fakeRunner struct {
	result agent.Result
	got    model.Query
}

func (f *fakeRunner) Run(_ context.Context, q model.Query) agent.Result {
	f.got = q
	return f.result
}

type recording struct {
	mu          sync.Mutex
	labels      []string
	statuses    []string
	invocations []string
}

func (r *recording) ObserveLatency(label string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

func (r *recording) IncQueries(status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
}

func (r *recording) IncInvocation(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invocations = append(r.invocations, operation+"/"+outcome)
}

var testSources = map[string]string{
	"query_air_quality":       health.SourceAirQuality,
	"query_hospital_capacity": health.SourceHospitalCapacity,
	"query_flu_data":          health.SourceFlu,
	"query_fda_enforcements":  health.SourceFDAEnforcements,
}

func inv(name string, outcome model.Outcome) model.Invocation {
	source := testSources[name]
	if outcome == model.OutcomeUnknownOperation {
		source = ""
	}
	return model.Invocation{Name: name, Source: source, Outcome: outcome}
}

func TestSourcesFirstUseOrderDeduplicated(t *testing.T) {
	got := Sources([]model.Invocation{
		inv("query_flu_data", model.OutcomeOK),
		inv("query_air_quality", model.OutcomeInputError),
		inv("query_air_quality", model.OutcomeOK),
		inv("query_flu_data", model.OutcomeOK),
		inv("lookup_weather", model.OutcomeUnknownOperation),
		inv("query_fda_enforcements", model.OutcomeExecutionError),
	})
	assert.Equal(t, []string{health.SourceFlu, health.SourceAirQuality}, got)
}

func TestSourcesEmptyIsNotNil(t *testing.T) {
	got := Sources(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClassify(t *testing.T) {
	assert.Equal(t, "general", Classify(nil))
	assert.Equal(t, "general", Classify([]model.Invocation{inv("query_flu_data", model.OutcomeInputError)}))
	assert.Equal(t, health.SourceHospitalCapacity, Classify([]model.Invocation{
		inv("query_air_quality", model.OutcomeExecutionError),
		inv("query_hospital_capacity", model.OutcomeOK),
		inv("query_flu_data", model.OutcomeOK),
	}))
}

func TestAnswerRecordsMetricsAndSources(t *testing.T) {
	runner := &fakeRunner{result: agent.Result{
		Answer: "Flu activity is rising.",
		Status: agent.StatusSuccess,
		Invocations: []model.Invocation{
			inv("query_flu_data", model.OutcomeInputError),
			inv("query_flu_data", model.OutcomeOK),
		},
	}}
	rec := &recording{}
	svc := NewService(runner, WithRecorder(rec))

	resp := svc.Answer(context.Background(), "  Is flu rising?  ", map[string]any{
		"zip_code":      "90210",
		"lookback_days": float64(14),
		"ignored":       nil,
	})

	assert.Equal(t, "Flu activity is rising.", resp.Response)
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{health.SourceFlu}, resp.Sources)
	assert.GreaterOrEqual(t, resp.QueryTimeMs, 0.0)

	assert.Equal(t, "Is flu rising?", runner.got.Text)
	assert.Equal(t, "90210", runner.got.LocationKey())
	assert.Equal(t, "14", runner.got.Value(model.ContextLookbackDays))
	_, present := runner.got.Context["ignored"]
	assert.False(t, present)

	assert.Equal(t, []string{"success"}, rec.statuses)
	assert.Equal(t, []string{health.SourceFlu}, rec.labels)
	assert.Equal(t, []string{"query_flu_data/input_error", "query_flu_data/ok"}, rec.invocations)
}

func TestAnswerErrorHasNoSources(t *testing.T) {
	runner := &fakeRunner{result: agent.Result{
		Answer:      agent.ErrorAnswer,
		Status:      agent.StatusError,
		Invocations: []model.Invocation{inv("query_air_quality", model.OutcomeOK)},
		Err:         errors.New("model unreachable"),
	}}
	rec := &recording{}

	resp := NewService(runner, WithRecorder(rec)).Answer(context.Background(), "air?", nil)

	assert.Equal(t, agent.ErrorAnswer, resp.Response)
	assert.Equal(t, "error", resp.Status)
	assert.Empty(t, resp.Sources)
	assert.Equal(t, []string{"error"}, rec.statuses)
}

func TestSourcesSkipInvocationsWithoutSource(t *testing.T) {
	got := Sources([]model.Invocation{
		{Name: "query_flu_data", Outcome: model.OutcomeOK},
		inv("query_air_quality", model.OutcomeOK),
	})
	assert.Equal(t, []string{health.SourceAirQuality}, got)
}

func TestExhaustedQueriesCountAsErrors(t *testing.T) {
	prom := metrics.NewPrometheus(prometheus.NewRegistry())
	for _, status := range []agent.Status{agent.StatusParseExhausted, agent.StatusBudgetExhausted, agent.StatusSuccess} {
		runner := &fakeRunner{result: agent.Result{Answer: "answer", Status: status}}
		resp := NewService(runner, WithRecorder(prom)).Answer(context.Background(), "flu?", nil)
		assert.Equal(t, string(status), resp.Status)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(prom.QueriesTotal.WithLabelValues(metrics.OutcomeError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.QueriesTotal.WithLabelValues(metrics.OutcomeSuccess)))
	assert.Equal(t, 0.0, testutil.ToFloat64(prom.QueriesTotal.WithLabelValues(string(agent.StatusParseExhausted))))
}

func TestContextValues(t *testing.T) {
	got := contextValues(map[string]any{
		"zip_code":   float64(90210),
		"ratio":      0.5,
		"flag":       true,
		"date_range": map[string]any{"start": "2025-05-01"},
	})
	assert.Equal(t, "90210", got["zip_code"])
	assert.Equal(t, "0.5", got["ratio"])
	assert.Equal(t, "true", got["flag"])
	assert.Equal(t, `{"start":"2025-05-01"}`, got["date_range"])
	assert.Nil(t, contextValues(nil))
}

type replies []string

func (r *replies) Complete(context.Context, string) (string, error) {
	if len(*r) == 0 {
		return "", errors.New("no more replies")
	}
	next := (*r)[0]
	*r = (*r)[1:]
	return next, nil
}

func seededAgent(t *testing.T, completer agent.Completer) *agent.Agent {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store, err := storage.NewSqliteInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, storage.Seed(context.Background(), store.DB(), storage.DemoData(now)))

	reg, err := health.NewRegistry(health.Deps{Connector: store, Clock: clockwork.NewFakeClockAt(now)})
	require.NoError(t, err)

	a, err := agent.NewBuilder(completer, reg).ToolConfig(tools.ToolConfig{Timeout: 2 * time.Second}).Build()
	require.NoError(t, err)
	return a
}

func TestHospitalQuestionEndToEnd(t *testing.T) {
	r := replies{
		"Thought: I need hospital data.\nAction: query_hospital_capacity\nAction Input: 90210,7",
		"Thought: I now know the final answer\nFinal Answer: About 30 beds were in use each day.",
	}
	svc := NewService(seededAgent(t, &r))

	resp := svc.Answer(context.Background(), "How full are hospitals this week?", nil)

	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []string{health.SourceHospitalCapacity}, resp.Sources)
	assert.Contains(t, resp.Response, "30 beds")
}

func TestMalformedOutputEndToEnd(t *testing.T) {
	r := replies{"no idea", "still no idea", "I refuse to follow the format"}
	svc := NewService(seededAgent(t, &r))

	resp := svc.Answer(context.Background(), "What is happening?", nil)

	assert.Equal(t, "parse_exhausted", resp.Status)
	assert.Contains(t, resp.Response, "I'm sorry")
	assert.Empty(t, resp.Sources)
	assert.GreaterOrEqual(t, resp.QueryTimeMs, 0.0)
}
