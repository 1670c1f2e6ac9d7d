package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// fakeTool replays a scripted invocation function.
type fakeTool struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context, input string, call int) ToolResult
}

func (f *fakeTool) Metadata() ToolMetadata {
	return ToolMetadata{Name: f.name, Description: "fake " + f.name}
}

func (f *fakeTool) Invoke(ctx context.Context, input string) ToolResult {
	n := int(f.calls.Add(1))
	return f.fn(ctx, input, n)
}

func echoTool(name string) *fakeTool {
	return &fakeTool{name: name, fn: func(_ context.Context, input string, _ int) ToolResult {
		return SuccessResult(name + ":" + input)
	}}
}

func fastExecutor(cfg ToolConfig) *Executor {
	return NewExecutor(cfg, backoff.WithInitialInterval(time.Millisecond), backoff.WithMaxInterval(5*time.Millisecond))
}

func TestRegistryLookupNormalizesName(t *testing.T) {
	reg, err := NewRegistry(echoTool("query_flu_data"), echoTool("query_air_quality"))
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	for _, name := range []string{"query_flu_data", " Query_Flu_Data ", "`query_flu_data`", "\"query_flu_data\""} {
		tool, ok := reg.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if tool.Metadata().Name != "query_flu_data" {
			t.Errorf("Lookup(%q) = %s", name, tool.Metadata().Name)
		}
	}

	if _, ok := reg.Lookup("drop_tables"); ok {
		t.Error("expected unknown name to be absent")
	}
	if _, ok := reg.Lookup(""); ok {
		t.Error("expected empty name to be absent")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(echoTool("query_flu_data"), echoTool("QUERY_FLU_DATA"))
	if err == nil {
		t.Fatal("expected duplicate name error")
	}
}

func TestRegistryRejectsEmptyName(t *testing.T) {
	_, err := NewRegistry(echoTool("  "))
	if err == nil {
		t.Fatal("expected empty name error")
	}
}

func TestRegistryNamesSorted(t *testing.T) {
	reg, err := NewRegistry(echoTool("query_flu_data"), echoTool("query_air_quality"), echoTool("query_fda_enforcements"))
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	got := strings.Join(reg.Names(), ",")
	want := "query_air_quality,query_fda_enforcements,query_flu_data"
	if got != want {
		t.Errorf("Names() = %s, want %s", got, want)
	}
	if len(reg.List()) != 3 {
		t.Errorf("List() has %d entries, want 3", len(reg.List()))
	}

	desc := reg.Description()
	if !strings.HasPrefix(desc, "query_air_quality: fake query_air_quality") {
		t.Errorf("Description() should list tools in name order, got %q", desc)
	}
}

type sourcedTool struct {
	*fakeTool
	source string
}

func (s sourcedTool) Source() string { return s.source }

func TestSourceOf(t *testing.T) {
	if got := SourceOf(sourcedTool{fakeTool: echoTool("query_flu_data"), source: "flu"}); got != "flu" {
		t.Errorf("SourceOf(sourced) = %q, want flu", got)
	}
	if got := SourceOf(echoTool("query_flu_data")); got != "" {
		t.Errorf("SourceOf(plain) = %q, want empty", got)
	}
}

func TestObservationMarkers(t *testing.T) {
	tests := []struct {
		name   string
		result ToolResult
		want   string
	}{
		{"success", SuccessResult(`{"rows":[]}`), `{"rows":[]}`},
		{"input error", InputFailure(fmt.Errorf("%w: zip code must be 5 digits", ErrInvalidInput)), "Invalid input: zip code must be 5 digits"},
		{"execution error", ExecutionFailure(errors.New("store unavailable"), false), "Error: store unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.Observation(); got != tt.want {
				t.Errorf("Observation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutorRetriesTransientFailures(t *testing.T) {
	tool := &fakeTool{name: "flaky", fn: func(_ context.Context, _ string, call int) ToolResult {
		if call < 3 {
			return ExecutionFailure(errors.New("connection reset"), true)
		}
		return SuccessResult("ok")
	}}

	result := fastExecutor(ToolConfig{Timeout: time.Second, MaxRetries: 2}).Execute(context.Background(), tool, "")
	if !result.Success() {
		t.Fatalf("expected success after retries, got %v", result.Error)
	}
	if got := tool.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestExecutorStopsAfterMaxRetries(t *testing.T) {
	tool := &fakeTool{name: "down", fn: func(_ context.Context, _ string, _ int) ToolResult {
		return ExecutionFailure(errors.New("connection refused"), true)
	}}

	result := fastExecutor(ToolConfig{Timeout: time.Second, MaxRetries: 2}).Execute(context.Background(), tool, "")
	if result.Success() {
		t.Fatal("expected failure")
	}
	if result.Kind != ResultExecutionError {
		t.Errorf("Kind = %v, want execution_error", result.Kind)
	}
	if got := tool.calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestExecutorDoesNotRetryInputErrors(t *testing.T) {
	tool := &fakeTool{name: "strict", fn: func(_ context.Context, _ string, _ int) ToolResult {
		return InputFailure(fmt.Errorf("%w: bad", ErrInvalidInput))
	}}

	result := fastExecutor(ToolConfig{Timeout: time.Second, MaxRetries: 2}).Execute(context.Background(), tool, "x")
	if result.Kind != ResultInputError {
		t.Errorf("Kind = %v, want input_error", result.Kind)
	}
	if got := tool.calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestExecutorTimeout(t *testing.T) {
	tool := &fakeTool{name: "slow", fn: func(ctx context.Context, _ string, _ int) ToolResult {
		select {
		case <-ctx.Done():
			return ExecutionFailure(ctx.Err(), false)
		case <-time.After(2 * time.Second):
			return SuccessResult("late")
		}
	}}

	start := time.Now()
	result := fastExecutor(ToolConfig{Timeout: 20 * time.Millisecond}).Execute(context.Background(), tool, "")
	if result.Success() {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(result.Observation(), "Error: slow timed out") {
		t.Errorf("Observation() = %q", result.Observation())
	}
	if time.Since(start) > time.Second {
		t.Error("timeout was not enforced")
	}
}

func TestExecutorRecoversPanics(t *testing.T) {
	tool := &fakeTool{name: "broken", fn: func(_ context.Context, _ string, _ int) ToolResult {
		panic("nil map")
	}}

	result := fastExecutor(ToolConfig{Timeout: time.Second}).Execute(context.Background(), tool, "")
	if result.Success() {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(result.Observation(), ErrorMarker) {
		t.Errorf("Observation() = %q", result.Observation())
	}
}
