// Command execution for CLI commands.
//
// Information Hiding:
// - Settings, store, provider and agent wiring hidden
// - Output formatting hidden

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/richinex/healthradar/agent"
	"github.com/richinex/healthradar/chat"
	"github.com/richinex/healthradar/config"
	"github.com/richinex/healthradar/health"
	"github.com/richinex/healthradar/internal/logging"
	"github.com/richinex/healthradar/llm"
	"github.com/richinex/healthradar/metrics"
	"github.com/richinex/healthradar/model"
	"github.com/richinex/healthradar/server"
	"github.com/richinex/healthradar/storage"
	"github.com/richinex/healthradar/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider   string
	ConfigPath string
	MaxIter    int
	Verbose    bool
}

// Serve runs the HTTP service until ctx is canceled.
func Serve(ctx context.Context, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings, opts.Verbose)
	if err != nil {
		return err
	}

	prom := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	svc, cleanup, err := buildService(settings, logger, prom)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("healthradar ready",
		"provider", settings.LLM.Provider,
		"model", settings.LLM.Model,
		"store", settings.Store.Driver,
	)

	srv := server.New(svc, server.Options{
		Gatherer: prometheus.DefaultGatherer,
		Metrics:  prom,
		Logger:   logger,
	})
	return srv.ListenAndServe(ctx, settings.Server.Addr)
}

// AskOptions scope a one-shot question.
type AskOptions struct {
	ZipCode      string
	LookbackDays int
}

// Ask answers one question and prints the answer with its sources.
func Ask(ctx context.Context, question string, scope AskOptions, opts Options) error {
	return ask(ctx, os.Stdout, question, scope, opts)
}

func ask(ctx context.Context, w io.Writer, question string, scope AskOptions, opts Options) error {
	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}
	logger, err := newLogger(settings, opts.Verbose)
	if err != nil {
		return err
	}

	svc, cleanup, err := buildService(settings, logger, metrics.Nop{})
	if err != nil {
		return err
	}
	defer cleanup()

	queryContext := map[string]any{}
	if scope.ZipCode != "" {
		queryContext[model.ContextZipCode] = scope.ZipCode
	}
	if scope.LookbackDays > 0 {
		queryContext[model.ContextLookbackDays] = strconv.Itoa(scope.LookbackDays)
	}

	resp := svc.Answer(ctx, question, queryContext)
	printResponse(w, resp, opts.Verbose)
	if resp.Status == string(agent.StatusError) {
		return fmt.Errorf("query failed")
	}
	return nil
}

// ListOperations prints the retrieval operations the agent can call.
func ListOperations(verbose bool) {
	listOperations(os.Stdout, verbose)
}

func listOperations(w io.Writer, verbose bool) {
	registry, err := health.NewRegistry(health.Deps{})
	if err != nil {
		fmt.Fprintf(w, "failed to build registry: %v\n", err)
		return
	}

	fmt.Fprintln(w, "Available operations:")
	fmt.Fprintln(w)

	for _, meta := range registry.List() {
		fmt.Fprintf(w, "  %s\n", meta.Name)
		fmt.Fprintf(w, "    %s\n", meta.Description)

		if verbose && len(meta.Parameters) > 0 {
			fmt.Fprintln(w, "    Parameters:")
			for _, param := range meta.Parameters {
				req := ""
				if param.Required {
					req = "*"
				}
				fmt.Fprintf(w, "      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
			}
		}
		fmt.Fprintln(w)
	}
}

// InitDB creates a SQLite store with the surveillance schema, optionally
// seeded with demo data ending today.
func InitDB(ctx context.Context, path string, demo bool) error {
	return initDB(ctx, os.Stdout, path, demo, clockwork.NewRealClock())
}

func initDB(ctx context.Context, w io.Writer, path string, demo bool, clock clockwork.Clock) error {
	store, err := storage.OpenSqlite(path)
	if err != nil {
		return err
	}
	defer store.Close()

	fmt.Fprintf(w, "Schema ready in %s\n", path)
	if !demo {
		return nil
	}

	data := storage.DemoData(clock.Now())
	if err := storage.Seed(ctx, store.DB(), data); err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}
	fmt.Fprintf(w, "Seeded %d air quality readings, %d hospital reports, %d flu weeks, %d recalls\n",
		len(data.AirQuality), len(data.Hospitals), len(data.Flu), len(data.Recalls))
	return nil
}

// Helper functions

func loadSettings(opts Options) (config.Settings, error) {
	settings, err := config.Load(opts.ConfigPath, opts.Provider)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.MaxIter > 0 {
		settings.Agent.MaxIterations = opts.MaxIter
	}
	return settings, nil
}

func newLogger(settings config.Settings, verbose bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(settings.Log.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}
	return logging.New(level, os.Stderr), nil
}

// buildService wires store, provider, registry and agent into a chat service.
// The returned cleanup releases the store.
func buildService(settings config.Settings, logger *slog.Logger, recorder metrics.Recorder) (*chat.Service, func(), error) {
	connector, closeStore, err := storage.Open(settings.Store.Driver, settings.Store.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	cleanup := func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}

	provider, err := createProvider(settings)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	registry, err := health.NewRegistry(health.Deps{
		Connector: connector,
		Clock:     clockwork.NewRealClock(),
		Logger:    logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	a, err := agent.NewBuilder(llm.NewClient(provider), registry).
		MaxIterations(settings.Agent.MaxIterations).
		MaxParseFailures(settings.Agent.MaxParseFailures).
		Timeout(settings.Agent.Timeout).
		ToolConfig(tools.ToolConfig{
			Timeout:    settings.Agent.ToolTimeout,
			MaxRetries: settings.Agent.ToolRetries,
		}).
		Logger(logger).
		Build()
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	svc := chat.NewService(a, chat.WithRecorder(recorder), chat.WithLogger(logger))
	return svc, cleanup, nil
}

func createProvider(settings config.Settings) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	builder := providerType.
		Model(settings.LLM.Model).
		MaxTokens(settings.LLM.MaxTokens).
		Temperature(float32(settings.LLM.Temperature)).
		Stop(agent.StopSequences...)
	if providerType == llm.ProviderOllama {
		builder = builder.BaseURL(settings.LLM.BaseURL)
	}
	return builder.APIKey(apiKey)
}

const maxObservationLen = 400

func printResponse(w io.Writer, resp chat.Response, verbose bool) {
	if verbose {
		printSteps(w, resp.Steps)
	}
	fmt.Fprintf(w, "%s\n\n", resp.Response)

	sources := "none"
	if len(resp.Sources) > 0 {
		sources = strings.Join(resp.Sources, ", ")
	}
	fmt.Fprintf(w, "Sources: %s\n", sources)
	fmt.Fprintf(w, "(%s in %s)\n", resp.Status, time.Duration(resp.QueryTimeMs*float64(time.Millisecond)).Round(time.Millisecond))
}

func printSteps(w io.Writer, steps []model.Step) {
	fmt.Fprintln(w, "--- Steps ---")
	for _, step := range steps {
		fmt.Fprintf(w, "[%d] %s\n", step.Iteration, step.Thought)
		if step.Action != "" {
			fmt.Fprintf(w, "    Action: %s(%s)\n", step.Action, step.ActionInput)
		}
		if step.Observation != "" {
			fmt.Fprintf(w, "    Observation: %s\n", truncateString(step.Observation, maxObservationLen))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "-------------")
	fmt.Fprintln(w)
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
