// Package metrics records query latency, query outcomes and operation
// invocations for Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// GeneralLabel classifies queries that reached no data source.
const GeneralLabel = "general"

// Query outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder receives query instrumentation. Implementations must not block
// and must not panic into the caller.
type Recorder interface {
	ObserveLatency(label string, d time.Duration)
	IncQueries(outcome string)
	IncInvocation(operation, outcome string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) ObserveLatency(string, time.Duration) {}
func (Nop) IncQueries(string)                    {}
func (Nop) IncInvocation(string, string)         {}

// Prometheus is a Recorder backed by collectors on one registerer.
type Prometheus struct {
	QueryDuration       *prometheus.HistogramVec
	QueriesTotal        *prometheus.CounterVec
	InvocationsTotal    *prometheus.CounterVec
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewPrometheus registers the collectors on reg. It panics if they are
// already registered there, as promauto does.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	factory := promauto.With(reg)
	return &Prometheus{
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_query_duration_seconds",
				Help:    "Time spent answering chat queries",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 45, 60},
			},
			[]string{"query_type"},
		),
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_queries_total",
				Help: "Total chat queries by outcome",
			},
			[]string{"status"},
		),
		InvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthradar_operation_invocations_total",
				Help: "Retrieval operation invocations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "healthradar_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "healthradar_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// ObserveLatency records one query duration under a classification label.
func (p *Prometheus) ObserveLatency(label string, d time.Duration) {
	defer recoverMetric()
	if label == "" {
		label = GeneralLabel
	}
	p.QueryDuration.WithLabelValues(label).Observe(d.Seconds())
}

// IncQueries counts one query under OutcomeSuccess or OutcomeError.
func (p *Prometheus) IncQueries(outcome string) {
	defer recoverMetric()
	p.QueriesTotal.WithLabelValues(outcome).Inc()
}

// IncInvocation counts one operation invocation by outcome.
func (p *Prometheus) IncInvocation(operation, outcome string) {
	defer recoverMetric()
	p.InvocationsTotal.WithLabelValues(operation, outcome).Inc()
}

// Middleware returns a chi middleware that records HTTP metrics.
func (p *Prometheus) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// Use the route pattern if available, otherwise use the path
		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			path = rctx.RoutePattern()
		}

		status := strconv.Itoa(ww.Status())
		p.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		p.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// recoverMetric keeps a collector failure inside the recorder.
func recoverMetric() {
	_ = recover()
}

var (
	_ Recorder = Nop{}
	_ Recorder = (*Prometheus)(nil)
)
