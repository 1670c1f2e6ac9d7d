// Package server exposes the chat service over HTTP.
//
// Routes:
//
//	POST /chat     {"query": "...", "context": {...}} -> {"response", "sources", "query_time_ms"}
//	GET  /health   liveness
//	GET  /metrics  Prometheus exposition
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richinex/healthradar/chat"
	"github.com/richinex/healthradar/internal/logging"
	"github.com/richinex/healthradar/metrics"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 30 * time.Second
)

// Answerer answers one chat question. *chat.Service satisfies it.
type Answerer interface {
	Answer(ctx context.Context, query string, queryContext map[string]any) chat.Response
}

// Options configures the HTTP surface.
type Options struct {
	// Gatherer backs GET /metrics. Nil serves the default registry.
	Gatherer prometheus.Gatherer

	// Metrics, when set, records per-route HTTP metrics.
	Metrics *metrics.Prometheus

	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string

	Logger *slog.Logger
}

// Server routes HTTP requests to an Answerer.
type Server struct {
	answerer Answerer
	opts     Options
	logger   *slog.Logger
	router   chi.Router
}

// ChatRequest is the POST /chat body. Message is accepted in place of Query.
type ChatRequest struct {
	Query   string         `json:"query"`
	Message string         `json:"message,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// Text returns the question, preferring Query.
func (r ChatRequest) Text() string {
	if q := strings.TrimSpace(r.Query); q != "" {
		return q
	}
	return strings.TrimSpace(r.Message)
}

// ChatResponse is the POST /chat reply.
type ChatResponse struct {
	Response    string   `json:"response"`
	Sources     []string `json:"sources"`
	QueryTimeMs float64  `json:"query_time_ms"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// New builds the router.
func New(answerer Answerer, opts Options) *Server {
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{answerer: answerer, opts: opts, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/chat", s.handleChat)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "llm-service"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "request body must be a JSON object with a query"})
		return
	}

	query := req.Text()
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: "query must not be empty"})
		return
	}

	resp := s.answerer.Answer(r.Context(), query, req.Context)
	s.logger.Debug("chat request served",
		"request_id", middleware.GetReqID(r.Context()),
		"status", resp.Status,
	)

	sources := resp.Sources
	if sources == nil {
		sources = []string{}
	}
	writeJSON(w, http.StatusOK, ChatResponse{
		Response:    resp.Response,
		Sources:     sources,
		QueryTimeMs: resp.QueryTimeMs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
