package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/healthradar/chat"
	"github.com/richinex/healthradar/metrics"
)

type stubAnswerer struct {
	query   string
	context map[string]any
	resp    chat.Response
}

func (s *stubAnswerer) Answer(_ context.Context, query string, queryContext map[string]any) chat.Response {
	s.query = query
	s.context = queryContext
	return s.resp
}

func newTestServer(t *testing.T, a Answerer) (*httptest.Server, *metrics.Prometheus) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prom := metrics.NewPrometheus(reg)
	srv := httptest.NewServer(New(a, Options{Gatherer: reg, Metrics: prom}).Handler())
	t.Cleanup(srv.Close)
	return srv, prom
}

func post(t *testing.T, url, body string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestChat(t *testing.T) {
	stub := &stubAnswerer{resp: chat.Response{
		Response:    "Air quality was good.",
		Sources:     []string{"air_quality"},
		QueryTimeMs: 12.5,
		Status:      "success",
	}}
	srv, _ := newTestServer(t, stub)

	resp, body := post(t, srv.URL+"/chat", `{"query": "Air quality in 90210?", "context": {"zip_code": "90210", "lookback_days": 7}}`)

	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got ChatResponse
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "Air quality was good.", got.Response)
	assert.Equal(t, []string{"air_quality"}, got.Sources)
	assert.Equal(t, 12.5, got.QueryTimeMs)

	assert.Equal(t, "Air quality in 90210?", stub.query)
	assert.Equal(t, "90210", stub.context["zip_code"])
	assert.Equal(t, json.Number("7"), stub.context["lookback_days"])
}

func TestChatAcceptsMessageAlias(t *testing.T) {
	stub := &stubAnswerer{resp: chat.Response{Response: "ok"}}
	srv, _ := newTestServer(t, stub)

	resp, body := post(t, srv.URL+"/chat", `{"message": "Any recalls?"}`)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Any recalls?", stub.query)
	assert.Contains(t, string(body), `"sources":[]`)
}

func TestChatRejectsBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnswerer{})

	for _, body := range []string{`{"query": "   "}`, `not json`, `{}`} {
		resp, data := post(t, srv.URL+"/chat", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
		assert.Contains(t, string(data), "detail", body)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnswerer{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "healthy", got["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv, prom := newTestServer(t, &stubAnswerer{})
	prom.IncQueries("success")

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `llm_queries_total{status="success"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, &stubAnswerer{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://dashboard.local")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestListenAndServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(&stubAnswerer{}, Options{Gatherer: prometheus.NewRegistry()}).ListenAndServe(ctx, addr)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
