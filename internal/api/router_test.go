package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/internal/api/handlers"
	"github.com/wonny/screener/backend/internal/brain"
	"github.com/wonny/screener/backend/internal/s0_snapshot"
	"github.com/wonny/screener/backend/pkg/config"
	"github.com/wonny/screener/backend/pkg/logger"
	"github.com/wonny/screener/backend/pkg/metrics"
	"github.com/wonny/screener/backend/pkg/redis"
)

type stubRunner struct {
	configs []brain.RunConfig
	err     error
}

func (s *stubRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	s.configs = append(s.configs, cfg)
	result := &brain.RunResult{RunID: cfg.RunID, Trigger: cfg.Trigger, CompletedStages: []string{"S0:VALIDATE"}}
	if s.err != nil {
		result.Error = s.err.Error()
		return result, s.err
	}
	result.Success = true
	return result, nil
}

type testServer struct {
	handler http.Handler
	store   *s0_snapshot.Store
	runner  *stubRunner
	metrics *metrics.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, loc)

	store := s0_snapshot.NewStore(t.TempDir(), loc, logger.Nop()).
		WithClock(func() time.Time { return now })

	client, err := redis.New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)

	rec := metrics.New()
	runner := &stubRunner{}
	router := NewRouter(
		handlers.NewSnapshotHandler(store, redis.NewCache(client, "screener"), rec, logger.Nop()),
		handlers.NewPipelineHandler(runner, false, logger.Nop()),
		rec,
		logger.Nop(),
	)

	return &testServer{handler: router, store: store, runner: runner, metrics: rec}
}

func (s *testServer) write(t *testing.T, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.store.Dir(), name), []byte(body), 0o644))
}

func (s *testServer) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","service":"screener-api"}`, rr.Body.String())
}

func TestGetDocument(t *testing.T) {
	srv := newTestServer(t)
	srv.write(t, "scored_2026-03-09.json", `{"MSFT": {"score": 4}}`)
	srv.write(t, "scored_2026-03-10.json", `{"AAPL": {"score": 6}}`)
	srv.write(t, "autowatchlist_2026-03-10.json", `{not json`)

	tests := []struct {
		name     string
		target   string
		wantCode int
		wantBody string
		wantDate string
	}{
		{"latest scored", "/api/scored", http.StatusOK, `{"AAPL": {"score": 6}}`, "2026-03-10"},
		{"scored by date", "/api/scored?date=2026-03-09", http.StatusOK, `{"MSFT": {"score": 4}}`, "2026-03-09"},
		{"unknown date", "/api/scored?date=2026-03-01", http.StatusNotFound, "", ""},
		{"bad date", "/api/scored?date=03-10", http.StatusBadRequest, "", ""},
		{"missing kind", "/api/enriched", http.StatusNotFound, "", ""},
		{"malformed document", "/api/autowatchlist", http.StatusInternalServerError, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(http.MethodGet, tt.target, "")
			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
				assert.Equal(t, tt.wantDate, rr.Header().Get("X-Snapshot-Date"))
			}
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		target string
	}{
		{http.MethodPost, "/api/scored"},
		{http.MethodDelete, "/api/autowatchlist"},
		{http.MethodGet, "/api/pipeline/run"},
		{http.MethodPost, "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := srv.do(tt.method, tt.target, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
			assert.Contains(t, rr.Body.String(), "not allowed")
		})
	}

	rr := srv.do(http.MethodGet, "/api/unknown", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetTimestamps(t *testing.T) {
	srv := newTestServer(t)
	srv.write(t, "universe_2026-03-10.json", `{"AAPL": {}}`)
	srv.write(t, "post_open_signals_2026-03-09.json", `{}`)

	rr := srv.do(http.MethodGet, "/api/cache-timestamps", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Today string                            `json:"today"`
		Files map[string]handlers.TimestampItem `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

	assert.Equal(t, "2026-03-10", body.Today)
	require.Len(t, body.Files, 2)
	assert.Equal(t, "universe_2026-03-10.json", body.Files["universe"].File)
	assert.True(t, body.Files["universe"].Current)
	assert.False(t, body.Files["post_open"].Current)
}

func TestPipelineRun(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantCode   int
		wantStatus string
		wantStrict bool
	}{
		{"success", ``, nil, http.StatusOK, "success", false},
		{"strict override", `{"strict": true}`, nil, http.StatusOK, "success", true},
		{"in flight", ``, brain.ErrRunInFlight, http.StatusConflict, "busy", false},
		{"missing universe", ``, fmt.Errorf("S1 failed: %w", s0_snapshot.ErrMissingUniverse), http.StatusServiceUnavailable, "failed", false},
		{"stage error", ``, fmt.Errorf("S2 failed: disk full"), http.StatusInternalServerError, "failed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			srv.runner.err = tt.err

			rr := srv.do(http.MethodPost, "/api/pipeline/run", tt.body)
			assert.Equal(t, tt.wantCode, rr.Code)

			var resp handlers.RunResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantStatus, resp.Status)

			require.Len(t, srv.runner.configs, 1)
			assert.Equal(t, "api", srv.runner.configs[0].Trigger)
			assert.Equal(t, tt.wantStrict, srv.runner.configs[0].Strict)
		})
	}

	srv := newTestServer(t)
	rr := srv.do(http.MethodPost, "/api/pipeline/run", `{"strict": "yes"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, srv.runner.configs)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	srv.write(t, "scored_2026-03-10.json", `{}`)
	srv.do(http.MethodGet, "/api/scored", "")

	rr := srv.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `screener_api_cache_requests_total{result="miss"} 1`)
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/scored", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rr.Body.String())
}
