package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/catering/internal/observability"
	"github.com/odyssey-erp/catering/internal/shared"
	_ "github.com/odyssey-erp/catering/testing"
)

type pingStub struct{ err error }

func (p pingStub) Ping(ctx context.Context) error { return p.err }

func testConfig() *Config {
	return &Config{
		AppEnv:             "development",
		PGDSN:              "postgres://localhost/catering",
		WorkerConcurrency:  1,
		RateLimitPerMinute: 0,
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	cfg.PGDSN = ""
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.RateLimitPerMinute = -1
	assert.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.WorkerConcurrency = 0
	assert.Error(t, cfg.Validate())
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://test/catering")
	t.Setenv("APP_ENV", "production")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, ":8080", cfg.AppAddr)
	assert.Equal(t, "@every 1h", cfg.ReconcileSweepCron)

	var nilCfg *Config
	assert.False(t, nilCfg.IsProduction())
}

func TestRequestContext(t *testing.T) {
	var actor, correlation string
	h := RequestContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = shared.ActorFromContext(r.Context())
		correlation = shared.CorrelationIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, " aisyah ")
	req.Header.Set(CorrelationHeader, "corr-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "aisyah", actor)
	assert.Equal(t, "corr-1", correlation)
	assert.Equal(t, "corr-1", rec.Header().Get(CorrelationHeader))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, correlation)
	assert.NotEqual(t, "corr-1", correlation)
	assert.Equal(t, correlation, rec.Header().Get(CorrelationHeader))
}

func TestRouterHealthAndMetrics(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger:   quietLogger(),
		Config:   testConfig(),
		Metrics:  observability.NewMetrics(),
		Database: pingStub{},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "catering_http_requests_total")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quotations", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouterHealthDegraded(t *testing.T) {
	router := NewRouter(RouterParams{
		Logger:   quietLogger(),
		Config:   testConfig(),
		Database: pingStub{err: errors.New("connection refused")},
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"degraded"}`, rec.Body.String())
}

func TestInTestMode(t *testing.T) {
	RefreshTestMode()
	assert.True(t, InTestMode())
}
