package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fishpulse/internal/config"
	"fishpulse/internal/shared/testutil"
	api "fishpulse/pkg/contracts/api/v1"
	"fishpulse/pkg/contracts/domain"
)

func newTestApp(t *testing.T, mutate func(cfg *config.Config)) (*Application, *testutil.BufferedSlogHandler) {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	if mutate != nil {
		mutate(cfg)
	}

	logger, logs := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = app.OTelProviders.Shutdown(context.Background())
	})
	return app, logs
}

func serve(app *Application, method, target string, body []byte, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew_RequiresConfig(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(nil, logger)
	assert.Error(t, err)
	assert.Nil(t, app)
}

func TestNew_WiresComponents(t *testing.T) {
	app, logs := newTestApp(t, nil)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.DatasetService)
	assert.NotNil(t, app.HealthService)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, ":0", app.Server.Addr)
	assert.Equal(t, 1<<20, app.Server.MaxHeaderBytes)
	assert.True(t, logs.ContainsMessage("Application starting"))
	assert.True(t, logs.ContainsMessage("CORS configured"))
}

func TestApplication_DatasetRoundTrip(t *testing.T) {
	app, _ := newTestApp(t, nil)

	rec := serve(app, http.MethodPost, "/api/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	var session api.SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	base := "/api/sessions/" + session.SessionID

	rec = serve(app, http.MethodPut, base+"/dataset?name=produksi.tsv", testutil.SampleTSV(),
		map[string]string{"Content-Type": "text/tab-separated-values"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(app, http.MethodGet, base+"/kpis", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var kpis domain.KPISummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kpis))
	assert.InDelta(t, 2250.5, kpis.TotalVolumeKg, 1e-9)
	assert.Equal(t, "2022", kpis.BestYear)
	assert.Equal(t, 4, kpis.SpeciesCount)

	rec = serve(app, http.MethodDelete, base, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, app.DatasetService.SessionCount())
}

func TestApplication_Routing(t *testing.T) {
	app, _ := newTestApp(t, nil)

	tests := []struct {
		name           string
		method         string
		target         string
		expectedStatus int
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK},
		{"version", http.MethodGet, "/api/version", http.StatusOK},
		{"trailing slash", http.MethodGet, "/api/health/", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound},
		{"unknown session", http.MethodGet, "/api/sessions/missing/kpis", http.StatusNotFound},
		{"method not allowed", http.MethodPatch, "/api/health", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.target, nil, nil)
			assert.Equal(t, tt.expectedStatus, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_Metrics(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		require.NotNil(t, app.OTelProviders.PrometheusHTTP)

		serve(app, http.MethodGet, "/api/health", nil, nil)
		rec := serve(app, http.MethodGet, "/metrics", nil, nil)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "http_requests")
	})

	t.Run("disabled", func(t *testing.T) {
		app, _ := newTestApp(t, func(cfg *config.Config) {
			cfg.Telemetry.EnableMetrics = false
		})

		rec := serve(app, http.MethodGet, "/metrics", nil, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestApplication_RateLimit(t *testing.T) {
	app, _ := newTestApp(t, func(cfg *config.Config) {
		cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.1, Burst: 1}
	})

	first := serve(app, http.MethodGet, "/api/health", nil, nil)
	second := serve(app, http.MethodGet, "/api/health", nil, nil)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "10", second.Header().Get("Retry-After"))
}

func TestApplication_CORS(t *testing.T) {
	t.Run("preflight from allowed origin", func(t *testing.T) {
		app, _ := newTestApp(t, nil)
		rec := serve(app, http.MethodOptions, "/api/sessions", nil, map[string]string{
			"Origin":                        "http://localhost:8080",
			"Access-Control-Request-Method": http.MethodPost,
		})

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Export-Rows")
	})

	t.Run("disabled", func(t *testing.T) {
		app, _ := newTestApp(t, func(cfg *config.Config) {
			cfg.Security.EnableCORS = false
		})
		rec := serve(app, http.MethodGet, "/api/health", nil, map[string]string{
			"Origin": "http://localhost:8080",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestApplication_StartStop(t *testing.T) {
	app, logs := newTestApp(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))
	require.NoError(t, app.Stop(context.Background()))

	select {
	case <-app.DatasetService.Done():
	case <-time.After(time.Second):
		t.Fatal("session sweeper still running after Stop")
	}
	assert.True(t, logs.ContainsMessage("Application shutdown complete"))
}
