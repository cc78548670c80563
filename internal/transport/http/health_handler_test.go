package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "fishpulse/internal/errors"
	"fishpulse/internal/services"
	"fishpulse/internal/shared/testutil"
	"fishpulse/pkg/contracts"
)

type fixedSessions int

func (f fixedSessions) SessionCount() int { return int(f) }

func TestHealthHandler_Endpoints(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService(fixedSessions(2), 10, logger), logger)

	r := chi.NewRouter()
	r.Route("/api", handler.Routes)

	tests := []struct {
		name           string
		endpoint       string
		expectedStatus int
		checkResponse  func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "health check endpoint",
			endpoint:       "/api/health",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, contracts.Version, body["version"])
			},
		},
		{
			name:           "readiness check endpoint",
			endpoint:       "/api/health/ready",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ready", body["status"])
				assert.Contains(t, body["services"], "sessions")
			},
		},
		{
			name:           "liveness check endpoint",
			endpoint:       "/api/health/live",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "alive", body["status"])
			},
		},
		{
			name:           "version endpoint",
			endpoint:       "/api/version",
			expectedStatus: http.StatusOK,
			checkResponse: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, contracts.APIVersion, body["api_version"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.endpoint, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			tt.checkResponse(t, body)
		})
	}
}

func TestHealthHandler_NotReadyWhenFull(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService(fixedSessions(3), 3, logger), logger)

	rec := httptest.NewRecorder()
	handler.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, logs.ContainsMessage("readiness check failed"))
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	t.Run("disabled", func(t *testing.T) {
		h := NewMetricsHandler(nil, apierrors.NewErrorHandler(logger, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var problem apierrors.ProblemDetails
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
		assert.Equal(t, apierrors.TypeServiceDown, problem.Type)
		assert.Equal(t, "Metrics are disabled", problem.Detail)
		assert.Equal(t, "SERVICE_UNAVAILABLE", problem.Extensions["error_code"])
	})

	t.Run("delegates to exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# HELP sessions_active\n"))
		})
		h := NewMetricsHandler(exporter, apierrors.NewErrorHandler(logger, false))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "sessions_active")
	})
}
