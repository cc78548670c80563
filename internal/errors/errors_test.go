package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Render(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
	}{
		{"bad request", InvalidRequestWithError(errors.New("bad json"))},
		{"rate limited", ErrRateLimitExceeded},
		{"metrics disabled", ErrMetricsDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)

			require.NoError(t, render.Render(w, r, tt.apiError))
			assert.Equal(t, tt.apiError.StatusCode, w.Code)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.apiError.ErrorCode, body["error_code"])
		})
	}
}

func TestHelpers(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
	}{
		{"invalid request", InvalidRequestWithError(errors.New("bad json")), http.StatusBadRequest, "INVALID_REQUEST"},
		{"field validation", ErrValidation("year", "must be positive"), http.StatusBadRequest, CodeValidationFailed},
		{"metrics disabled", ErrMetricsDisabled, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
		})
	}

	assert.Equal(t, "bad json", InvalidRequestWithError(errors.New("bad json")).Details)
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "year", Message: "must be at least 1"},
		{Field: "n", Message: "must be at most 100"},
	})

	details, ok := err.Details.(ValidationErrors)
	require.True(t, ok)
	assert.Len(t, details.Errors, 2)
	assert.Equal(t, "year", details.Errors[0].Field)
}

func TestProblemDetails_JSON(t *testing.T) {
	problem := NewProblemDetails(http.StatusConflict, TypeConflict, "Conflict", "no dataset", "/x").
		WithExtension("error_code", CodeDatasetNotLoaded).
		WithExtension("status", 999)

	data, err := json.Marshal(problem)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, float64(http.StatusConflict), raw["status"], "standard members win")
	assert.Equal(t, CodeDatasetNotLoaded, raw["error_code"])

	var decoded ProblemDetails
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeConflict, decoded.Type)
	assert.Equal(t, "no dataset", decoded.Detail)
	assert.Equal(t, "/x", decoded.Instance)
	assert.Equal(t, CodeDatasetNotLoaded, decoded.Extensions["error_code"])
}
