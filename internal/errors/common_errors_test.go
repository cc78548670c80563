package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "with cause",
			err:  NewParsingError("dataset rejected", fmt.Errorf("missing column Year")),
			want: "[PARSING] dataset rejected: missing column Year",
		},
		{
			name: "without cause",
			err:  NewNotFoundError("session"),
			want: "[NOT_FOUND] session not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("bad bytes")
	err := fmt.Errorf("upload: %w", NewParsingError("dataset rejected", cause))

	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeParsing, appErr.Type)
	assert.Equal(t, CodeIngestionFailed, appErr.Code)
	assert.True(t, errors.Is(err, cause))
}

func TestAppError_WithContext(t *testing.T) {
	err := &AppError{Type: ErrTypeValidation, Message: "bad"}

	err.WithContext("field", "year").WithContext("value", 0)

	assert.Equal(t, "year", err.Context["field"])
	assert.Equal(t, 0, err.Context["value"])
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantCode string
	}{
		{"session not found", SessionNotFound("abc"), ErrTypeNotFound, CodeSessionNotFound},
		{"dataset not loaded", DatasetNotLoaded("abc"), ErrTypeConflict, CodeDatasetNotLoaded},
		{"payload too large", NewPayloadTooLargeError(1024, nil), ErrTypeTooLarge, CodePayloadTooLarge},
		{"validation", NewAppValidationError("bad filter"), ErrTypeValidation, CodeValidationFailed},
		{"capacity", NewCapacityError("too many sessions").WithCode(CodeSessionLimit), ErrTypeCapacity, CodeSessionLimit},
		{"storage", NewStorageError("write failed", nil).WithCode(CodeExportFailed), ErrTypeStorage, CodeExportFailed},
		{"config", NewConfigError("bad port", nil), ErrTypeConfig, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.err.Type)
			assert.Equal(t, tt.wantCode, tt.err.Code)
		})
	}

	assert.Equal(t, "abc", SessionNotFound("abc").Context["session_id"])
	assert.Equal(t, int64(1024), NewPayloadTooLargeError(1024, nil).Context["limit_bytes"])
}
