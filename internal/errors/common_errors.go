package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeParsing    ErrorType = "PARSING"
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConflict   ErrorType = "CONFLICT"
	ErrTypeTooLarge   ErrorType = "PAYLOAD_TOO_LARGE"
	ErrTypeCapacity   ErrorType = "CAPACITY"
	ErrTypeStorage    ErrorType = "STORAGE"
	ErrTypeConfig     ErrorType = "CONFIG"
)

// Machine-readable codes surfaced as error_code in problem responses
const (
	CodeIngestionFailed  = "INGESTION_FAILED"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeDatasetNotLoaded = "DATASET_NOT_LOADED"
	CodeSessionLimit     = "SESSION_LIMIT_REACHED"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeExportFailed     = "EXPORT_FAILED"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error. Context entries are exposed to
// API clients as problem extensions.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithCode sets the machine-readable error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause).WithCode(CodeIngestionFailed)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil).WithCode(CodeValidationFailed)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConflictError creates an error for a request that does not fit the
// current state of a resource
func NewConflictError(message string) *AppError {
	return NewAppError(ErrTypeConflict, message, nil)
}

// NewPayloadTooLargeError creates an error for an upload over limit bytes
func NewPayloadTooLargeError(limit int64, cause error) *AppError {
	return NewAppError(ErrTypeTooLarge, fmt.Sprintf("upload exceeds %d bytes", limit), cause).
		WithCode(CodePayloadTooLarge).
		WithContext("limit_bytes", limit)
}

// NewCapacityError creates an error for an exhausted server-side limit
func NewCapacityError(message string) *AppError {
	return NewAppError(ErrTypeCapacity, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// SessionNotFound reports an unknown or expired dataset session
func SessionNotFound(sessionID string) *AppError {
	return NewNotFoundError("session").
		WithCode(CodeSessionNotFound).
		WithContext("session_id", sessionID)
}

// DatasetNotLoaded reports a query against a session with no accepted upload
func DatasetNotLoaded(sessionID string) *AppError {
	return NewConflictError("no dataset has been uploaded to this session").
		WithCode(CodeDatasetNotLoaded).
		WithContext("session_id", sessionID)
}
