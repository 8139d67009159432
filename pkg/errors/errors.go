// Package errors provides custom error types for the application.
// It defines domain-specific errors with error codes for rendering, storage and API responses.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode string

// Error codes for different error categories
const (
	// General errors (1xxx)
	ErrCodeInternal   ErrorCode = "E1000"
	ErrCodeValidation ErrorCode = "E1001"
	ErrCodeNotFound   ErrorCode = "E1002"
	ErrCodeConflict   ErrorCode = "E1003"

	// Render errors (2xxx)
	ErrCodeRenderParse    ErrorCode = "E2001"
	ErrCodeRenderTarget   ErrorCode = "E2002"
	ErrCodeRenderChart    ErrorCode = "E2003"
	ErrCodeNarrativeEmpty ErrorCode = "E2004"

	// Narrative generation errors (3xxx)
	ErrCodeWriterUnavailable ErrorCode = "E3001"
	ErrCodeWriterTimeout     ErrorCode = "E3002"
	ErrCodeWriterExecution   ErrorCode = "E3003"

	// Report errors (4xxx)
	ErrCodeReportNotFound    ErrorCode = "E4001"
	ErrCodeExportFailed      ErrorCode = "E4002"
	ErrCodeUnsupportedFormat ErrorCode = "E4003"

	// Database errors (5xxx)
	ErrCodeDBConnection ErrorCode = "E5001"
	ErrCodeDBQuery      ErrorCode = "E5002"
	ErrCodeDBMigration  ErrorCode = "E5003"

	// Configuration errors (6xxx)
	ErrCodeConfigNotFound ErrorCode = "E6001"
	ErrCodeConfigInvalid  ErrorCode = "E6002"
	ErrCodeConfigParse    ErrorCode = "E6003"
)

// Exit codes for application startup failures
const (
	// ExitCodeConfigValidation indicates configuration validation failure (e.g., unknown render language)
	ExitCodeConfigValidation = 2
)

// AppError represents an application-level error with code and context
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
	Details any       `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the HTTP status code for the error
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeReportNotFound:
		return http.StatusNotFound
	case ErrCodeValidation, ErrCodeRenderParse, ErrCodeNarrativeEmpty, ErrCodeUnsupportedFormat:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeWriterTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeWriterUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// Common error constructors for convenience

// ErrInternal creates an internal server error
func ErrInternal(message string, err error) *AppError {
	return Wrap(ErrCodeInternal, message, err)
}

// ErrValidation creates a validation error
func ErrValidation(message string) *AppError {
	return New(ErrCodeValidation, message)
}

// ErrNotFound creates a not found error
func ErrNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

// IsAppError checks if an error is, or wraps, an AppError
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// AsAppError attempts to convert an error to AppError, walking the wrap chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
