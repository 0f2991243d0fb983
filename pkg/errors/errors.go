package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeDuplicate     ErrorType = "duplicate"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeInvalidStatus ErrorType = "invalid_status"
	ErrorTypeRateLimit     ErrorType = "rate_limit"
	ErrorTypeBadRequest    ErrorType = "bad_request"
	ErrorTypeInternal      ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType         `json:"type"`
	Message    string            `json:"message"`
	StatusCode int               `json:"status_code"`
	Internal   error             `json:"-"`
	Fields     map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// NewValidationError creates a validation error carrying one message per field.
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Fields:     fields,
	}
}

// NewDuplicateError creates an error for a storage uniqueness violation
func NewDuplicateError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeDuplicate,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Internal:   internal,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInvalidStatusError creates an error for an unknown submission status
func NewInvalidStatusError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeInvalidStatus,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewBadRequestError creates an error for a malformed request
func NewBadRequestError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeBadRequest,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Internal:   internal,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewRateLimitError creates a new rate limit error
func NewRateLimitError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		StatusCode: http.StatusTooManyRequests,
	}
}

// AsAppError extracts an *AppError from err. Anything else is reported as an
// internal error so callers always get a renderable value.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewInternalError("Internal Server Error", err)
}

// IsType reports whether err is an *AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Type == t
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// NewErrorResponse builds the response body for appErr. The internal cause is
// only exposed when exposeInternal is set (non-production builds).
func NewErrorResponse(appErr *AppError, exposeInternal bool) ErrorResponse {
	resp := ErrorResponse{
		Success: false,
		Message: appErr.Message,
		Errors:  appErr.Fields,
	}
	if exposeInternal && appErr.Internal != nil {
		resp.Error = appErr.Internal.Error()
	}
	return resp
}
