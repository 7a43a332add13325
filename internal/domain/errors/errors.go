package errors

import (
	"net/http"

	"dailypush/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Schedule-related errors
	ErrScheduleNotFound = NewBaseError(
		http.StatusNotFound,
		"SCHEDULE_NOT_FOUND",
		"no schedule exists for this timezone",
		"",
	)

	ErrUnknownTimezone = NewBaseError(
		http.StatusBadRequest,
		"UNKNOWN_TIMEZONE",
		"timezone is not recognized or not managed",
		"",
	)

	ErrSchedulePaused = NewBaseError(
		http.StatusConflict,
		"SCHEDULE_PAUSED",
		"schedule is paused and cannot run",
		"",
	)

	ErrTriggerFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRIGGER_FAILED",
		"manual trigger did not complete",
		"",
	)

	// Content-related errors
	ErrNoActiveContent = NewBaseError(
		http.StatusNotFound,
		"NO_ACTIVE_CONTENT",
		"no active content is available for selection",
		"",
	)

	// Authentication-related errors
	ErrInvalidToken = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_TOKEN",
		"token is invalid or expired",
		"",
	)

	ErrMissingToken = NewBaseError(
		http.StatusUnauthorized,
		"MISSING_TOKEN",
		"authorization token is required",
		"",
	)

	// Request-related errors
	ErrInvalidRequest = NewBaseError(
		http.StatusBadRequest,
		"INVALID_REQUEST",
		"request payload failed validation",
		"",
	)

	// System-related errors
	ErrInternalServer = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_SERVER_ERROR",
		"an internal error occurred",
		"",
	)
)
