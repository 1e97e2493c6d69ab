package domain

import (
	"errors"
	"net/http"
)

// Error codes classifying resource-client failures.
const (
	CodeNetwork    = 1 // transport failure, no response received
	CodeValidation = 2 // 4xx with field-level messages
	CodeServer     = 3 // 5xx
	CodeNotFound   = 4 // 404 on a specific entity
)

// AppError represents a classified resource error with a code, message,
// optional field-level validation details, and an optional wrapped error.
type AppError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error for use with errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error classes.
//
// To check whether an error matches one of these categories, use the
// corresponding helper function (IsNetwork, IsValidation, etc.) instead of
// errors.Is. The helpers use errors.As with error-code comparison, so they
// match any *AppError carrying the same code, including freshly constructed
// instances from NewAppError and wrapped errors, whereas errors.Is only
// matches by pointer identity with the specific sentinel.
var (
	ErrNetwork    = &AppError{Code: CodeNetwork, Message: "network error"}
	ErrValidation = &AppError{Code: CodeValidation, Message: "validation error"}
	ErrServer     = &AppError{Code: CodeServer, Message: "server error"}
	ErrNotFound   = &AppError{Code: CodeNotFound, Message: "not found"}
)

// NewAppError creates a new AppError with the given code, message, and wrapped error.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a validation error carrying field-level messages.
func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Fields:  fields,
	}
}

// IsNetwork reports whether err is or wraps an AppError with CodeNetwork.
func IsNetwork(err error) bool {
	return hasCode(err, CodeNetwork)
}

// IsValidation reports whether err is or wraps an AppError with CodeValidation.
func IsValidation(err error) bool {
	return hasCode(err, CodeValidation)
}

// IsServer reports whether err is or wraps an AppError with CodeServer.
func IsServer(err error) bool {
	return hasCode(err, CodeServer)
}

// IsNotFound reports whether err is or wraps an AppError with CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// Retryable reports whether the error class is eligible for caller-initiated
// retry. Network and server errors are transient; validation and not-found
// errors are not fixed by retrying.
func Retryable(err error) bool {
	return IsNetwork(err) || IsServer(err)
}

// hasCode checks whether err is or wraps an *AppError with the given code.
func hasCode(err error, code int) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// HTTPStatusCode maps an error to an HTTP status code.
// If the error is an *AppError, the code is mapped; otherwise
// http.StatusInternalServerError is returned.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if err != nil && errors.As(err, &appErr) {
		switch appErr.Code {
		case CodeValidation:
			return http.StatusBadRequest
		case CodeNotFound:
			return http.StatusNotFound
		case CodeNetwork:
			return http.StatusBadGateway
		case CodeServer:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}
