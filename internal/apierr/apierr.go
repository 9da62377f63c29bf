// Package apierr defines the single error shape every API failure is normalized into.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeNetwork          = "NETWORK_ERROR"
	CodeTimeout          = "TIMEOUT"
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeNotImplemented   = "NOT_IMPLEMENTED"
	CodeUserIDRequired   = "USER_ID_REQUIRED"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeInternal         = "INTERNAL_ERROR"
	CodeUnknown          = "UNKNOWN_ERROR"
)

// Sentinel errors. errors.Is matches any *Error with the same code.
var (
	ErrSessionExpired   = &Error{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: "session expired, please log in again"}
	ErrNotImplemented   = &Error{Code: CodeNotImplemented, Message: "not implemented"}
	ErrNotAuthenticated = &Error{Code: CodeNotAuthenticated, Message: "user not authenticated"}
	ErrUserIDRequired   = &Error{Code: CodeUserIDRequired, Message: "user id is required"}
)

// Error is a normalized API failure.
type Error struct {
	Status  int               `json:"status,omitempty"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details any               `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New builds an error with the given code and message.
func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

// Wrap builds an error that keeps cause reachable through errors.Unwrap.
func Wrap(cause error, status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message, cause: cause}
}

// NotImplemented returns a not-implemented error naming the operation.
func NotImplemented(op string) *Error {
	return &Error{Code: CodeNotImplemented, Message: op + " not implemented"}
}

// SessionExpired wraps the cause of an unrecoverable authentication failure.
func SessionExpired(cause error) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthenticated,
		Message: ErrSessionExpired.Message,
		cause:   cause,
	}
}

// CodeForStatus maps an HTTP status to a code when the backend gave none.
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return CodeInvalidInput
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusConflict:
		return CodeConflict
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return CodeTimeout
	case status >= 500:
		return CodeInternal
	default:
		return CodeUnknown
	}
}

// CodeOf returns the code of the normalized error in err's chain, or "".
func CodeOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

// StatusOf returns the HTTP status of the normalized error in err's chain, or 0.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// FieldsOf returns per-field validation messages, if any.
func FieldsOf(err error) map[string]string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}
