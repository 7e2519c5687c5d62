// Package apperr defines the error taxonomy shared by services and the HTTP
// boundary. Services return *Error values (or wrap the sentinels below) and the
// echo error handler translates them to status codes and machine-readable
// codes.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is the machine-readable error code returned to API clients.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeTooLarge        Code = "PAYLOAD_TOO_LARGE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
)

// Sentinels returned by repositories. They carry no HTTP semantics on their
// own; From maps them.
var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// Error is a classified application error.
type Error struct {
	Status  int         `json:"-"`
	Code    Code        `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two *Error values by code so callers can write
// errors.Is(err, apperr.Forbidden("")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func Validation(message string, details interface{}) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: message, Details: details}
}

func Unauthenticated(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeUnauthenticated, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Status: http.StatusForbidden, Code: CodeForbidden, Message: message}
}

// NotFound builds a 404 for the named resource, e.g. NotFound("patient").
func NotFound(resource string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: resource + " not found"}
}

func Conflict(message string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: message}
}

func RateLimited(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeRateLimited, Message: message}
}

func TooLarge(limit int64) *Error {
	return &Error{Status: http.StatusRequestEntityTooLarge, Code: CodeTooLarge, Message: fmt.Sprintf("request body exceeds %d bytes", limit)}
}

func Timeout() *Error {
	return &Error{Status: http.StatusGatewayTimeout, Code: CodeTimeout, Message: "request processing exceeded the allowed time"}
}

// Internal wraps an unexpected error. The wrapped error is logged by the HTTP
// boundary and never sent to the client.
func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal server error", Err: err}
}

// From classifies any error. Already classified errors pass through,
// repository sentinels are mapped, everything else becomes INTERNAL.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Status: http.StatusGatewayTimeout, Code: CodeTimeout, Message: "request processing exceeded the allowed time", Err: err}
	case errors.Is(err, ErrNotFound):
		return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: "resource not found", Err: err}
	case errors.Is(err, ErrDuplicate):
		return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: "resource already exists", Err: err}
	case errors.Is(err, ErrInvalidReference):
		return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: "referenced record does not exist", Err: err}
	}
	return Internal(err)
}
