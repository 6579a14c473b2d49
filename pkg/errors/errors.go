package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Postgres SQLSTATE codes surfaced to callers.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrUnsatisfiable      = New("SCHEDULE_UNSATISFIABLE", http.StatusUnprocessableEntity, "unable to build a conflict-free timetable")
)

// ErrCacheMiss signals that a cache key is absent.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// FromStore translates a persistence error for resource. Missing rows become NOT_FOUND,
// unique violations CONFLICT and dangling references VALIDATION_ERROR. Anything else is
// INTERNAL with "failed to <action> <resource>".
func FromStore(err error, resource, action string) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Wrap(err, ErrNotFound.Code, ErrNotFound.Status, resource+" not found")
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqUniqueViolation:
			return Wrap(err, ErrConflict.Code, ErrConflict.Status, resource+" already exists")
		case pqForeignKeyViolation:
			return Wrap(err, ErrValidation.Code, ErrValidation.Status, resource+" references a missing record")
		}
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, fmt.Sprintf("failed to %s %s", action, resource))
}
