// Package apperr defines the error taxonomy shared by all services:
// validation, not-found, conflict, and database errors, each with a stable
// HTTP status mapping. Raw SQL errors are normalized via FromPG so that
// constraint violations surface as the right kind instead of a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/lib/pq"
)

// Kind classifies an error for HTTP mapping and handling policy.
type Kind int

const (
	KindValidation Kind = iota // malformed or missing input
	KindNotFound               // missing or not-owned entity
	KindConflict               // duplicate where uniqueness is required
	KindDatabase               // wrapped SQL error
)

// Error is a classified application error. Msg is safe to show to callers
// for validation/not-found/conflict; database errors are sanitized at the
// HTTP layer.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Validation returns a validation error (HTTP 400).
func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error (HTTP 404).
func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Conflict returns a conflict error (HTTP 409).
func Conflict(format string, args ...interface{}) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// Database wraps an underlying SQL error (HTTP 500).
func Database(err error, msg string) error {
	return &Error{Kind: KindDatabase, Msg: msg, Err: err}
}

// Postgres SQLSTATE codes normalized into the taxonomy.
const (
	pgUniqueViolation  = "23505"
	pgFKViolation      = "23503"
	pgNotNullViolation = "23502"
)

// FromPG maps a raw database error into the taxonomy. Unique violations
// become conflicts, FK violations become not-found (the referenced row is
// missing), not-null violations become validation errors; everything else
// is a wrapped database error.
func FromPG(err error, msg string) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pgUniqueViolation:
			return &Error{Kind: KindConflict, Msg: msg, Err: err}
		case pgFKViolation:
			return &Error{Kind: KindNotFound, Msg: msg, Err: err}
		case pgNotNullViolation:
			return &Error{Kind: KindValidation, Msg: msg, Err: err}
		}
	}
	return &Error{Kind: KindDatabase, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindDatabase for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDatabase
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return is(err, KindValidation) }

// IsConflict reports whether err is a conflict error.
func IsConflict(err error) bool { return is(err, KindConflict) }

func is(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// HTTPStatus maps an error to its HTTP status code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
