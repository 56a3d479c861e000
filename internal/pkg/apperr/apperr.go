// Package apperr is the error taxonomy shared by every mutation and read path.
//
// Services return *Error values; handlers translate them to HTTP with Status and
// Body. Anything that is not an *Error is treated as an internal failure.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	EUnauthenticated = "unauthenticated"
	EForbidden       = "forbidden"
	EInvalid         = "invalid"
	ENotFound        = "not found"
	EExternalStore   = "external store failure"
	EConstraint      = "constraint violation"
	EInternal        = "internal error"
)

// Error carries a taxonomy code plus enough context for operators.
//
// Msg is caller-visible only for EInvalid. For EConstraint the caller sees
// ConstraintCode. Op and Err are never written to a response.
type Error struct {
	Code           string
	Msg            string
	Field          string
	ConstraintCode string
	Op             string
	Err            error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Msg != "":
		b.WriteString(e.Msg)
	default:
		b.WriteString(e.Code)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Unauthenticated is returned when no caller identity could be resolved.
func Unauthenticated() *Error { return &Error{Code: EUnauthenticated} }

// Forbidden is returned when the caller does not own the store. It is also
// used when the store does not exist at all.
func Forbidden() *Error { return &Error{Code: EForbidden} }

// Invalid reports a payload field that failed validation. msg is the
// caller-visible reason and must come from the stable reason catalog.
func Invalid(field, msg string) *Error {
	return &Error{Code: EInvalid, Field: field, Msg: msg}
}

// NotFound reports a missing entity of the given kind.
func NotFound(kind string) *Error {
	return &Error{Code: ENotFound, Msg: kind + " not found"}
}

// ExternalStore reports a media store cleanup that did not fully succeed.
func ExternalStore(op string, err error) *Error {
	return &Error{Code: EExternalStore, Op: op, Err: err}
}

// Constraint reports a relational constraint violation, identified by the
// store's own code (a Postgres SQLSTATE).
func Constraint(code, msg string, err error) *Error {
	return &Error{Code: EConstraint, ConstraintCode: code, Msg: msg, Err: err}
}

// Internal wraps an unexpected failure.
func Internal(op string, err error) *Error {
	return &Error{Code: EInternal, Op: op, Err: err}
}

// Wrap keeps taxonomy errors as they are and degrades everything else to
// EInternal under op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(op, err)
}

// CodeOf returns the taxonomy code of err, EInternal for foreign errors and
// the empty string for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EInternal
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool { return CodeOf(err) == code }

var statusByCode = map[string]int{
	EUnauthenticated: http.StatusUnauthorized,
	EForbidden:       http.StatusForbidden,
	EInvalid:         http.StatusBadRequest,
	ENotFound:        http.StatusNotFound,
	EExternalStore:   http.StatusInternalServerError,
	EConstraint:      http.StatusBadRequest,
	EInternal:        http.StatusInternalServerError,
}

// Status maps err to its HTTP status code.
func Status(err error) int {
	if s, ok := statusByCode[CodeOf(err)]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// Body returns the plain-text response body for err. Internal identifiers
// and wrapped causes are never included.
func Body(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "Internal error"
	}
	switch e.Code {
	case EUnauthenticated:
		return "Unauthenticated"
	case EForbidden:
		return "Forbidden"
	case EInvalid:
		return e.Msg
	case ENotFound:
		return "Not found"
	case EExternalStore:
		return "External media store failure"
	case EConstraint:
		return e.ConstraintCode
	default:
		return "Internal error"
	}
}

// Expected reports whether err is part of normal request handling and does
// not need to be logged as a failure.
func Expected(err error) bool {
	switch CodeOf(err) {
	case EUnauthenticated, EForbidden, EInvalid, ENotFound, EConstraint:
		return true
	}
	return false
}

// Fieldf is a small helper for the "<field> is invalid" reason.
func Fieldf(field, label string) *Error {
	return Invalid(field, fmt.Sprintf("%s is invalid", label))
}
