// Package errors carries the typed failures the engine returns. Every Code has
// one Metadata row that decides its HTTP status and what a client may see.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeGuard         Code = "GUARD_VIOLATION"
	CodeNoTier        Code = "NO_APPLICABLE_TIER"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	private  = false
	withInfo = true
)

func meta(status int, public string, details bool) Metadata {
	return Metadata{
		HTTPStatus:     status,
		Retryable:      status >= http.StatusInternalServerError,
		PublicMessage:  public,
		DetailsAllowed: details,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:    meta(http.StatusBadRequest, "validation failed", withInfo),
	CodeUnauthorized:  meta(http.StatusUnauthorized, "authentication required", private),
	CodeForbidden:     meta(http.StatusForbidden, "access denied", private),
	CodeNotFound:      meta(http.StatusNotFound, "resource not found", private),
	CodeConflict:      meta(http.StatusConflict, "conflict detected", private),
	CodeStateConflict: meta(http.StatusUnprocessableEntity, "state transition disallowed", withInfo),
	CodeGuard:         meta(http.StatusConflict, "operation blocked by a business rule", withInfo),
	CodeNoTier:        meta(http.StatusUnprocessableEntity, "no applicable cost tier", withInfo),
	CodeIdempotency:   meta(http.StatusConflict, "idempotency key reused", withInfo),
	CodeInternal:      meta(http.StatusInternalServerError, "operation failed", private),
	CodeDependency:    meta(http.StatusServiceUnavailable, "dependency unavailable", withInfo),
}

// MetadataFor falls back to the internal row for codes it does not know.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	reason  string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Guard builds a guard violation carrying a machine-readable reason code.
func Guard(reason, message string) *Error {
	return &Error{code: CodeGuard, message: message, reason: reason}
}

func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// Reason is empty for everything but guard violations.
func (e *Error) Reason() string {
	if e == nil {
		return ""
	}
	return e.reason
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return string(e.code) + ": " + e.message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is matches another *Error by code so callers can compare against sentinels
// such as New(CodeNotFound, "").
func (e *Error) Is(target error) bool {
	var other *Error
	if e == nil || !stdErrors.As(target, &other) || other == nil {
		return false
	}
	return e.code == other.code && (other.reason == "" || e.reason == other.reason)
}

// As returns the outermost typed error in the chain.
func As(err error) *Error {
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// ReasonOf extracts the guard reason from anywhere in the error chain.
func ReasonOf(err error) string {
	return As(err).Reason()
}
