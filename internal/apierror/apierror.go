// Package apierror provides the domain error taxonomy and the standardized
// error response structures for the API. All errors returned to clients go
// through this package so internal details (SQL errors, stack traces) never leak.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// Kind classifies a domain failure.
type Kind int

const (
	// KindInvalidInput: malformed or out-of-range caller-supplied values.
	KindInvalidInput Kind = iota + 1
	// KindInvalidState: a precondition does not hold given current ledger state.
	KindInvalidState
	// KindNotFound: the entity is absent or not owned by the tenant.
	KindNotFound
	// KindForbidden: the actor's role may not perform this change.
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidState:
		return "invalid_state"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// DomainError carries a user-facing message meant to be shown verbatim.
type DomainError struct {
	Kind Kind
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

func InvalidInput(msg string) error { return &DomainError{Kind: KindInvalidInput, Msg: msg} }
func InvalidState(msg string) error { return &DomainError{Kind: KindInvalidState, Msg: msg} }
func NotFound(msg string) error     { return &DomainError{Kind: KindNotFound, Msg: msg} }
func Forbidden(msg string) error    { return &DomainError{Kind: KindForbidden, Msg: msg} }

func InvalidInputf(format string, args ...any) error {
	return InvalidInput(fmt.Sprintf(format, args...))
}

func InvalidStatef(format string, args ...any) error {
	return InvalidState(fmt.Sprintf(format, args...))
}

func NotFoundf(format string, args ...any) error {
	return NotFound(fmt.Sprintf(format, args...))
}

// KindOf returns the domain kind of err, or 0 for infrastructure errors.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

// Is reports whether err is a domain error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusOf maps an error to its HTTP status. Anything outside the domain
// taxonomy is an infrastructure failure.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindInvalidState:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
