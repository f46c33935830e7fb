// Package domainerrors provides coded domain errors that services return and
// transport layers translate to HTTP statuses.
//
// Stores return sentinel errors (pkg/platform/sentinel) for infrastructure
// facts; services translate those into coded errors here so handlers never
// inspect store internals.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport translation and callers that
// branch on failure kind.
type Code string

const (
	// CodeNotFound: a referenced entity (credential, user, firm) does not exist.
	CodeNotFound Code = "not_found"
	// CodeBadRequest: missing or malformed required input.
	CodeBadRequest Code = "bad_request"
	// CodeConflict: the operation collides with existing state.
	CodeConflict Code = "conflict"
	// CodeInsufficientData: the computation cannot produce a meaningful result
	// from the available data. Mostly handled by returning partial results;
	// surfaced as an error only from batch reporting.
	CodeInsufficientData Code = "insufficient_data"
	// CodeInvariantViolation: an aggregate rejected a state transition.
	CodeInvariantViolation Code = "invariant_violation"
	// CodeInternal: unexpected infrastructure failure.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. It wraps an optional cause for errors.Is
// chains while exposing a stable code and caller-facing message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
// A nil err returns nil so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the first coded error in the chain, or
// CodeInternal when the error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its transport status. Handlers own the JSON
// envelope; this mapping keeps it consistent across modules.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeBadRequest:
		return http.StatusBadRequest
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeInsufficientData:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
