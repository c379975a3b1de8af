// Package derrors defines the closed set of coded errors the housing domain
// returns across layer boundaries. Services translate infrastructure
// sentinels (pkg/sentinel) into these codes at the operation boundary;
// transports map codes onto status lines. Callers dispatch on the code, never
// on the concrete error type.
package derrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of domain failure.
type Code string

const (
	// CodeUnauthorized covers "not permitted" failures. Always user-visible,
	// never retried.
	CodeUnauthorized Code = "unauthorized"
	// CodeNotFound covers expected absence. Callers treat it as a branch
	// (initialize fresh state), not as a user-facing error.
	CodeNotFound Code = "not_found"
	// CodeValidation covers local rule failures reported before any network
	// call is made.
	CodeValidation Code = "validation"
	// CodeConflict covers operations rejected because of concurrent or
	// duplicate state (in-flight guard, duplicate names).
	CodeConflict Code = "conflict"
	// CodeUnexpectedResult covers remote calls that returned a falsy success
	// indicator where success was expected. Distinct from a transport error.
	CodeUnexpectedResult Code = "unexpected_result"
	// CodeInternal covers everything else.
	CodeInternal Code = "internal"
)

// Error is a coded domain error. Reason optionally carries a
// machine-readable rejection reason for metrics and tests.
type Error struct {
	Code    Code
	Reason  string
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

// New creates a coded error with a user-facing message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewReason creates a coded error carrying a machine-readable reason.
func NewReason(code Code, reason, message string) *Error {
	return &Error{Code: code, Reason: reason, Message: message}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for errors
// that did not originate in this package.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ReasonOf extracts the machine-readable reason, if any.
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return ""
}
