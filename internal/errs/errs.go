// Package errs defines the error-kind taxonomy shared by feck's components.
// Kinds are not Go types but a small closed enum (Kind): every failure
// carries one of a fixed set of kinds plus a human-readable message with
// the relevant counts. Wrap records a github.com/pkg/errors stack trace on
// the wrapped cause (reachable via Unwrap); an *Error itself formats as its
// kind and message only, including under "%+v".
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies the category of a feck failure.
type Kind int

const (
	// InvalidShape covers k < 2, k >= m, or m outside [k+1, 255].
	InvalidShape Kind = iota
	// AllocationFailed covers scratch-allocation failure; named per the
	// spec even though Go's allocator panics rather than erroring in the
	// paths this codec exercises.
	AllocationFailed
	// InvalidBundle covers a magic-byte mismatch.
	InvalidBundle
	// UnsupportedVersion covers a bundle version this codec doesn't know.
	UnsupportedVersion
	// LengthMismatch covers data length not matching the bundle's recorded L.
	LengthMismatch
	// Unrepairable covers more damaged primaries than available repairs.
	Unrepairable
	// SingularSystem covers a non-invertible decode submatrix, e.g. from
	// duplicate block indices.
	SingularSystem
)

func (k Kind) String() string {
	switch k {
	case InvalidShape:
		return "InvalidShape"
	case AllocationFailed:
		return "AllocationFailed"
	case InvalidBundle:
		return "InvalidBundle"
	case UnsupportedVersion:
		return "UnsupportedVersion"
	case LengthMismatch:
		return "LengthMismatch"
	case Unrepairable:
		return "Unrepairable"
	case SingularSystem:
		return "SingularSystem"
	default:
		return "Unknown"
	}
}

// Error is the concrete error value feck returns. Callers that only care
// whether a failure is e.g. Unrepairable should use the Is(err, kind) or
// KindOf(err) helpers below, rather than string-matching Error().
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New builds a feck error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches kind and a contextual message to an underlying error,
// preserving it as the cause (and preserving any pkg/errors stack trace
// already attached to cause).
func Wrap(kind Kind, cause error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// KindOf extracts the Kind of err, if err is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
