// Package status implements the core's closed failure taxonomy: every
// operation that can fail locally (a tile fetch, a layer open) reports one
// of a fixed set of FailureKinds rather than an arbitrary error.
package status

import (
	"context"
	"errors"
	"fmt"
)

// FailureKind enumerates the ways a core operation can fail. The set is
// closed: callers switch on it exhaustively rather than testing error strings.
type FailureKind int

const (
	OK FailureKind = iota
	ResourceUnavailable
	ServiceUnavailable
	ConfigurationError
	AssertionFailure
	OperationCanceled
	GeneralError
)

func (k FailureKind) String() string {
	switch k {
	case OK:
		return "OK"
	case ResourceUnavailable:
		return "ResourceUnavailable"
	case ServiceUnavailable:
		return "ServiceUnavailable"
	case ConfigurationError:
		return "ConfigurationError"
	case AssertionFailure:
		return "AssertionFailure"
	case OperationCanceled:
		return "OperationCanceled"
	case GeneralError:
		return "GeneralError"
	default:
		return "Unknown"
	}
}

// Status is a general-purpose result code with an optional message. The
// zero value is OK.
type Status struct {
	Kind    FailureKind
	Message string
}

// OKStatus is the canonical successful status.
var OKStatus = Status{Kind: OK}

// Error reports a status with the given kind.
func Error(kind FailureKind) Status {
	return Status{Kind: kind}
}

// Errorf reports a status with the given kind and a formatted message.
func Errorf(kind FailureKind, format string, args ...any) Status {
	return Status{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Ok reports whether the status represents success.
func (s Status) Ok() bool { return s.Kind == OK }

// Failed reports whether the status represents failure.
func (s Status) Failed() bool { return !s.Ok() }

// Error implements the error interface so a Status can be returned wherever
// an error is expected ("<kind>" or "<kind>: <message>", per the wire rule).
func (s Status) Error() string {
	if s.Message == "" {
		return s.Kind.String()
	}
	return fmt.Sprintf("%s: %s", s.Kind, s.Message)
}

// Is supports errors.Is(err, status.Error(status.ResourceUnavailable)) style
// comparisons: a Status matches any Status target with the same Kind,
// whatever the two messages are.
func (s Status) Is(target error) bool {
	other, ok := target.(Status)
	if !ok {
		return false
	}
	return s.Kind == other.Kind
}

// FromError converts a plain error into a status: Status values pass through
// unchanged, context.Canceled becomes OperationCanceled, and any other error
// becomes GeneralError.
func FromError(err error) Status {
	if err == nil {
		return OKStatus
	}
	if s, ok := err.(Status); ok {
		return s
	}
	if errors.Is(err, context.Canceled) {
		return Errorf(OperationCanceled, "%v", err)
	}
	return Errorf(GeneralError, "%v", err)
}

// Result pairs a value with the Status describing how it was produced. The
// zero Result holds the zero value of T and the zero (OK) Status, so it
// reports Ok(); construct results with Ok or Fail.
type Result[T any] struct {
	Value  T
	Status Status
}

// Ok builds a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: OKStatus}
}

// Fail builds a failed Result carrying the zero value of T.
func Fail[T any](s Status) Result[T] {
	return Result[T]{Status: s}
}

func (r Result[T]) Ok() bool { return r.Status.Ok() }

func (r Result[T]) Failed() bool { return r.Status.Failed() }
