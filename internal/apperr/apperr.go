// Package apperr implements the error taxonomy from spec.md §7: every
// fallible core operation returns one of these typed errors rather than
// panicking. Generalizes the teacher's internal/models.AppError (a
// single struct with a Code/Status pair) into a small set of sentinel
// kinds usable with errors.Is/errors.As, since this module's errors
// originate across many adapters rather than one HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is one taxonomy entry from spec.md §7.
type Kind string

const (
	// NotConfigured: an adapter was asked to do work before being given
	// a host/credentials. Non-fatal, non-retried.
	NotConfigured Kind = "not_configured"
	// NotConnected: transient transport state; the client may reconnect
	// on the next call.
	NotConnected Kind = "not_connected"
	// Timeout: request-level; no internal retry.
	Timeout Kind = "timeout"
	// ProtocolMalformed: unparseable XML or unexpected element; logged,
	// single line discarded, connection retained.
	ProtocolMalformed Kind = "protocol_malformed"
	// Unsupported: e.g. get_image on an adapter without image support.
	Unsupported Kind = "unsupported"
	// NotFound: zone_id without a matching adapter.
	NotFound Kind = "not_found"
	// Fatal: adapter crashed past its restart budget.
	Fatal Kind = "fatal"
)

// HTTPStatus maps a Kind to the 4xx/5xx-equivalent spec.md §7 names,
// for internal/httpapi to use without httpapi needing its own copy of
// this table.
func (k Kind) HTTPStatus() int {
	switch k {
	case NotConfigured, Unsupported:
		return 400
	case NotFound:
		return 404
	case NotConnected, Timeout:
		return 503
	case ProtocolMalformed, Fatal:
		return 500
	default:
		return 500
	}
}

// Error is a typed, wrapped error carrying a Kind plus a human message
// and an optional cause. Its Is method matches its Kind's sentinel under
// errors.Is; Unwrap returns Cause; errors.As recovers the *Error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel for e.Kind. The sentinels
// are unexported, so callers outside this package test a Kind with the
// package-level Is, e.g. apperr.Is(err, apperr.NotFound).
func (e *Error) Is(target error) bool {
	k, ok := target.(sentinel)
	return ok && k.kind == e.Kind
}

// sentinel lets the Kind constants double as comparable error values for
// errors.Is, without exporting a concrete *Error for each one.
type sentinel struct{ kind Kind }

func (s sentinel) Error() string { return string(s.kind) }

// One sentinel per Kind; the package-level Is passes these to errors.Is.
var (
	errNotConfigured      = sentinel{NotConfigured}
	errNotConnected       = sentinel{NotConnected}
	errTimeout            = sentinel{Timeout}
	errProtocolMalformed  = sentinel{ProtocolMalformed}
	errUnsupported        = sentinel{Unsupported}
	errNotFound           = sentinel{NotFound}
	errFatal              = sentinel{Fatal}
)

// New builds an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that wraps cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err (or something it wraps) is of the given Kind.
func Is(err error, kind Kind) bool {
	switch kind {
	case NotConfigured:
		return errors.Is(err, errNotConfigured)
	case NotConnected:
		return errors.Is(err, errNotConnected)
	case Timeout:
		return errors.Is(err, errTimeout)
	case ProtocolMalformed:
		return errors.Is(err, errProtocolMalformed)
	case Unsupported:
		return errors.Is(err, errUnsupported)
	case NotFound:
		return errors.Is(err, errNotFound)
	case Fatal:
		return errors.Is(err, errFatal)
	default:
		return false
	}
}
