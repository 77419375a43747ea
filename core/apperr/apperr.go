// Package apperr holds the error kinds services return to the HTTP layer.
package apperr

import (
	"github.com/cockroachdb/errors"
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	// KindInternal is any unexpected or storage failure.
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Error is a failure whose message is safe to show to the client.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) error {
	return errors.WithStack(&Error{Kind: kind, Msg: msg})
}

func BadRequest(msg string) error   { return newError(KindBadRequest, msg) }
func Unauthorized(msg string) error { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) error    { return newError(KindForbidden, msg) }
func NotFound(msg string) error     { return newError(KindNotFound, msg) }
func Conflict(msg string) error     { return newError(KindConflict, msg) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the client-facing message, or fallback for internal errors.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return fallback
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
