package service

import (
	"errors"
	"fmt"
)

// Kind classifies service failures so the HTTP layer can pick a status code
// without string-matching.
type Kind int

const (
	KindUnknown Kind = iota
	KindBadRequest
	KindUnauthorized
	KindServerMisconfigured
	KindStorage
)

// Error carries a failure kind plus a caller-facing message. Storage errors
// keep the underlying cause for diagnostics; it is attached, never swallowed.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest marks invalid client input, recoverable by fixing the request.
func BadRequest(msg string) error {
	return &Error{Kind: KindBadRequest, Msg: msg}
}

// Unauthorized marks a bad or missing credential.
func Unauthorized() error {
	return &Error{Kind: KindUnauthorized, Msg: "Unauthorized"}
}

// ServerMisconfigured marks a missing required server secret. This is an
// operator error, surfaced as 5xx rather than blamed on the caller.
func ServerMisconfigured(msg string) error {
	return &Error{Kind: KindServerMisconfigured, Msg: msg}
}

// StorageError wraps any persistence failure with diagnostic detail.
func StorageError(msg string, err error) error {
	return &Error{Kind: KindStorage, Msg: msg, Err: err}
}

// KindOf extracts the failure kind, or KindUnknown for untyped errors.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}
