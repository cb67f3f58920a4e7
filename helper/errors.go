package helper

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for logging and HTTP status mapping, per the
// taxonomy: bad input, not found, conflict, upstream failure, timeout,
// store failure, or an unclassified internal error.
type Kind string

const (
	KindBadInput Kind = "BAD_INPUT"
	KindNotFound Kind = "NOT_FOUND"
	KindConflict Kind = "CONFLICT"
	KindUpstream Kind = "UPSTREAM"
	KindTimeout  Kind = "TIMEOUT"
	KindStore    Kind = "STORE"
	KindInternal Kind = "INTERNAL"
)

// Error is the single wrapped-error type used throughout this module. It
// carries enough context to log usefully and enough classification to map
// to an HTTP status at the API boundary.
type Error struct {
	Context string
	Kind    Kind
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Context
	}
	return fmt.Sprintf("%s: %v", e.Context, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a context string and defaults to KindInternal.
// This mirrors the teacher's NewError(context, err) call sites; use
// NewKindError when the caller already knows the failure's classification.
func NewError(context string, err error) error {
	return &Error{Context: context, Kind: KindInternal, Err: err}
}

// NewKindError wraps err with a context string and an explicit Kind.
func NewKindError(context string, kind Kind, err error) error {
	return &Error{Context: context, Kind: kind, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// errors that were never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps an error's Kind to the HTTP status code named in the error
// taxonomy.
func Status(err error) int {
	switch KindOf(err) {
	case KindBadInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusRequestTimeout
	case KindStore:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
