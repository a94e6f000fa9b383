package lookup

import (
	"context"
	"errors"
	"fmt"

	"github.com/NERVsystems/restaurantmcp/pkg/osm"
)

// Kind classifies a failed lookup.
type Kind string

const (
	// KindInvalidArgument means the caller supplied malformed or out-of-range input.
	KindInvalidArgument Kind = "InvalidArgument"
	// KindNotFound means the query legitimately has no match.
	KindNotFound Kind = "NotFound"
	// KindUpstreamUnavailable is a transient network or service failure; safe to retry.
	KindUpstreamUnavailable Kind = "UpstreamUnavailable"
	// KindUpstreamDataError means the service answered with data of the wrong shape.
	KindUpstreamDataError Kind = "UpstreamDataError"
	// KindUnknownTool means the caller asked the transport for a tool that does not exist.
	KindUnknownTool Kind = "UnknownTool"
	// KindInternal covers anything else.
	KindInternal Kind = "Internal"
)

// Error is the error type returned by every lookup operation.
type Error struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "find_by_address"
	Message string // human-readable, safe to show to callers
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindInternal when err did not come
// from this package.
func KindOf(err error) Kind {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr.Kind
	}
	return KindInternal
}

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func invalidArgument(op, format string, args ...any) *Error {
	return Errorf(KindInvalidArgument, op, format, args...)
}

func notFound(op, format string, args ...any) *Error {
	return Errorf(KindNotFound, op, format, args...)
}

// upstreamError normalizes a failure from the OSM client.
func upstreamError(op string, err error) *Error {
	var lerr *Error
	if errors.As(err, &lerr) {
		return lerr
	}

	var decodeErr *osm.DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{Kind: KindUpstreamDataError, Op: op, Message: decodeErr.Error(), Err: err}
	}

	var apiErr *osm.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindUpstreamUnavailable, Op: op, Message: apiErr.Error(), Err: err}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindUpstreamUnavailable, Op: op, Message: "request timed out or was canceled", Err: err}
	}

	return &Error{Kind: KindUpstreamUnavailable, Op: op, Message: "upstream request failed: " + err.Error(), Err: err}
}
