package protocol

import (
	"errors"
	"fmt"
)

// Sentinel errors for the wire layer. ErrAbandoned is the one callers
// branch on: it marks a page the server refuses to serve (403) or does
// not have (404), which skips the page without failing the hunt.
var (
	// ErrAbandoned is returned for 403 and 404 responses. The page is
	// dropped and the crawl moves on.
	ErrAbandoned = errors.New("page abandoned: server returned 403 or 404")

	// ErrEmptyResponse is returned when an exchange completes without a
	// single byte arriving. The server always answers; silence means
	// something between us and it is broken.
	ErrEmptyResponse = errors.New("empty response from server")

	// ErrMalformedResponse is returned when response text cannot be
	// split into a status line, headers, and body.
	ErrMalformedResponse = errors.New("malformed http response")

	// ErrMalformedChunk is returned when a chunk-size line is not
	// valid hexadecimal or chunk framing is broken.
	ErrMalformedChunk = errors.New("malformed chunk")

	// ErrTruncatedChunk is returned when a chunked body ends before
	// its declared size.
	ErrTruncatedChunk = errors.New("truncated chunked body")

	// ErrTooManyRetries is returned when a 503 retry cap is configured
	// and exhausted.
	ErrTooManyRetries = errors.New("throttle retry cap exceeded")

	// ErrTooManyRedirects is returned when a redirect cap is configured
	// and exhausted.
	ErrTooManyRedirects = errors.New("redirect cap exceeded")

	// ErrMissingLocation is returned for a 302 response that carries no
	// Location header to follow.
	ErrMissingLocation = errors.New("redirect without Location header")
)

// StatusError reports a status code outside the policy table: not a
// success, not a redirect, not an abandon, not a throttle. These codes
// mean the conversation with the server has gone somewhere the crawler
// does not understand, so the hunt fails loudly instead of guessing.
type StatusError struct {
	// Code is the offending status code.
	Code int

	// Path is the request path that drew it.
	Path string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.Code, e.Path)
}
