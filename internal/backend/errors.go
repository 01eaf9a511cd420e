package backend

import (
	"errors"
	"fmt"
)

// Backend client errors.
//
// Design decision: We define specific sentinel errors rather than wrapping
// everything generically. The session converts every one of them into a
// connectivity record, but logs and tests need to tell a refused connection
// from a 500 or from a body that is not JSON.
var (
	// ErrInvalidBaseURL is returned when the backend URL is not an absolute
	// http or https URL.
	ErrInvalidBaseURL = errors.New("invalid backend URL: expected http(s)://host[:port]")

	// ErrInvalidProxyAddress is returned when the SOCKS5 proxy address format
	// is invalid. Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrRequestFailed is returned when the request could not be sent or
	// the connection dropped before a response arrived.
	ErrRequestFailed = errors.New("backend request failed")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("backend returned a non-success HTTP status")

	// ErrMalformedResponse is returned when a 2xx body cannot be decoded.
	ErrMalformedResponse = errors.New("backend returned a malformed response")

	// ErrEmptyMessage is returned by Chat for a blank message.
	ErrEmptyMessage = errors.New("chat message is empty")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	// Endpoint is the path that was called, e.g. /predict.
	Endpoint string

	// StatusCode is the HTTP status code.
	StatusCode int

	// Body is the beginning of the response body, for logs.
	Body string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap makes errors.Is(err, ErrUnexpectedStatus) true.
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}
