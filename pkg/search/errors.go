package search

import (
	"errors"
	"fmt"
)

// Sentinel errors for the search package.
var (
	// ErrTransport indicates the request never produced a usable
	// response (network failure, timeout, connection refused).
	ErrTransport = errors.New("search: transport error")

	// ErrMalformedResponse indicates the response body was not valid
	// JSON for the expected shape.
	ErrMalformedResponse = errors.New("search: malformed response")
)

// APIError represents a non-2xx response from the agent.
// Callers treat it the same as a status:"error" reply.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("search: agent returned HTTP %d: %s", e.StatusCode, e.Body)
}

// IsServerError returns true for 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
