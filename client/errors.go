package client

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnauthenticated means the credential was missing or rejected.
var ErrUnauthenticated = errors.New("arcade: unauthenticated")

// TransportError wraps a failure to reach the server at all.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("arcade: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError represents an unexpected non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("arcade: HTTP %d: %s", e.StatusCode, e.Body)
}

// IsRetryable returns true for server errors (5xx).
func (e *HTTPError) IsRetryable() bool {
	return e.StatusCode >= 500
}

func (e *HTTPError) IsNotFound() bool {
	return e.StatusCode == 404
}

// ValidationError is a 422 response: field name to messages.
type ValidationError struct {
	Fields map[string][]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "arcade: validation failed: " + strings.Join(parts, "; ")
}
