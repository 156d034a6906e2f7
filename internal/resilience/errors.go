// Package resilience provides retry and circuit breaker patterns for the
// generation and search collaborators.
package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"
)

// GenerationError marks a failure of the text-generation collaborator for a
// single item: a provider error, a timeout, or structurally malformed
// output. Item-level consumers drop the item and continue.
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return "generation failed in " + e.Stage + ": " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NewGenerationError wraps a collaborator failure with the stage it hit.
func NewGenerationError(stage string, err error) *GenerationError {
	return &GenerationError{Stage: stage, Err: err}
}

// SearchError marks a failure of the search collaborator for one query.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return "search failed for " + e.Query + ": " + e.Err.Error()
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError wraps a search provider failure with the query that hit it.
func NewSearchError(query string, err error) *SearchError {
	return &SearchError{Query: query, Err: err}
}

// TransientError wraps an error that is safe to retry (e.g., 429, 5xx,
// network timeout).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient error patterns (network
// timeouts, connection resets, DNS failures, provider rate limits).
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for wrapped errors from HTTP clients.
	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"status 429",
		"status 500",
		"status 502",
		"status 503",
		"overloaded",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the HTTP status code indicates a
// transient server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
