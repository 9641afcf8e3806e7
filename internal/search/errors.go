// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/datahackshaw/sourcesearch/pkg/types"
)

// Errors returned by the search pipeline. Source failures are recoverable:
// the orchestrator reports them and moves on. Only caller mistakes
// (ErrEmptyQuery, ErrNoSources) fail a search outright.
var (
	// ErrEmptyQuery indicates a blank or whitespace-only query. No
	// network request is made in this case.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrNoSources indicates the orchestrator was given nothing to query.
	ErrNoSources = errors.New("no search sources configured")

	// ErrRateLimited indicates a source kept returning HTTP 429 after
	// backoff retries.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNotFound indicates a lookup for a specific paper matched nothing.
	ErrNotFound = errors.New("paper not found")
)

// StatusError reports an unexpected HTTP status from a source API.
type StatusError struct {
	Source     types.Source
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned HTTP %d", e.Source.DisplayName(), e.StatusCode)
}

// IsRateLimited reports whether the error indicates HTTP 429.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsNotFound reports whether the error indicates a missing paper.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusNotFound
	}
	return false
}
