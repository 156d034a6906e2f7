// Package search provides the evidence-retrieval collaborator: a Searcher
// interface with provider adapters, rate limiting, and a fallback chain.
package search

import (
	"context"

	"github.com/sells-group/factcheck/internal/model"
)

// Searcher executes one web search query and returns evidence snippets.
// An empty result list is a valid outcome, not an error.
type Searcher interface {
	// Name identifies the provider for logging and fallback diagnostics.
	Name() string
	// Search runs a single query. Implementations honor ctx for
	// cancellation and per-call timeouts.
	Search(ctx context.Context, query string) ([]model.Evidence, error)
}
