// Package websearch provides pluggable web-search providers for the
// web-validation fallback. Providers are equivalent and interchangeable; an
// absent API key means "provider disabled," not an error.
package websearch

import (
	"context"
	"net/http"
	"time"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Provider is one web-search source.
type Provider interface {
	// Name identifies the provider for logging and dedup provenance.
	Name() string

	// Search returns results for the query. Callers bound the context.
	Search(ctx context.Context, query string) ([]Result, error)
}

// maxResults caps results requested per provider.
const maxResults = 10

// newHTTPClient builds the shared client shape used by all providers.
// No client-level timeout: per-call context deadlines control cancellation.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        4,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}
