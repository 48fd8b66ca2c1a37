package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/tcodefinder/internal/cache"
	"github.com/Aman-CERP/tcodefinder/internal/llm"
)

const expansionSystemPrompt = `You expand ERP transaction-code search queries.
Given a short user query, append domain synonyms, spelled-out abbreviations,
and closely related terminology that would help retrieve matching transaction
codes. Keep the original words. Return only the expanded query text, on a
single line, with no commentary.`

// Expander rewrites a query with domain synonyms via the reasoning model.
// Expansion is cached long-term and always falls back to the original query.
type Expander struct {
	client llm.Client
	cache  cache.Store
	ttl    time.Duration
	budget time.Duration
	logger *slog.Logger
}

// NewExpander builds an expander. A nil client disables expansion; Expand
// then returns the query unchanged.
func NewExpander(client llm.Client, store cache.Store, ttl, budget time.Duration, logger *slog.Logger) *Expander {
	return &Expander{client: client, cache: store, ttl: ttl, budget: budget, logger: logger}
}

// Expand returns the expanded form of query, or query itself when the model
// is disabled, times out, or produces nothing usable. Expanding an already
// expanded query is served from cache, keeping the operation stable across
// retries.
func (e *Expander) Expand(ctx context.Context, query string) string {
	query = normalizeQuery(query)
	if query == "" || e.client == nil {
		return query
	}

	if cached, ok := e.cache.Get(ctx, cache.NamespaceExpansion, query); ok {
		return string(cached)
	}

	expanded, ok := boundedCall(ctx, e.logger, "expansion", e.budget, query, func(callCtx context.Context) (string, error) {
		return e.client.Complete(callCtx, expansionSystemPrompt, query, false)
	})
	if !ok {
		return query
	}
	expanded = strings.TrimSpace(llm.StripFences(expanded))
	if expanded == "" {
		return query
	}
	// Collapse multi-line model output into one query string.
	expanded = normalizeQuery(strings.ReplaceAll(expanded, "\n", " "))

	e.cache.Set(ctx, cache.NamespaceExpansion, query, []byte(expanded), e.ttl)
	return expanded
}
