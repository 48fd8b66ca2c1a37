package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/embed"
)

// SemanticGenerator produces candidates by embedding the query and running a
// nearest-neighbor search over the catalog vector index. Any failure in the
// chain yields an empty list; semantic search is best-effort.
type SemanticGenerator struct {
	embedder embed.Embedder
	vectors  *catalog.VectorIndex
	store    catalog.Store
	logger   *slog.Logger
}

// NewSemanticGenerator wires an embedder and vector index over the catalog.
func NewSemanticGenerator(embedder embed.Embedder, vectors *catalog.VectorIndex, store catalog.Store, logger *slog.Logger) *SemanticGenerator {
	return &SemanticGenerator{embedder: embedder, vectors: vectors, store: store, logger: logger}
}

// Enabled reports whether semantic generation can run at all.
func (g *SemanticGenerator) Enabled() bool {
	return g.embedder != nil && g.vectors != nil
}

// Generate returns up to k semantic candidates for the query, optionally
// restricted to one module. The relevance score is the vector similarity.
func (g *SemanticGenerator) Generate(ctx context.Context, query string, k int, module string) []Candidate {
	if !g.Enabled() {
		return nil
	}
	vector, err := g.embedder.Embed(ctx, query)
	if err != nil {
		g.logger.Warn("query embedding failed", "error", err)
		return nil
	}
	hits, err := g.vectors.Search(ctx, vector, k, module)
	if err != nil {
		g.logger.Warn("vector search failed", "error", err)
		return nil
	}
	if len(hits) == 0 {
		return nil
	}

	codes := make([]string, len(hits))
	for i, h := range hits {
		codes[i] = h.Code
	}
	entries, err := g.store.FindByIn(ctx, codes)
	if err != nil {
		g.logger.Warn("semantic entry lookup failed", "error", err)
		return nil
	}
	byCode := make(map[string]*catalog.Entry, len(entries))
	for _, e := range entries {
		byCode[strings.ToUpper(e.Code)] = e
	}

	out := make([]Candidate, 0, len(hits))
	for _, h := range hits {
		entry, ok := byCode[strings.ToUpper(h.Code)]
		if !ok {
			// Index is ahead of the catalog; skip orphan vectors.
			continue
		}
		out = append(out, entryCandidate(entry, h.Similarity, MatchSemantic))
	}
	return out
}
