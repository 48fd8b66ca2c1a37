package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// FulltextIndex offers conjunctive word search over code + description.
// It backs the full-text lexical strategy; the index is memory-only and
// rebuilt from the catalog at startup.
type FulltextIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// fulltextDoc is the document shape indexed per entry.
type fulltextDoc struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// NewFulltextIndex builds an in-memory index over the given entries.
func NewFulltextIndex(entries []*Entry) (*FulltextIndex, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("create fulltext index: %w", err)
	}

	batch := index.NewBatch()
	for _, e := range entries {
		if e.Deprecated {
			continue
		}
		doc := fulltextDoc{Code: e.Code, Description: e.Description}
		if err := batch.Index(strings.ToUpper(e.Code), doc); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index entry %q: %w", e.Code, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("commit fulltext batch: %w", err)
	}

	return &FulltextIndex{index: index}, nil
}

// Match returns the codes of entries containing every given word in their
// code or description, up to limit.
func (f *FulltextIndex) Match(ctx context.Context, words []string, limit int) ([]string, error) {
	if len(words) == 0 {
		return nil, nil
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	conjuncts := make([]query.Query, 0, len(words))
	for _, w := range words {
		mq := bleve.NewMatchQuery(strings.ToLower(w))
		conjuncts = append(conjuncts, mq)
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(conjuncts...), limit, 0, false)
	res, err := f.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fulltext search: %w", err)
	}

	codes := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		codes = append(codes, hit.ID)
	}
	return codes, nil
}

// Count returns the number of indexed entries.
func (f *FulltextIndex) Count() (uint64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.index.DocCount()
}

// Close releases index resources.
func (f *FulltextIndex) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index.Close()
}
