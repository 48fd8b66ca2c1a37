package search

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	tferrors "github.com/Aman-CERP/tcodefinder/internal/errors"
	"github.com/Aman-CERP/tcodefinder/internal/websearch"
)

// newTestFinder wires a pipeline over the in-memory catalog with a bleve
// index; everything else comes from the supplied dependencies.
func newTestFinder(t *testing.T, store *fakeStore, mutate func(*Dependencies)) *Finder {
	t.Helper()
	entries, err := store.ListAll(context.Background())
	require.NoError(t, err)
	fulltext, err := catalog.NewFulltextIndex(entries)
	require.NoError(t, err)

	deps := Dependencies{
		Catalog:  store,
		Fulltext: fulltext,
		Feedback: store,
		Locales:  store,
		Cache:    testCache(),
		Logger:   testLogger(),
	}
	if mutate != nil {
		mutate(&deps)
	}
	cfg := DefaultConfig()
	cfg.RerankTimeout = 200 * time.Millisecond
	cfg.JudgeTimeout = 200 * time.Millisecond
	cfg.ExpansionTimeout = 200 * time.Millisecond
	cfg.ReasoningTimeout = 200 * time.Millisecond
	return NewFinder(cfg, deps)
}

func TestSearchCreatePurchaseOrderFindsME21N(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)

	resp, err := f.Search(context.Background(), "create purchase order", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	top := resp.Results[0]
	assert.Equal(t, "ME21N", top.Code)
	assert.GreaterOrEqual(t, top.Confidence, 0.8)
	assert.True(t, top.CatalogVerified)
	assert.NotEmpty(t, top.Explanation)
}

func TestSearchExactCodeRanksFirst(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)

	resp, err := f.Search(context.Background(), "ME21N", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "ME21N", resp.Results[0].Code)
	assert.Equal(t, MatchExact, resp.Results[0].MatchType)
}

func TestSearchCachedResponseIsIdentical(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)
	ctx := context.Background()

	first, err := f.Search(ctx, "create purchase order", Options{})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.Search(ctx, "  Create   PURCHASE order ", Options{})
	require.NoError(t, err)
	assert.True(t, second.Cached, "normalized repeat query hits the cache")
	assert.Equal(t, first.Results, second.Results, "identical content and ordering")
}

func TestSearchCacheKeyedByLimit(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)
	ctx := context.Background()

	_, err := f.Search(ctx, "purchase order", Options{Limit: 2})
	require.NoError(t, err)
	resp, err := f.Search(ctx, "purchase order", Options{Limit: 3})
	require.NoError(t, err)
	assert.False(t, resp.Cached, "different limits must not share cache entries")
}

func TestSearchEmptyQueryYieldsEmptyResponse(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)
	resp, err := f.Search(context.Background(), "   ", Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchNoMatchesIsNotAnError(t *testing.T) {
	f := newTestFinder(t, &fakeStore{}, nil)
	resp, err := f.Search(context.Background(), "completely unknown thing", Options{})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchCatalogUnreachableIsAnError(t *testing.T) {
	store := purchaseOrderCatalog()
	f := newTestFinder(t, store, nil)
	store.err = assert.AnError

	resp, err := f.Search(context.Background(), "create purchase order", Options{})
	assert.Nil(t, resp)
	require.Error(t, err, "a dead catalog must not masquerade as no matches")
	assert.ErrorIs(t, err, tferrors.New(tferrors.ErrCodeUpstreamUnavailable, "", nil))
	assert.True(t, tferrors.IsRetryable(err))
}

func TestSearchResultsDedupedAndClamped(t *testing.T) {
	store := purchaseOrderCatalog()
	f := newTestFinder(t, store, func(deps *Dependencies) {
		index := catalog.NewVectorIndex(4)
		entries, _ := store.ListAll(context.Background())
		vectors := make([][]float32, len(entries))
		for i := range entries {
			v := make([]float32, 4)
			v[i%4] = 1
			vectors[i] = v
		}
		require.NoError(t, index.Add(context.Background(), entries, vectors))
		deps.Vectors = index
		deps.Embedder = &fakeEmbedder{dims: 4, vectors: map[string][]float32{
			"create purchase order": {1, 0, 0, 0},
		}}
	})

	resp, err := f.Search(context.Background(), "create purchase order", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	seen := make(map[string]bool)
	for _, c := range resp.Results {
		key := strings.ToUpper(c.Code)
		assert.False(t, seen[key], "duplicate code %s in final results", c.Code)
		seen[key] = true
		assert.GreaterOrEqual(t, c.Confidence, 0.0)
		assert.LessOrEqual(t, c.Confidence, 1.0)
		assert.GreaterOrEqual(t, c.RelevanceScore, 0.0)
		assert.LessOrEqual(t, c.RelevanceScore, 1.0)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)
	resp, err := f.Search(context.Background(), "ME2", Options{Limit: 2})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(resp.Results), 2)
}

func TestSearchSortedByConfidenceDescending(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), nil)
	resp, err := f.Search(context.Background(), "purchase order", Options{})
	require.NoError(t, err)
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Confidence, resp.Results[i].Confidence)
	}
}

func TestSearchModelTimeoutStillReturnsRankedResults(t *testing.T) {
	f := newTestFinder(t, purchaseOrderCatalog(), func(deps *Dependencies) {
		deps.Model = stuckLLM{}
	})

	resp, err := f.Search(context.Background(), "create purchase order", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results, "model outage degrades to deterministic ranking")
	assert.Equal(t, "ME21N", resp.Results[0].Code)
}

func TestSearchBoostOrderLocaleBeforeFeedback(t *testing.T) {
	store := &fakeStore{
		entries: []*catalog.Entry{
			{Code: "F107_AR", Description: "Argentina Tax Report", Module: "FI"},
		},
		locales: localeTable(),
		votes: map[string]catalog.VoteCount{
			"F107_AR": {Code: "F107_AR", Downvotes: 3},
		},
	}
	f := newTestFinder(t, store, nil)

	resp, err := f.Search(context.Background(), "tax report argentina", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	// Fulltext gives 0.8, term boost lifts to 0.95, the locale mention
	// multiplies by 1.5 capped at 0.99, then three downvotes scale by
	// 1 - 0.15*ln(4).
	want := 0.99 * BoostFactor(-3)
	assert.InDelta(t, want, resp.Results[0].Confidence, 1e-6)
}

func TestSearchKnowledgeFallbackWhenCatalogEmpty(t *testing.T) {
	model := &fakeLLM{respond: func(system, _ string, _ bool) (string, error) {
		if strings.Contains(system, "expand") {
			return "", nil
		}
		return `[{"code":"COHV","description":"Mass Processing Production Orders","module":"PP","confidence":0.9,"explanation":"Handles mass order processing."}]`, nil
	}}
	f := newTestFinder(t, &fakeStore{}, func(deps *Dependencies) {
		deps.Model = model
	})

	resp, err := f.Search(context.Background(), "mass processing production orders", Options{})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)
	c := resp.Results[0]
	assert.Equal(t, "COHV", c.Code)
	assert.False(t, c.CatalogVerified)
	assert.LessOrEqual(t, c.Confidence, reasoningCeiling)
}

func TestSearchWebFallbackAddsValidatedCodes(t *testing.T) {
	store := &fakeStore{entries: []*catalog.Entry{
		{Code: "ME21N", Description: "Create Purchase Order", Module: "MM"},
		{Code: "MIGO", Description: "Goods Movement", Module: "MM"},
	}}
	model := &fakeLLM{respond: func(system, user string, _ bool) (string, error) {
		switch {
		case strings.Contains(system, "audit"):
			return "[]", nil
		case strings.Contains(system, "expand"):
			// No expansion; echo the query back.
			return strings.TrimPrefix(user, "Query: "), nil
		case strings.Contains(system, "rank"):
			return `[{"code":"MIGO","confidence":0.2,"explanation":"Weak match."}]`, nil
		default:
			return "[]", nil
		}
	}}
	provider := &fakeProvider{name: "tavily", results: []websearch.Result{
		{Title: "SAP inventory", Snippet: "To post goods movements use MIGO. Purchase orders come from ME21N."},
	}}
	f := newTestFinder(t, store, func(deps *Dependencies) {
		deps.Model = model
		deps.Providers = []websearch.Provider{provider}
	})

	resp, err := f.Search(context.Background(), "goods movement", Options{})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)

	top := resp.Results[0]
	assert.Equal(t, "ME21N", top.Code, "web-discovered code enters once the catalog confirms it")
	assert.Equal(t, MatchWeb, top.MatchType)
	assert.Equal(t, webNewConfidence, top.Confidence)
	// MIGO: 0.2 from the model, +0.10 term boost, then the 15% web lift.
	assert.InDelta(t, 0.345, resp.Results[1].Confidence, 1e-6)
}
