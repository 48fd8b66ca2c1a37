package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorIndex_NearestFirst(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex(3)

	entries := []*Entry{
		{Code: "ME21N", Description: "Create Purchase Order", Module: "MM"},
		{Code: "VA01", Description: "Create Sales Order", Module: "SD"},
		{Code: "FB60", Description: "Enter Incoming Invoices", Module: "FI"},
	}
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	require.NoError(t, idx.Add(ctx, entries, vectors))

	hits, err := idx.Search(ctx, []float32{0.95, 0.1, 0}, 2, "")
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "ME21N", hits[0].Code)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.05)

	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Similarity, 0.0)
		assert.LessOrEqual(t, h.Similarity, 1.0)
	}
}

func TestVectorIndex_SkipsDeprecated(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex(2)

	entries := []*Entry{
		{Code: "LIVE", Module: "MM"},
		{Code: "DEAD", Module: "MM", Deprecated: true},
	}
	require.NoError(t, idx.Add(ctx, entries, [][]float32{{1, 0}, {1, 0}}))

	assert.Equal(t, 1, idx.Count())
	hits, err := idx.Search(ctx, []float32{1, 0}, 5, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "LIVE", hits[0].Code)
}

func TestVectorIndex_ModuleFilter(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex(2)

	entries := []*Entry{
		{Code: "ME21N", Module: "MM"},
		{Code: "VA01", Module: "SD"},
	}
	require.NoError(t, idx.Add(ctx, entries, [][]float32{{1, 0}, {0.9, 0.1}}))

	hits, err := idx.Search(ctx, []float32{1, 0}, 5, "SD")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "VA01", hits[0].Code)
}

func TestVectorIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex(3)

	err := idx.Add(ctx, []*Entry{{Code: "X"}}, [][]float32{{1, 0}})
	assert.Error(t, err)

	_, err = idx.Search(ctx, []float32{1, 0}, 5, "")
	assert.Error(t, err)
}

func TestVectorIndex_EmptyGraph(t *testing.T) {
	idx := NewVectorIndex(2)
	hits, err := idx.Search(context.Background(), []float32{1, 0}, 5, "")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestVectorIndex_ReplacesExistingCode(t *testing.T) {
	ctx := context.Background()
	idx := NewVectorIndex(2)

	e := []*Entry{{Code: "ME21N", Module: "MM"}}
	require.NoError(t, idx.Add(ctx, e, [][]float32{{1, 0}}))
	require.NoError(t, idx.Add(ctx, e, [][]float32{{0, 1}}))

	assert.Equal(t, 1, idx.Count())
	hits, err := idx.Search(ctx, []float32{0, 1}, 1, "")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 1.0, hits[0].Similarity, 0.05)
}
