package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []*Entry {
	return []*Entry{
		{Code: "ME21N", Description: "Create Purchase Order", Module: "MM"},
		{Code: "ME22N", Description: "Change Purchase Order", Module: "MM"},
		{Code: "VA01", Description: "Create Sales Order", Module: "SD"},
		{Code: "FB60", Description: "Enter Incoming Invoices", Module: "FI"},
		{Code: "OLD1", Description: "Create Purchase Order Legacy", Module: "MM", Deprecated: true},
	}
}

func TestFulltextIndex_ConjunctiveMatch(t *testing.T) {
	idx, err := NewFulltextIndex(testEntries())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	codes, err := idx.Match(context.Background(), []string{"create", "purchase"}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ME21N"}, codes)

	codes, err = idx.Match(context.Background(), []string{"purchase", "order"}, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ME21N", "ME22N"}, codes)
}

func TestFulltextIndex_NoMatch(t *testing.T) {
	idx, err := NewFulltextIndex(testEntries())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	codes, err := idx.Match(context.Background(), []string{"nonexistent"}, 10)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestFulltextIndex_SkipsDeprecated(t *testing.T) {
	idx, err := NewFulltextIndex(testEntries())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count)

	codes, err := idx.Match(context.Background(), []string{"legacy"}, 10)
	require.NoError(t, err)
	assert.Empty(t, codes)
}

func TestFulltextIndex_EmptyWords(t *testing.T) {
	idx, err := NewFulltextIndex(testEntries())
	require.NoError(t, err)
	defer func() { _ = idx.Close() }()

	codes, err := idx.Match(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Empty(t, codes)
}
