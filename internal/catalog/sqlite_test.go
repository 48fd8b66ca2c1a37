package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	seed := `
	INSERT INTO tcodes (code, description, module, deprecated) VALUES
		('ME21N', 'Create Purchase Order', 'MM', 0),
		('ME22N', 'Change Purchase Order', 'MM', 0),
		('ME23N', 'Display Purchase Order', 'MM', 0),
		('VA01',  'Create Sales Order', 'SD', 0),
		('FB60',  'Enter Incoming Invoices', 'FI', 0),
		('ME21',  'Create Purchase Order (Old)', 'MM', 1);
	INSERT INTO feedback (code, vote) VALUES
		('ME21N', 1), ('ME21N', 1), ('ME21N', -1),
		('VA01', -1);
	INSERT INTO countries (code, name, iso_code, aliases) VALUES
		('US', 'United States', 'US', 'USA,America,United States of America'),
		('DE', 'Germany', 'DE', 'Deutschland');
	`
	_, err = s.DB().Exec(seed)
	require.NoError(t, err)
	return s
}

func TestFindExact(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	e, err := s.FindExact(ctx, "me21n")
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "ME21N", e.Code)
	assert.Equal(t, "Create Purchase Order", e.Description)

	e, err = s.FindExact(ctx, "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestFindExact_ExcludesDeprecated(t *testing.T) {
	s := openTestStore(t)
	e, err := s.FindExact(context.Background(), "ME21")
	require.NoError(t, err)
	assert.Nil(t, e, "deprecated codes must not be returned")
}

func TestFindByPrefix(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindByPrefix(context.Background(), "me2", 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.False(t, e.Deprecated)
	}
}

func TestFindByPrefix_RespectsLimit(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindByPrefix(context.Background(), "me", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFindBySubstring(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindBySubstring(context.Background(), "21", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "ME21N", entries[0].Code)
}

func TestFindBySubstring_EscapesLikeMetacharacters(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindBySubstring(context.Background(), "%", 10)
	require.NoError(t, err)
	assert.Empty(t, entries, "literal percent must not match everything")
}

func TestFindByIn(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindByIn(context.Background(), []string{"me21n", "VA01", "NOPE", "ME21"})
	require.NoError(t, err)
	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	assert.ElementsMatch(t, []string{"ME21N", "VA01"}, codes)
}

func TestFindByIn_Empty(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.FindByIn(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestListAll_ExcludesDeprecated(t *testing.T) {
	s := openTestStore(t)
	entries, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestSumVotes(t *testing.T) {
	s := openTestStore(t)
	counts, err := s.SumVotes(context.Background(), []string{"ME21N", "VA01", "FB60"})
	require.NoError(t, err)

	me := counts["ME21N"]
	assert.Equal(t, 2, me.Upvotes)
	assert.Equal(t, 1, me.Downvotes)
	assert.Equal(t, 1, me.Net())
	assert.Equal(t, 3, me.Total())

	va := counts["VA01"]
	assert.Equal(t, -1, va.Net())

	_, ok := counts["FB60"]
	assert.False(t, ok, "codes without votes are absent")
}

func TestListLocales(t *testing.T) {
	s := openTestStore(t)
	locales, err := s.ListLocales(context.Background())
	require.NoError(t, err)
	require.Len(t, locales, 2)

	assert.Equal(t, "DE", locales[0].Code)
	assert.Equal(t, []string{"Deutschland"}, locales[0].Aliases)
	assert.Equal(t, []string{"USA", "America", "United States of America"}, locales[1].Aliases)
}
