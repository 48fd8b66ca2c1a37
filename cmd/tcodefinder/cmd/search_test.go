package cmd

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/tcodefinder/internal/catalog"
	"github.com/Aman-CERP/tcodefinder/internal/search"
)

// seedCatalog writes a small catalog database and returns its path.
func seedCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := catalog.OpenSQLite(path)
	require.NoError(t, err)
	seedTestDB(t, store.DB())
	require.NoError(t, store.Close())
	return path
}

func seedTestDB(t *testing.T, db *sql.DB) {
	t.Helper()
	_, err := db.Exec(`
	INSERT INTO tcodes (code, description, module, deprecated) VALUES
		('ME21N', 'Create Purchase Order', 'MM', 0),
		('ME22N', 'Change Purchase Order', 'MM', 0),
		('VA01',  'Create Sales Order', 'SD', 0);`)
	require.NoError(t, err)
}

// runRoot executes the full CLI with an isolated config pointing at the
// seeded catalog and no external services.
func runRoot(t *testing.T, catalogPath string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("TCODEFINDER_CATALOG_PATH", catalogPath)
	// Nothing listens here; semantic search must silently stay disabled.
	t.Setenv("TCODEFINDER_OLLAMA_HOST", "http://127.0.0.1:1")

	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestSearchCmd_TextOutput(t *testing.T) {
	path := seedCatalog(t)

	out, err := runRoot(t, path, "search", "create", "purchase", "order")
	require.NoError(t, err)
	assert.Contains(t, out, "ME21N")
	assert.Contains(t, out, "Create Purchase Order")
}

func TestSearchCmd_JSONOutput(t *testing.T) {
	path := seedCatalog(t)

	out, err := runRoot(t, path, "search", "--json", "create purchase order")
	require.NoError(t, err)

	var resp search.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "ME21N", resp.Results[0].Code)
	assert.GreaterOrEqual(t, resp.Results[0].Confidence, 0.8)
}

func TestSearchCmd_NoMatchesIsNotAnError(t *testing.T) {
	path := seedCatalog(t)

	out, err := runRoot(t, path, "search", "completely", "unrelated", "topic")
	require.NoError(t, err)
	assert.Contains(t, out, "No transaction codes found")
}

func TestSearchCmd_RequiresQuery(t *testing.T) {
	path := seedCatalog(t)
	_, err := runRoot(t, path, "search")
	assert.Error(t, err)
}

func TestSearchCmd_MissingCatalogFails(t *testing.T) {
	_, err := runRoot(t, filepath.Join(t.TempDir(), "missing", "nested", "catalog.db"), "search", "anything")
	assert.Error(t, err)
}
