package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edtriage/backend/internal/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatements(t *testing.T) {
	sql := `-- indexes
CREATE INDEX a ON triage_runs (created_at);

CREATE INDEX b
  ON triage_runs (tier);
ANALYZE triage_runs`

	statements := Statements(sql)
	require.Len(t, statements, 3)
	assert.Equal(t, "CREATE INDEX a ON triage_runs (created_at)", statements[0])
	assert.Equal(t, "CREATE INDEX b\n  ON triage_runs (tier)", statements[1])
	assert.Equal(t, "ANALYZE triage_runs", statements[2])
}

func TestStatements_Empty(t *testing.T) {
	assert.Empty(t, Statements("-- nothing here\n\n"))
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o755))

	files, err := listMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "002_b.sql"}, files)

	files, err = listMigrations(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPending(t *testing.T) {
	files := []string{"001_a.sql", "002_b.sql", "003_c.sql"}
	assert.Equal(t, []string{"002_b.sql"}, pending(files, map[string]bool{"001_a.sql": true, "003_c.sql": true}))
	assert.Empty(t, pending(files, map[string]bool{"001_a.sql": true, "002_b.sql": true, "003_c.sql": true}))
}

func TestRunMigrations_NoDatabase(t *testing.T) {
	r := NewRunner(&database.Manager{}, logrus.New())
	assert.NoError(t, r.RunMigrations("does-not-exist"))
}

func TestRunMigrations_SchemaFilesParse(t *testing.T) {
	files, err := listMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		content, err := os.ReadFile(filepath.Join("..", "..", "migrations", name))
		require.NoError(t, err)
		assert.NotEmpty(t, Statements(string(content)), name)
	}
}
