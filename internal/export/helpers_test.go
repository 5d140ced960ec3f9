package export

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// writeDB creates a database at dir/name by running stmts.
func writeDB(t *testing.T, dir, name string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open(types.DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, "exec %q", s)
	}
	return path
}

var usersDB = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, note TEXT)`,
	`INSERT INTO users VALUES (1, 'Ann', NULL)`,
	`INSERT INTO users VALUES (2, 'Bo', 'hi')`,
}

// newTestExporter returns an exporter writing into a fresh temp directory.
func newTestExporter(t *testing.T, mutate func(*types.Config), opts ...Option) (*Exporter, string) {
	t.Helper()
	cfg := types.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	return New(cfg, opts...), cfg.OutputDir
}
