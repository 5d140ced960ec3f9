package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// createFixture writes a database file under t.TempDir() by running stmts
// and returns its path.
func createFixture(t *testing.T, stmts ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")
	db, err := sql.Open(types.DriverSQLite, path)
	require.NoError(t, err)
	defer db.Close()
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, "exec %q", s)
	}
	return path
}

// openFixture opens path read-only with the given blob policy and closes it
// when the test ends.
func openFixture(t *testing.T, path string, policy types.BlobPolicy) *Database {
	t.Helper()
	db, err := Open(context.Background(), path, Options{BlobPolicy: policy})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

const usersSchema = `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, note TEXT)`

var usersRows = []string{
	usersSchema,
	`INSERT INTO users (id, name, note) VALUES (1, 'Ann', NULL)`,
	`INSERT INTO users (id, name, note) VALUES (2, 'Bo', 'hi')`,
}
