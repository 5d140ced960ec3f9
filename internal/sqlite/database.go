// Package sqlite reads SQLite database files for export: it opens a source
// read-only, discovers its tables and columns from the catalog, scans every
// row, and coerces each cell into a types.Value.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Options configures how a database is opened and how cells are coerced.
type Options struct {
	Driver     string           // database/sql driver name; defaults to types.DefaultDriver.
	BlobPolicy types.BlobPolicy // defaults to types.DefaultBlobPolicy.
}

// Database is a read-only handle on one SQLite file. It holds a single
// connection, so tables are always read one after another.
type Database struct {
	path   string
	db     *sql.DB
	policy types.BlobPolicy
}

// uriEscaper escapes the characters that would end the path part of a
// file: URI.
var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// dsn builds a read-only URI filename for path.
func dsn(path string) string {
	return "file:" + uriEscaper.Replace(filepath.ToSlash(path)) + "?mode=ro"
}

// Open opens path read-only and verifies that it is a readable SQLite
// database. Any failure wraps types.ErrOpenFailure. The caller must Close the
// returned Database.
func Open(ctx context.Context, path string, opts Options) (*Database, error) {
	driver := opts.Driver
	if driver == "" {
		driver = types.DefaultDriver
	}
	policy := opts.BlobPolicy
	if policy == "" {
		policy = types.DefaultBlobPolicy
	}

	db, err := sql.Open(driver, dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// sql.Open is lazy; a corrupt or foreign file only fails on first use.
	// Reading the schema forces SQLite to parse the header and catalog.
	var n int
	if err := db.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, path, err)
	}

	return &Database{path: path, db: db, policy: policy}, nil
}

// Path returns the file the database was opened from.
func (d *Database) Path() string { return d.path }

// Close releases the connection. Close is idempotent.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// Ping runs the "SELECT 1" connectivity probe.
func (d *Database) Ping(ctx context.Context) error {
	var one int
	if err := d.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping %s: %w", d.path, err)
	}
	if one != 1 {
		return fmt.Errorf("ping %s: unexpected result %d", d.path, one)
	}
	return nil
}

// quoteIdent quotes name as an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
