package sqlite

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Catalog lists tables and their columns before any row is read.
type Catalog interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]types.Column, error)
}

var _ Catalog = (*Database)(nil)

// listTablesSQL returns user tables in catalog scan order. Internal tables
// (sqlite_sequence, sqlite_stat1, ...) are excluded.
const listTablesSQL = `SELECT name FROM sqlite_master
WHERE type = 'table' AND name NOT LIKE 'sqlite\_%' ESCAPE '\'`

// Tables returns the names of the user tables in the order the catalog
// lists them. Views and indexes are not tables and are left out.
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, listTablesSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", types.ErrOpenFailure, err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan table name: %v", types.ErrOpenFailure, err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", types.ErrOpenFailure, err)
	}
	return tables, nil
}

// hiddenVirtualColumn marks columns of virtual tables that SELECT * omits.
// Generated columns (2, 3) are returned by SELECT * and are kept.
const hiddenVirtualColumn = 1

// Columns returns the columns of table in declared order, matching the
// column set SELECT * would return.
func (d *Database) Columns(ctx context.Context, table string) ([]types.Column, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT name, type, hidden FROM pragma_table_xinfo(?)", table)
	if err != nil {
		return nil, fmt.Errorf("table %q: columns: %w", table, err)
	}
	defer rows.Close()

	var cols []types.Column
	for rows.Next() {
		var (
			name, declType string
			hidden         int
		)
		if err := rows.Scan(&name, &declType, &hidden); err != nil {
			return nil, fmt.Errorf("table %q: scan column: %w", table, err)
		}
		if hidden == hiddenVirtualColumn {
			continue
		}
		cols = append(cols, types.Column{Name: name, Type: declType, Position: len(cols)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table %q: columns: %w", table, err)
	}
	return cols, nil
}
