package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// selectSQL builds the full-scan query for table. Each column is read twice:
// typeof() gives its storage class, and the unary + strips the declared type
// so drivers do not reinterpret DATE/TIMESTAMP/BOOLEAN columns. No ORDER BY
// is applied; rows come back in the engine's scan order.
func selectSQL(table string, cols []types.Column) string {
	if len(cols) == 0 {
		return "SELECT 1 FROM " + quoteIdent(table)
	}
	exprs := make([]string, 0, 2*len(cols))
	for _, c := range cols {
		q := quoteIdent(c.Name)
		exprs = append(exprs, "typeof("+q+")", "+"+q)
	}
	return "SELECT " + strings.Join(exprs, ", ") + " FROM " + quoteIdent(table)
}

// Materialize reads every row of table into records keyed by column name.
// Column metadata is read once and applied to every row. A table with no
// rows yields an empty, non-nil slice.
func (d *Database) Materialize(ctx context.Context, table string) ([]types.Record, error) {
	cols, err := d.Columns(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := d.db.QueryContext(ctx, selectSQL(table, cols))
	if err != nil {
		return nil, fmt.Errorf("table %q: scan: %w", table, err)
	}
	defer rows.Close()

	width := 2 * len(cols)
	if width == 0 {
		width = 1
	}
	dest := make([]any, width)
	ptrs := make([]any, width)
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	records := []types.Record{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("table %q: scan row %d: %w", table, len(records)+1, err)
		}
		rec := types.NewRecord(len(cols))
		for i, c := range cols {
			class := StorageClass(asString(dest[2*i]))
			v, err := Coerce(class, dest[2*i+1], d.policy)
			if err != nil {
				return nil, fmt.Errorf("table %q: column %q: row %d: %w", table, c.Name, len(records)+1, err)
			}
			rec.Set(c.Name, v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("table %q: scan: %w", table, err)
	}
	return records, nil
}

// CountRows returns the number of rows in table.
func (d *Database) CountRows(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, "SELECT count(*) FROM "+quoteIdent(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("table %q: count: %w", table, err)
	}
	return n, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
