package sqlite

import (
	"context"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Assemble builds the Document for the whole database: every table from
// Tables, materialized in discovery order. The first table that fails fails
// the whole document; no partial document is returned.
func (d *Database) Assemble(ctx context.Context) (*types.Document, error) {
	tables, err := d.Tables(ctx)
	if err != nil {
		return nil, err
	}

	doc := types.NewDocument()
	for _, t := range tables {
		records, err := d.Materialize(ctx, t)
		if err != nil {
			return nil, err
		}
		doc.Put(t, records)
	}
	return doc, nil
}
