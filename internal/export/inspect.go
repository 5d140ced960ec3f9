package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// TableInfo summarizes one table for diagnostics.
type TableInfo struct {
	Name    string `json:"name"`
	Columns int    `json:"columns"`
	Rows    int64  `json:"rows"`
}

// Inspection is the diagnostic view of one source.
type Inspection struct {
	Source types.Source `json:"source"`
	Tables []TableInfo  `json:"tables"`
	Err    error        `json:"-"`
	Error  string       `json:"error,omitempty"`
}

// Inspect checks each source without exporting it: it opens the database,
// runs the SELECT 1 probe, and lists tables with column and row counts.
// Missing or unreadable sources are reported in Inspection.Err.
func (e *Exporter) Inspect(ctx context.Context, sources []types.Source) []Inspection {
	out := make([]Inspection, len(sources))
	for i, src := range sources {
		out[i] = e.inspect(ctx, src)
		if out[i].Err != nil {
			out[i].Error = out[i].Err.Error()
		}
	}
	return out
}

func (e *Exporter) inspect(ctx context.Context, src types.Source) Inspection {
	in := Inspection{Source: src, Tables: []TableInfo{}}
	if _, err := os.Stat(src.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			in.Err = fmt.Errorf("%w: %s", types.ErrMissingSource, src.Path)
		} else {
			in.Err = fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, src.Path, err)
		}
		return in
	}

	db, err := sqlite.Open(ctx, src.Path, sqlite.Options{Driver: e.cfg.Driver, BlobPolicy: e.cfg.BlobPolicy})
	if err != nil {
		in.Err = err
		return in
	}
	defer db.Close()

	if err := db.Ping(ctx); err != nil {
		in.Err = err
		return in
	}
	tables, err := db.Tables(ctx)
	if err != nil {
		in.Err = fmt.Errorf("%s: %w", src.Path, err)
		return in
	}
	for _, t := range tables {
		cols, err := db.Columns(ctx, t)
		if err != nil {
			in.Err = fmt.Errorf("%s: %w", src.Path, err)
			return in
		}
		n, err := db.CountRows(ctx, t)
		if err != nil {
			in.Err = fmt.Errorf("%s: %w", src.Path, err)
			return in
		}
		in.Tables = append(in.Tables, TableInfo{Name: t, Columns: len(cols), Rows: n})
	}
	return in
}
