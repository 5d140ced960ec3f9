// Package export runs export jobs: for every configured source it resolves
// the export name, skips missing files, assembles the document, and writes
// the artifact. Each source is isolated; one failure never stops the others.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/larder/internal/document"
	"github.com/mesh-intelligence/larder/internal/logging"
	"github.com/mesh-intelligence/larder/internal/sqlite"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Exporter turns source databases into artifacts.
type Exporter struct {
	cfg     types.Config
	logger  *slog.Logger
	metrics *Metrics
}

// Option customizes an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger. The default discards output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Exporter) { e.logger = l }
}

// WithMetrics records every result in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Exporter) { e.metrics = m }
}

// New returns an Exporter for cfg. Unset fields of cfg take their defaults;
// cfg.Sources is ignored, sources are passed to Run.
func New(cfg types.Config, opts ...Option) *Exporter {
	def := types.DefaultConfig()
	if cfg.OutputDir == "" {
		cfg.OutputDir = def.OutputDir
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.BlobPolicy == "" {
		cfg.BlobPolicy = def.BlobPolicy
	}
	if cfg.Driver == "" {
		cfg.Driver = def.Driver
	}
	if cfg.Parallelism < 1 {
		cfg.Parallelism = def.Parallelism
	}
	e := &Exporter{cfg: cfg, logger: logging.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ArtifactPath returns where the artifact for export name is written.
func (e *Exporter) ArtifactPath(name string) string {
	return filepath.Join(e.cfg.OutputDir, name+"."+e.cfg.Format.Suffix())
}

// Run exports every source and returns one Result per source, in the order
// given. Up to cfg.Parallelism sources are processed at once; each source
// owns its own connection.
//
// Sources sharing an export name run one after another in source order. The
// first of them to persist holds the name; later ones fail with
// ErrDuplicateOutput and write nothing. A source that is skipped or fails
// does not hold the name.
func (e *Exporter) Run(ctx context.Context, sources []types.Source) []types.Result {
	logger := e.logger.With("run_id", logging.NewRunID())
	logger.Info("export started", "sources", len(sources), "format", e.cfg.Format, "parallelism", e.cfg.Parallelism)
	start := time.Now()

	results := make([]types.Result, len(sources))

	var g errgroup.Group
	g.SetLimit(e.cfg.Parallelism)
	for _, group := range groupByName(sources) {
		group := group
		g.Go(func() error {
			holder := -1
			for _, i := range group {
				src := sources[i]
				name := src.ExportName()
				if holder >= 0 {
					err := fmt.Errorf("%w: %q (written by %s)", types.ErrDuplicateOutput, name, sources[holder].Path)
					results[i] = types.Result{Source: src, Name: name, Status: types.StatusFailed, Err: err}
					logger.Error("export failed", "source", src.Path, "error", err)
				} else {
					results[i] = e.export(ctx, logger, src, name)
					if results[i].Status == types.StatusPersisted {
						holder = i
					}
				}
				e.metrics.Observe(results[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	persisted, skipped, failed := types.Tally(results)
	logger.Info("export finished",
		"persisted", persisted,
		"skipped", skipped,
		"failed", failed,
		"duration", time.Since(start).Round(time.Millisecond),
	)

	if e.cfg.MetricsFile != "" && e.metrics != nil {
		if err := e.metrics.WriteFile(e.cfg.MetricsFile); err != nil {
			logger.Warn("writing metrics file failed", "path", e.cfg.MetricsFile, "error", err)
		}
	}
	return results
}

// export moves one source through resolved -> skipped | persisted | failed.
func (e *Exporter) export(ctx context.Context, logger *slog.Logger, src types.Source, name string) types.Result {
	start := time.Now()
	res := types.Result{Source: src, Name: name}
	logger = logger.With("source", src.Path)

	finish := func(status types.Status, err error) types.Result {
		res.Status = status
		res.Err = err
		res.Duration = time.Since(start)
		switch status {
		case types.StatusSkipped:
			logger.Warn("skipping source", "reason", err)
		case types.StatusFailed:
			logger.Error("export failed", "error", err)
		default:
			logger.Info("exported",
				"artifact", res.Artifact,
				"tables", res.Tables,
				"rows", res.Rows,
				"duration", res.Duration.Round(time.Millisecond),
			)
		}
		return res
	}

	info, err := os.Stat(src.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finish(types.StatusSkipped, fmt.Errorf("%w: %s", types.ErrMissingSource, src.Path))
		}
		return finish(types.StatusFailed, fmt.Errorf("%w: %s: %v", types.ErrOpenFailure, src.Path, err))
	}
	if info.IsDir() {
		return finish(types.StatusFailed, fmt.Errorf("%w: %s: is a directory", types.ErrOpenFailure, src.Path))
	}

	doc, err := e.assemble(ctx, src.Path)
	if err != nil {
		return finish(types.StatusFailed, err)
	}

	path := e.ArtifactPath(name)
	if err := document.WriteFile(path, doc, e.cfg.Format, e.cfg.Indent); err != nil {
		return finish(types.StatusFailed, err)
	}
	res.Artifact = path
	res.Tables = doc.Len()
	res.Rows = doc.RowCount()
	return finish(types.StatusPersisted, nil)
}

// assemble opens path, builds its document, and closes the connection on
// every path out.
func (e *Exporter) assemble(ctx context.Context, path string) (*types.Document, error) {
	db, err := sqlite.Open(ctx, path, sqlite.Options{Driver: e.cfg.Driver, BlobPolicy: e.cfg.BlobPolicy})
	if err != nil {
		return nil, err
	}
	defer db.Close()

	doc, err := db.Assemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// groupByName returns source indices grouped by export name. Groups are
// ordered by their first member and members keep source order.
func groupByName(sources []types.Source) [][]int {
	index := make(map[string]int, len(sources))
	var groups [][]int
	for i, src := range sources {
		name := src.ExportName()
		g, ok := index[name]
		if !ok {
			g = len(groups)
			index[name] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}
