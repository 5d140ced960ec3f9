package export

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// ErrNothingToWatch reports that no source directory could be watched.
var ErrNothingToWatch = errors.New("nothing to watch")

// journalSuffixes are the side files SQLite writes next to a database.
// A change to any of them is a change to the database.
var journalSuffixes = []string{"-wal", "-journal"}

// Watch re-exports a source whenever its database file changes, until ctx
// is cancelled. Each source's directory is watched so files that are
// replaced or created later are still seen. Bursts of events are collapsed
// into one export per source after cfg.Debounce.
//
// A source whose directory cannot be watched is logged and left out. Watch
// fails with ErrNothingToWatch only when no source can be watched.
func (e *Exporter) Watch(ctx context.Context, sources []types.Source) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]types.Source, len(sources))
	dirs := make(map[string]error)
	for _, src := range sources {
		abs, err := filepath.Abs(src.Path)
		if err != nil {
			e.logger.Warn("not watching source", "source", src.Path, "error", err)
			continue
		}
		dir := filepath.Dir(abs)
		addErr, seen := dirs[dir]
		if !seen {
			addErr = watcher.Add(dir)
			dirs[dir] = addErr
		}
		if addErr != nil {
			e.logger.Warn("not watching source", "source", src.Path, "dir", dir, "error", addErr)
			continue
		}
		targets[abs] = src
	}
	if len(targets) == 0 {
		return fmt.Errorf("%w: none of %d sources can be watched", ErrNothingToWatch, len(sources))
	}

	debounce := e.cfg.Debounce
	if debounce <= 0 {
		debounce = types.DefaultDebounce
	}
	d := newDebouncer(debounce)
	defer d.stop()

	// Exports run on this goroutine only, so a source is never exported
	// twice at once.
	due := make(chan string, len(targets))

	e.logger.Info("watching sources", "sources", len(targets), "debounce", debounce)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("watcher stopped")
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			path := databasePath(ev.Name)
			if _, ok := targets[path]; !ok {
				continue
			}
			e.logger.Debug("change detected", "path", ev.Name, "op", ev.Op.String())
			d.trigger(path, func() {
				select {
				case due <- path:
				case <-ctx.Done():
				}
			})

		case path := <-due:
			e.Run(ctx, []types.Source{targets[path]})

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			e.logger.Warn("watcher error", "error", err)
		}
	}
}

// databasePath maps a journal file to the database it belongs to.
func databasePath(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	for _, s := range journalSuffixes {
		if strings.HasSuffix(abs, s) {
			return strings.TrimSuffix(abs, s)
		}
	}
	return abs
}

// debouncer delays a keyed action until no trigger for that key has arrived
// for the configured interval.
type debouncer struct {
	interval time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval, timers: make(map[string]*time.Timer)}
}

func (d *debouncer) trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.interval, fn)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, t := range d.timers {
		t.Stop()
		delete(d.timers, k)
	}
}
