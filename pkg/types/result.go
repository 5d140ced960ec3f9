package types

import (
	"errors"
	"time"
)

// Status is the terminal state of one source in an export run.
type Status string

// Terminal states. A source moves pending -> resolved -> one of these.
const (
	StatusSkipped   Status = "skipped"
	StatusPersisted Status = "persisted"
	StatusFailed    Status = "failed"
)

// Export errors. Each is wrapped with the offending source (and table,
// where one is involved); test with errors.Is.
var (
	ErrMissingSource    = errors.New("source database not found")
	ErrOpenFailure      = errors.New("cannot open source database")
	ErrUnsupportedValue = errors.New("unsupported value")
	ErrWriteFailure     = errors.New("cannot write artifact")
	ErrDuplicateOutput  = errors.New("export name already used in this run")
)

// Result records what happened to one source.
type Result struct {
	Source   Source
	Name     string        // Resolved export name.
	Status   Status        // Terminal state.
	Artifact string        // Path of the written artifact; empty unless persisted.
	Tables   int           // Tables exported.
	Rows     int           // Records exported across all tables.
	Err      error         // Cause of a skip or failure.
	Duration time.Duration // Wall time spent on the source.
}

// AllFailed reports whether results is non-empty and every source failed.
// Skipped sources do not count as failures.
func AllFailed(results []Result) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if r.Status != StatusFailed {
			return false
		}
	}
	return true
}

// Tally counts results by status.
func Tally(results []Result) (persisted, skipped, failed int) {
	for _, r := range results {
		switch r.Status {
		case StatusPersisted:
			persisted++
		case StatusSkipped:
			skipped++
		case StatusFailed:
			failed++
		}
	}
	return persisted, skipped, failed
}
