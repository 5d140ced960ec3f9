package document

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// WriteFile encodes doc and atomically replaces path with it using the
// temp-file, fsync, rename pattern. An existing file at path is overwritten.
// Failures wrap types.ErrWriteFailure; on failure path is left untouched.
func WriteFile(path string, doc *types.Document, format types.Format, indent int) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %s: creating directory: %v", types.ErrWriteFailure, path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %s: creating temp file: %v", types.ErrWriteFailure, path, err)
	}
	tmpName := tmp.Name()

	fail := func(step string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: %s: %v", types.ErrWriteFailure, path, step, err)
	}

	w := bufio.NewWriter(tmp)
	if err := Encode(w, doc, format, indent); err != nil {
		return fail("encoding", err)
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail("setting permissions", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: closing temp file: %v", types.ErrWriteFailure, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %s: renaming temp file: %v", types.ErrWriteFailure, path, err)
	}
	return nil
}
