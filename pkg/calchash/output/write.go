package output

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// Render formats r into memory.
func Render(f Formatter, r *Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Format(&buf, r); err != nil {
		return nil, fmt.Errorf("%w: formatting: %w", types.ErrOutputWrite, err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders r with f and replaces the file at path with the
// result. The content is written to a temporary file in the same directory
// and renamed into place, so readers see either the previous artifact or
// the complete new one. All failures wrap types.ErrOutputWrite.
func WriteFile(path string, f Formatter, r *Result) error {
	data, err := Render(f, r)
	if err != nil {
		return err
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("%w: %w", types.ErrOutputWrite, err)
	}

	logger.Info("result written", "path", path, "bytes", len(data), "files", len(r.Files))
	return nil
}

// writeAtomic writes data to path using a temp file and rename.
func writeAtomic(path string, data []byte) (retErr error) {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Cleanup temp file on any failure
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}
