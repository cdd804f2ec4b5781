// Package artifact implements L14: atomic JSON/CSV artifact writes,
// secret sanitization, size/row bounding, and schema-mismatch
// detection for the shadow runner's three output files.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const maxJSONBytes = 10 * 1024

// writeAtomic writes data to a sibling temp file in dir(path), fsyncs,
// and renames over path. On any failure the temp file is removed so a
// partial write is never left in place (§4.10, §8 Atomicity).
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("artifact: mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("artifact: create temp: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: close temp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("artifact: rename temp: %w", err)
	}
	return nil
}

// WriteJSONBounded marshals v and writes it atomically, rejecting
// payloads over 10 KiB (§4.10 Bounded size).
func WriteJSONBounded(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal %s: %w", path, err)
	}
	if len(data) > maxJSONBytes {
		return fmt.Errorf("artifact: %s payload %d bytes exceeds %d byte bound", path, len(data), maxJSONBytes)
	}
	return writeAtomic(path, data)
}
