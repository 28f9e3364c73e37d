package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const tempPattern = ".phi-redact-tmp-*"

func Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}

// AtomicFile is written in place of a temp file and renamed over its target
// on Commit. Readers never observe a partially written target.
type AtomicFile struct {
	*os.File
	path    string
	tmpPath string
	closed  bool
}

// CreateAtomic opens a temp file next to path. The parent directory must
// already exist.
func CreateAtomic(path string) (*AtomicFile, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), tempPattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", path, err)
	}
	return &AtomicFile{File: tmp, path: path, tmpPath: tmp.Name()}, nil
}

// Path is the final destination.
func (f *AtomicFile) Path() string {
	return f.path
}

func (f *AtomicFile) Commit() error {
	if f.closed {
		return fmt.Errorf("commit %s: already closed", f.path)
	}
	f.closed = true
	if err := f.File.Chmod(0o644); err != nil {
		_ = f.File.Close()
		_ = os.Remove(f.tmpPath)
		return fmt.Errorf("chmod temp file for %s: %w", f.path, err)
	}
	if err := f.File.Close(); err != nil {
		_ = os.Remove(f.tmpPath)
		return fmt.Errorf("close temp file for %s: %w", f.path, err)
	}
	if err := os.Rename(f.tmpPath, f.path); err != nil {
		_ = os.Remove(f.tmpPath)
		return fmt.Errorf("atomic rename for %s: %w", f.path, err)
	}
	return nil
}

// Abort discards the temp file. Safe after Commit.
func (f *AtomicFile) Abort() {
	if f.closed {
		return
	}
	f.closed = true
	_ = f.File.Close()
	_ = os.Remove(f.tmpPath)
}

func WriteBytes(path string, data []byte) error {
	if err := Mkdir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("create parent for %s: %w", path, err)
	}
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return fmt.Errorf("write temp file for %s: %w", path, err)
	}
	return f.Commit()
}

func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON for %s: %w", path, err)
	}
	data = append(data, '\n')
	return WriteBytes(path, data)
}

func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse JSON %s: %w", path, err)
	}
	return nil
}

// EnsureWritableDir creates path if needed and proves a file can be created
// in it.
func EnsureWritableDir(path string) error {
	if err := Mkdir(path); err != nil {
		return err
	}
	f, err := os.CreateTemp(path, "phi-redact-check-*.tmp")
	if err != nil {
		return fmt.Errorf("write probe in %s: %w", path, err)
	}
	_ = f.Close()
	_ = os.Remove(f.Name())
	return nil
}
