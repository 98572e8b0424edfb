package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// AtomicFile is a temporary file that replaces its destination on Commit.
// Readers of the destination never observe a partially written file.
type AtomicFile struct {
	*os.File
	dest string
	done bool
}

// CreateAtomic opens a temporary file next to dest, creating parent
// directories as needed.
func CreateAtomic(dest string) (*AtomicFile, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(dest)+"-*")
	if err != nil {
		return nil, err
	}
	return &AtomicFile{File: tmp, dest: dest}, nil
}

// Commit syncs and closes the temporary file and renames it onto the
// destination.
func (f *AtomicFile) Commit() error {
	if f.done {
		return errors.New("fsutil: atomic file already finished")
	}
	f.done = true
	tmpPath := f.Name()
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, f.dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", f.dest, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (f *AtomicFile) Abort() {
	if f.done {
		return
	}
	f.done = true
	f.Close()
	os.Remove(f.Name())
}

// WriteFileAtomic writes data to path via CreateAtomic.
func WriteFileAtomic(path string, data []byte) error {
	f, err := CreateAtomic(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Abort()
		return err
	}
	return f.Commit()
}
