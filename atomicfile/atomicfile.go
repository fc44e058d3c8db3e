// Package atomicfile writes files that appear under their final name only
// once they are complete.
package atomicfile

import (
	"os"
	"path/filepath"
)

// File behaves like os.File, but data is written to a temporary file in the
// same directory, which is renamed on Close.
type File struct {
	*os.File
	path string
}

// New creates a new temporary file that will be moved to path on Close.
func New(path string) (*File, error) {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &File{File: f, path: path}, nil
}

// Close closes the temporary file and renames it to the target path.
func (f *File) Close() error {
	if err := f.File.Close(); err != nil {
		return err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(f.Name(), f.path)
}

// Abort removes the temporary file, the target path is left untouched.
func (f *File) Abort() error {
	_ = f.File.Close()
	return os.Remove(f.Name())
}
