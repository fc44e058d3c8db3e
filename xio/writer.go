// Package xio contains writers for harvest output.
package xio

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/wikimedia-pl/mbckit/atomicfile"
)

// File writes to a temporary file, optionally compressed by file extension
// (.zst, .gz). The file appears under its name after a successful Close.
type File struct {
	f  *atomicfile.File
	wc io.WriteCloser // compressor, if any
	w  io.Writer
}

// Create opens a new output file.
func Create(filename string) (*File, error) {
	f, err := atomicfile.New(filename)
	if err != nil {
		return nil, err
	}
	file := &File{f: f, w: f}
	switch {
	case strings.HasSuffix(filename, ".zst"):
		enc, err := zstd.NewWriter(f)
		if err != nil {
			_ = f.Abort()
			return nil, err
		}
		file.wc, file.w = enc, enc
	case strings.HasSuffix(filename, ".gz"):
		zw := pgzip.NewWriter(f)
		file.wc, file.w = zw, zw
	}
	return file, nil
}

func (f *File) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

// Close flushes the compressor and moves the file in place.
func (f *File) Close() error {
	if f.wc != nil {
		if err := f.wc.Close(); err != nil {
			_ = f.f.Abort()
			return err
		}
	}
	return f.f.Close()
}

// Abort discards everything written.
func (f *File) Abort() error {
	if f.wc != nil {
		_ = f.wc.Close()
	}
	return f.f.Abort()
}

// Open returns a reader for a file written by Create, decompressing by file
// extension.
func Open(filename string) (io.ReadCloser, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(filename, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloser{Reader: dec, close: func() error {
			dec.Close()
			return f.Close()
		}}, nil
	case strings.HasSuffix(filename, ".gz"):
		zr, err := pgzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloser{Reader: zr, close: func() error {
			zr.Close()
			return f.Close()
		}}, nil
	default:
		return f, nil
	}
}

type readCloser struct {
	io.Reader
	close func() error
}

func (r *readCloser) Close() error {
	return r.close()
}
