// Package reader reads photo files into memory, optionally bounded to their
// leading bytes.
package reader

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

// ReadAsBuffer reads the leading maxBytes bytes of file, or the whole file when
// maxBytes <= 0. Bytes past the budget are never requested from file.
func ReadAsBuffer(ctx context.Context, file domain.PhotoFile, maxBytes int64) ([]byte, error) {
	n := file.Size()
	if maxBytes > 0 && maxBytes < n {
		n = maxBytes
	}
	if n < 0 {
		return nil, fmt.Errorf("read %s: negative size %d", file.Name(), n)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(io.NewSectionReader(file, 0, n), buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", file.Name(), err)
	}

	telemetry.HeaderBytesRead.Observe(float64(n))
	return buf, nil
}

// File adapts any io.ReaderAt (a multipart upload, a bytes.Reader) to
// domain.PhotoFile.
type File struct {
	io.ReaderAt
	name string
	size int64
}

// NewFile wraps r with a display name and a size.
func NewFile(r io.ReaderAt, name string, size int64) *File {
	return &File{ReaderAt: r, name: name, size: size}
}

// NewMemFile wraps an in-memory photo.
func NewMemFile(name string, data []byte) *File {
	return NewFile(bytes.NewReader(data), name, int64(len(data)))
}

func (f *File) Name() string { return f.name }

func (f *File) Size() int64 { return f.size }

// DiskFile is a photo opened from the local filesystem.
type DiskFile struct {
	*os.File
	name string
	size int64
}

// Open opens path for reading. Name() reports the base name only.
func Open(path string) (*DiskFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &DiskFile{File: f, name: filepath.Base(path), size: info.Size()}, nil
}

func (f *DiskFile) Name() string { return f.name }

func (f *DiskFile) Size() int64 { return f.size }
