package exif

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/barasher/go-exiftool"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

// ExifTool extracts GPS metadata by handing the header bytes to a persistent
// exiftool process. Coordinates come back in decimal degrees, so tuples are
// shaped as (dd, 0, 0) with the reference letter kept separately.
type ExifTool struct {
	et     *exiftool.Exiftool
	tmpDir string
	logger *slog.Logger
}

// NewExifTool starts exiftool. binaryPath may be empty to use $PATH.
func NewExifTool(binaryPath string, logger *slog.Logger) (*ExifTool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []func(*exiftool.Exiftool) error{exiftool.NoPrintConversion()}
	if binaryPath != "" {
		opts = append(opts, exiftool.SetExiftoolBinaryPath(binaryPath))
	}
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExifTool{et: et, tmpDir: os.TempDir(), logger: logger.With("component", "exif.exiftool")}, nil
}

// Extract writes buf to a temp file and reads its fields back.
func (e *ExifTool) Extract(ctx context.Context, buf []byte) (domain.Metadata, error) {
	if !HasPayload(buf) {
		return nil, nil
	}

	f, err := os.CreateTemp(e.tmpDir, "photomap-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close temp file: %w", err)
	}

	results := e.et.ExtractMetadata(f.Name())
	if len(results) == 0 {
		return nil, errors.New("exiftool returned no result")
	}
	if results[0].Err != nil {
		return nil, fmt.Errorf("exiftool: %w", results[0].Err)
	}
	return fieldsToMetadata(results[0]), nil
}

// Close stops the exiftool process.
func (e *ExifTool) Close() error {
	return e.et.Close()
}

// fieldsToMetadata keeps the raw fields and reshapes the GPS coordinates into
// DMS tuples. Coordinates are made unsigned since the reference letter
// carries the sign.
func fieldsToMetadata(fm exiftool.FileMetadata) domain.Metadata {
	md := make(domain.Metadata, len(fm.Fields))
	for k, v := range fm.Fields {
		md[k] = v
	}

	for _, pair := range [][2]string{
		{domain.TagGPSLatitude, domain.TagGPSLatitudeRef},
		{domain.TagGPSLongitude, domain.TagGPSLongitudeRef},
	} {
		tag, ref := pair[0], pair[1]
		v, err := fm.GetFloat(tag)
		if err != nil {
			delete(md, tag)
			continue
		}
		md[tag] = []float64{math.Abs(v), 0, 0}

		if s, err := fm.GetString(ref); err == nil {
			md[ref] = s
		} else {
			delete(md, ref)
		}
	}
	return md
}
