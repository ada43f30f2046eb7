// Package exif implements ports.MetadataExtractor on top of EXIF libraries.
package exif

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

var (
	exifMarker = []byte("Exif\x00\x00")
	tiffLE     = []byte("II*\x00")
	tiffBE     = []byte("MM\x00*")
)

// HasPayload reports whether buf looks like it carries EXIF data: a bare TIFF
// header or an "Exif\0\0" APP1 payload somewhere in the header bytes.
func HasPayload(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	if bytes.HasPrefix(buf, tiffLE) || bytes.HasPrefix(buf, tiffBE) {
		return true
	}
	return bytes.Contains(buf, exifMarker)
}

// GoExif decodes EXIF in-process with rwcarlsen/goexif.
type GoExif struct {
	logger *slog.Logger
}

// NewGoExif creates the in-process extractor.
func NewGoExif(logger *slog.Logger) *GoExif {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoExif{logger: logger.With("component", "exif.goexif")}
}

// Extract decodes every tag goexif knows into a Metadata map. Buffers without
// an EXIF payload yield (nil, nil). Panics inside the decoder are turned into
// errors.
func (g *GoExif) Extract(ctx context.Context, buf []byte) (md domain.Metadata, err error) {
	if !HasPayload(buf) {
		return nil, nil
	}

	defer func() {
		if r := recover(); r != nil {
			md, err = nil, fmt.Errorf("exif decoder panic: %v", r)
		}
	}()

	x, err := exif.Decode(bytes.NewReader(buf))
	if err != nil {
		if x == nil || exif.IsCriticalError(err) {
			return nil, fmt.Errorf("decode exif: %w", err)
		}
		// Sub-IFD failures leave the main directory usable.
		g.logger.Debug("Partial EXIF decode", "error", err)
	}

	w := &tagWalker{md: make(domain.Metadata)}
	if err := x.Walk(w); err != nil {
		return nil, fmt.Errorf("walk exif: %w", err)
	}
	return w.md, nil
}

type tagWalker struct {
	md domain.Metadata
}

func (w *tagWalker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	if v, ok := tagValue(tag); ok {
		w.md[string(name)] = v
	}
	return nil
}

// tagValue converts a TIFF tag into the Metadata value representation.
func tagValue(tag *tiff.Tag) (any, bool) {
	n := int(tag.Count)
	switch tag.Format() {
	case tiff.RatVal:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, float64(num)/float64(den))
		}
		return vals, true
	case tiff.FloatVal:
		vals := make([]float64, 0, n)
		for i := 0; i < n; i++ {
			f, err := tag.Float(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, f)
		}
		return vals, true
	case tiff.IntVal:
		vals := make([]int64, 0, n)
		for i := 0; i < n; i++ {
			v, err := tag.Int64(i)
			if err != nil {
				return nil, false
			}
			vals = append(vals, v)
		}
		return vals, true
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		return s, true
	default:
		return nil, false
	}
}
