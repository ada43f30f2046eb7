// Package locator turns a selected photo into a map marker, or into an
// error record when it cannot be placed.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/photomap/internal/adapters/reader"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/geo"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

const (
	// DefaultHeaderBudget is how many leading bytes of a photo are read.
	DefaultHeaderBudget int64 = 65635
	// DefaultZoom is the zoom level the view animates to after a placement.
	DefaultZoom = 14
)

// Outcome labels for telemetry.PhotosProcessed.
const (
	OutcomeLocated       = "located"
	OutcomeSkipped       = "skipped"
	OutcomeInvalidFile   = "invalid_file"
	OutcomeNoGeolocation = "no_geolocation"
	OutcomeReadError     = "read_error"
	OutcomeMapError      = "map_error"
)

// ReadFunc reads up to maxBytes leading bytes of a file.
type ReadFunc func(ctx context.Context, file domain.PhotoFile, maxBytes int64) ([]byte, error)

// Locator implements ports.PhotoLocator.
type Locator struct {
	extractor ports.MetadataExtractor
	surface   ports.MapSurface
	sink      ports.ErrorSink
	read      ReadFunc
	budget    int64
	zoom      float64
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Locator.
type Option func(*Locator)

// WithHeaderBudget overrides the number of header bytes read per photo.
// A value <= 0 reads whole files.
func WithHeaderBudget(n int64) Option {
	return func(l *Locator) { l.budget = n }
}

// WithZoom overrides the zoom level used when recentering.
func WithZoom(z float64) Option {
	return func(l *Locator) { l.zoom = z }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithReader replaces the header reader.
func WithReader(fn ReadFunc) Option {
	return func(l *Locator) {
		if fn != nil {
			l.read = fn
		}
	}
}

// New creates a Locator.
func New(extractor ports.MetadataExtractor, surface ports.MapSurface, sink ports.ErrorSink, opts ...Option) *Locator {
	l := &Locator{
		extractor: extractor,
		surface:   surface,
		sink:      sink,
		read:      reader.ReadAsBuffer,
		budget:    DefaultHeaderBudget,
		zoom:      DefaultZoom,
		logger:    slog.Default(),
		tracer:    otel.Tracer("photomap/locator"),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "locator")
	return l
}

// Locate runs the pipeline for one file. It never returns an error: failures
// are appended to the error sink and a zero or NaN coordinate is dropped
// without a record.
func (l *Locator) Locate(ctx context.Context, file domain.PhotoFile) {
	ctx, span := l.tracer.Start(ctx, "locator.Locate")
	defer span.End()

	if file == nil {
		l.fail(span, "", domain.ErrInvalidFile, OutcomeInvalidFile)
		return
	}
	name := file.Name()
	span.SetAttributes(attribute.String("photo.name", name), attribute.Int64("photo.size", file.Size()))

	md, err := l.metadata(ctx, file)
	if err != nil {
		l.logger.Debug("Metadata read failed", "file", name, "error", err)
		l.fail(span, name, fmt.Errorf("%w: %v", domain.ErrMetadataRead, err), OutcomeReadError)
		return
	}
	if md == nil || !md.HasGeolocation() {
		l.fail(span, name, domain.ErrNoGeolocation, OutcomeNoGeolocation)
		return
	}

	lonDeg, lonMin, lonSec := md.DMS(domain.TagGPSLongitude)
	latDeg, latMin, latSec := md.DMS(domain.TagGPSLatitude)
	c := geo.Coordinate{
		Longitude: geo.ConvertDMS(lonDeg, lonMin, lonSec, md.String(domain.TagGPSLongitudeRef)),
		Latitude:  geo.ConvertDMS(latDeg, latMin, latSec, md.String(domain.TagGPSLatitudeRef)),
	}
	span.SetAttributes(attribute.Float64("photo.lng", c.Longitude), attribute.Float64("photo.lat", c.Latitude))

	if c.IsZeroOrNaN() {
		l.logger.Debug("Skipping photo with zero or NaN coordinate", "file", name, "lng", c.Longitude, "lat", c.Latitude)
		telemetry.PhotosProcessed.WithLabelValues(OutcomeSkipped).Inc()
		return
	}

	p, err := geo.Project(c, l.surface.Projection())
	if err != nil {
		l.mapFailure(span, name, err)
		return
	}
	if _, err := l.surface.AddPhotoMarker(ctx, name, p); err != nil {
		l.mapFailure(span, name, err)
		return
	}
	l.surface.Recenter(ctx, p, l.zoom)

	telemetry.PhotosProcessed.WithLabelValues(OutcomeLocated).Inc()
	l.logger.Info("Photo located", "file", name, "lng", c.Longitude, "lat", c.Latitude)
}

// metadata covers steps that may fail unexpectedly: the header read and the
// decode. A panicking extractor is reported like any other decode fault.
func (l *Locator) metadata(ctx context.Context, file domain.PhotoFile) (md domain.Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			md, err = nil, fmt.Errorf("extractor panic: %v", r)
		}
	}()

	buf, err := l.read(ctx, file, l.budget)
	if err != nil {
		return nil, err
	}
	return l.extractor.Extract(ctx, buf)
}

func (l *Locator) fail(span trace.Span, name string, err error, outcome string) {
	le := &domain.LocateError{File: name, Err: err}
	span.SetAttributes(attribute.String("photo.outcome", outcome))
	if !errors.Is(err, domain.ErrNoGeolocation) {
		span.SetStatus(codes.Error, le.Error())
	}
	telemetry.PhotosProcessed.WithLabelValues(outcome).Inc()
	l.sink.AppendError(le.Record())
}

// mapFailure is a fault on our side of the map boundary; it is logged but
// does not reach the error panel.
func (l *Locator) mapFailure(span trace.Span, name string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	telemetry.PhotosProcessed.WithLabelValues(OutcomeMapError).Inc()
	l.logger.Error("Failed to place photo marker", "file", name, "error", err)
}
