package ports

import (
	"context"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// MetadataExtractor decodes metadata from a file's leading bytes.
// A nil Metadata with a nil error means the buffer carries no metadata;
// a non-nil error is a decode fault.
type MetadataExtractor interface {
	Extract(ctx context.Context, buf []byte) (domain.Metadata, error)
}

// PhotoLocator runs the geolocation pipeline for one file.
type PhotoLocator interface {
	Locate(ctx context.Context, file domain.PhotoFile)
}

// ErrorSink receives per-file error records.
type ErrorSink interface {
	AppendError(rec domain.ErrorRecord)
}

// MapSurface is the part of the map the pipeline drives.
type MapSurface interface {
	// AddPhotoMarker places a photo marker at p, given in Projection().
	AddPhotoMarker(ctx context.Context, source string, p geom.Point) (domain.Marker, error)
	// Recenter animates the view to p at the given zoom level.
	Recenter(ctx context.Context, p geom.Point, zoom float64)
	// Projection returns the EPSG code of the view.
	Projection() int
}

// LivePositionSurface is the part of the map driven by live tracking.
type LivePositionSurface interface {
	Projection() int
	// SetLivePosition replaces the live marker geometry; nil clears it.
	SetLivePosition(ctx context.Context, p *geom.Point)
}

// PositionSource streams device positions. A nil value means unavailable.
type PositionSource interface {
	Positions(ctx context.Context) <-chan *geo.Coordinate
}

// PositionReporter accepts position updates coming from a client device.
type PositionReporter interface {
	Report(c *geo.Coordinate)
}

// MarkerStore holds the photo markers of the current session.
type MarkerStore interface {
	SaveMarker(ctx context.Context, m domain.Marker) error
	GetMarker(ctx context.Context, id string) (*domain.Marker, error)
	ListMarkers(ctx context.Context) ([]domain.Marker, error)
	Close() error
}

// MapNotifier pushes map changes to connected clients.
type MapNotifier interface {
	NotifyMarkerAdded(ctx context.Context, m domain.Marker)
	NotifyViewChanged(ctx context.Context, v domain.View)
	NotifyLivePosition(ctx context.Context, m domain.Marker)
}

// ErrorsNotifier pushes the rendered error panel to connected clients.
type ErrorsNotifier interface {
	NotifyErrors(ctx context.Context, panel domain.ErrorPanel)
}
