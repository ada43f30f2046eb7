// Package mapsurface holds the server-side map state: the accumulated photo
// markers, the single live-position marker and the view.
package mapsurface

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/geo"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

// Surface implements ports.MapSurface and ports.LivePositionSurface.
type Surface struct {
	store    ports.MarkerStore
	notifier ports.MapNotifier
	epsg     int
	logger   *slog.Logger

	mu   sync.RWMutex
	view domain.View
	live domain.Marker
}

// New creates a surface rendering in the given EPSG projection.
func New(store ports.MarkerStore, notifier ports.MapNotifier, epsg int, logger *slog.Logger) (*Surface, error) {
	if !geo.SupportedProjection(epsg) {
		return nil, fmt.Errorf("%w: %d", geo.ErrUnsupportedProjection, epsg)
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	origin, err := geom.XY{}.AsPoint()
	if err != nil {
		return nil, err
	}

	style := domain.LivePositionStyle
	return &Surface{
		store:    store,
		notifier: notifier,
		epsg:     epsg,
		logger:   logger.With("component", "mapsurface"),
		view: domain.View{
			Center:     origin,
			Zoom:       0,
			Projection: geo.ProjectionName(epsg),
		},
		live: domain.Marker{
			ID:       domain.LiveMarkerID,
			Kind:     domain.MarkerLivePosition,
			Geometry: geom.NewEmptyPoint(geom.DimXY),
			Style:    &style,
		},
	}, nil
}

// Projection returns the EPSG code of the view.
func (s *Surface) Projection() int {
	return s.epsg
}

// AddPhotoMarker stores a new photo marker at p and broadcasts it.
func (s *Surface) AddPhotoMarker(ctx context.Context, source string, p geom.Point) (domain.Marker, error) {
	m := domain.Marker{
		ID:        uuid.NewString(),
		Kind:      domain.MarkerPhoto,
		Source:    source,
		Geometry:  p,
		CreatedAt: time.Now(),
	}
	if c, err := geo.Unproject(p, s.epsg); err == nil {
		m.Position = &c
	}

	if err := s.store.SaveMarker(ctx, m); err != nil {
		return domain.Marker{}, fmt.Errorf("save marker: %w", err)
	}
	telemetry.MarkersAdded.WithLabelValues(string(domain.MarkerPhoto)).Inc()
	s.logger.Debug("Photo marker added", "id", m.ID, "source", source)

	s.notifier.NotifyMarkerAdded(ctx, m)
	return m, nil
}

// Recenter moves the view to p at the given zoom.
func (s *Surface) Recenter(ctx context.Context, p geom.Point, zoom float64) {
	s.mu.Lock()
	s.view.Center = p
	s.view.Zoom = zoom
	v := s.view
	s.mu.Unlock()

	s.notifier.NotifyViewChanged(ctx, v)
}

// SetLivePosition replaces the live marker geometry. A nil point clears it.
func (s *Surface) SetLivePosition(ctx context.Context, p *geom.Point) {
	s.mu.Lock()
	state := "available"
	if p == nil {
		s.live.Geometry = geom.NewEmptyPoint(geom.DimXY)
		s.live.Position = nil
		state = "unavailable"
	} else {
		s.live.Geometry = *p
		if c, err := geo.Unproject(*p, s.epsg); err == nil {
			s.live.Position = &c
		} else {
			s.live.Position = nil
		}
	}
	s.live.CreatedAt = time.Now()
	m := s.live
	s.mu.Unlock()

	telemetry.PositionUpdates.WithLabelValues(state).Inc()
	s.notifier.NotifyLivePosition(ctx, m)
}

// LiveMarker returns a copy of the live-position marker.
func (s *Surface) LiveMarker() domain.Marker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.live
}

// View returns the current view state.
func (s *Surface) View() domain.View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// Markers returns the photo markers in insertion order.
func (s *Surface) Markers(ctx context.Context) ([]domain.Marker, error) {
	return s.store.ListMarkers(ctx)
}

// Marker returns one photo marker.
func (s *Surface) Marker(ctx context.Context, id string) (*domain.Marker, error) {
	return s.store.GetMarker(ctx, id)
}

type nopNotifier struct{}

func (nopNotifier) NotifyMarkerAdded(context.Context, domain.Marker)  {}
func (nopNotifier) NotifyViewChanged(context.Context, domain.View)    {}
func (nopNotifier) NotifyLivePosition(context.Context, domain.Marker) {}
