package storage

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// toModel converts a domain marker to its database model.
func toModel(m domain.Marker) (MarkerModel, error) {
	model := MarkerModel{
		ID:        m.ID,
		Kind:      string(m.Kind),
		Source:    m.Source,
		Geometry:  m.Geometry.AsBinary(),
		CreatedAt: m.CreatedAt,
	}
	if m.Position != nil {
		model.Longitude = m.Position.Longitude
		model.Latitude = m.Position.Latitude
	}
	return model, nil
}

// toDomain converts a database model back to a domain marker.
func toDomain(m MarkerModel) (*domain.Marker, error) {
	g, err := geom.UnmarshalWKB(m.Geometry)
	if err != nil {
		return nil, fmt.Errorf("marker %s: decode geometry: %w", m.ID, err)
	}
	pt, ok := g.AsPoint()
	if !ok {
		return nil, fmt.Errorf("marker %s: expected point geometry, got %s", m.ID, g.Type())
	}

	marker := &domain.Marker{
		ID:        m.ID,
		Kind:      domain.MarkerKind(m.Kind),
		Source:    m.Source,
		Geometry:  pt,
		Position:  &geo.Coordinate{Longitude: m.Longitude, Latitude: m.Latitude},
		CreatedAt: m.CreatedAt,
	}
	if marker.Kind == domain.MarkerLivePosition {
		style := domain.LivePositionStyle
		marker.Style = &style
	}
	return marker, nil
}
