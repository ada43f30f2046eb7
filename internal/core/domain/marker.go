package domain

import (
	"time"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/lcalzada-xor/photomap/internal/geo"
)

// MarkerKind tags a marker on the vector layer.
type MarkerKind string

const (
	MarkerPhoto        MarkerKind = "photo"
	MarkerLivePosition MarkerKind = "live_position"
)

// LiveMarkerID is the fixed identifier of the single live-position marker.
const LiveMarkerID = "live-position"

// MarkerStyle describes how a marker is drawn by the map client.
type MarkerStyle struct {
	Radius      float64 `json:"radius"`
	FillColor   string  `json:"fill"`
	StrokeColor string  `json:"stroke"`
	StrokeWidth float64 `json:"stroke_width"`
}

// LivePositionStyle is the fixed style of the live-position marker.
var LivePositionStyle = MarkerStyle{
	Radius:      6,
	FillColor:   "#3399CC",
	StrokeColor: "#fff",
	StrokeWidth: 2,
}

// Marker is a point on the vector layer. Geometry is in the map projection,
// Position is the same point in lon/lat. An empty Geometry means the marker
// is currently not drawn (live position unavailable).
type Marker struct {
	ID        string          `json:"id"`
	Kind      MarkerKind      `json:"kind"`
	Source    string          `json:"source,omitempty"`
	Geometry  geom.Point      `json:"geometry"`
	Position  *geo.Coordinate `json:"position,omitempty"`
	Style     *MarkerStyle    `json:"style,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// View is the map view state.
type View struct {
	Center     geom.Point `json:"center"`
	Zoom       float64    `json:"zoom"`
	Projection string     `json:"projection"`
}
