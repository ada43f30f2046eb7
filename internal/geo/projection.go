package geo

import (
	"errors"
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Supported map projections.
const (
	EPSG4326 = 4326 // WGS84 lon/lat
	EPSG3857 = 3857 // Web Mercator, the default view projection
)

// ErrUnsupportedProjection is returned for EPSG codes the map cannot render.
var ErrUnsupportedProjection = errors.New("unsupported projection")

// SupportedProjection reports whether epsg can be used as the map projection.
func SupportedProjection(epsg int) bool {
	return epsg == EPSG4326 || epsg == EPSG3857
}

// ProjectionName returns the "EPSG:<code>" form used by map clients.
func ProjectionName(epsg int) string {
	return fmt.Sprintf("EPSG:%d", epsg)
}

// Project transforms a lon/lat coordinate into the given map projection.
func Project(c Coordinate, epsg int) (geom.Point, error) {
	if !SupportedProjection(epsg) {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("%w: %d", ErrUnsupportedProjection, epsg)
	}
	x, y := c.Longitude, c.Latitude
	if epsg != EPSG4326 {
		f := wgs84.EPSG().Transform(EPSG4326, epsg)
		x, y, _ = f(c.Longitude, c.Latitude, 0)
	}
	return xyPoint(x, y)
}

// Unproject transforms a point in the given map projection back to lon/lat.
func Unproject(p geom.Point, epsg int) (Coordinate, error) {
	if !SupportedProjection(epsg) {
		return Coordinate{}, fmt.Errorf("%w: %d", ErrUnsupportedProjection, epsg)
	}
	coords, ok := p.Coordinates()
	if !ok {
		return Coordinate{}, errors.New("empty point")
	}
	lon, lat := coords.X, coords.Y
	if epsg != EPSG4326 {
		f := wgs84.EPSG().Transform(epsg, EPSG4326)
		lon, lat, _ = f(coords.X, coords.Y, 0)
	}
	return Coordinate{Longitude: lon, Latitude: lat}, nil
}

// xyPoint rejects non-finite components, e.g. a rational with a zero
// denominator that decoded to Inf.
func xyPoint(x, y float64) (geom.Point, error) {
	p, err := geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Type: geom.DimXY,
		},
	)
	if err != nil {
		return geom.NewEmptyPoint(geom.DimXY), fmt.Errorf("invalid point (%v, %v): %w", x, y, err)
	}
	return p, nil
}
