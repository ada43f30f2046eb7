package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

// FeatureCollection builds a GeoJSON collection of the markers in lon/lat.
// Markers without a position (a cleared live marker) are left out.
func FeatureCollection(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		if m.Position == nil {
			continue
		}
		f := geojson.NewFeature(orb.Point{m.Position.Longitude, m.Position.Latitude})
		f.ID = m.ID
		f.Properties["kind"] = string(m.Kind)
		if m.Source != "" {
			f.Properties["source"] = m.Source
		}
		if !m.CreatedAt.IsZero() {
			f.Properties["created_at"] = m.CreatedAt.Format(time.RFC3339)
		}
		fc.Append(f)
	}
	return fc
}

// ExportGeoJSON writes markers as a GeoJSON FeatureCollection
func ExportGeoJSON(w io.Writer, markers []domain.Marker) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(FeatureCollection(markers))
}

// ExportCSV writes markers as CSV with headers
func ExportCSV(w io.Writer, markers []domain.Marker) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	headers := []string{"ID", "Kind", "Source", "Longitude", "Latitude", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return err
	}

	for _, m := range markers {
		lng, lat := "", ""
		if m.Position != nil {
			lng = fmt.Sprintf("%.6f", m.Position.Longitude)
			lat = fmt.Sprintf("%.6f", m.Position.Latitude)
		}
		row := []string{
			m.ID,
			string(m.Kind),
			m.Source,
			lng,
			lat,
			m.CreatedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
