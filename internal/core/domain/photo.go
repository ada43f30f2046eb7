package domain

import (
	"io"
	"math"
)

// PhotoFile is one user-selected photo. It is read through ReadAt so callers
// can bound how much of it is touched.
type PhotoFile interface {
	io.ReaderAt
	Name() string
	Size() int64
}

// EXIF tag names the geolocation pipeline relies on.
const (
	TagGPSLatitude     = "GPSLatitude"
	TagGPSLatitudeRef  = "GPSLatitudeRef"
	TagGPSLongitude    = "GPSLongitude"
	TagGPSLongitudeRef = "GPSLongitudeRef"
)

// Metadata maps EXIF tag names to decoded values. Rational and float tags
// decode to []float64, ASCII tags to string and integer tags to []int64.
// A nil Metadata means the buffer carried no metadata at all.
type Metadata map[string]any

// Has reports whether tag is present with a non-nil value.
func (m Metadata) Has(tag string) bool {
	v, ok := m[tag]
	if !ok || v == nil {
		return false
	}
	if f, ok := v.([]float64); ok && f == nil {
		return false
	}
	return true
}

// HasGeolocation reports whether both GPS coordinate tags are present.
func (m Metadata) HasGeolocation() bool {
	return m.Has(TagGPSLongitude) && m.Has(TagGPSLatitude)
}

// DMS returns the first three numeric components of tag. Components that are
// missing or not numeric come back as NaN.
func (m Metadata) DMS(tag string) (deg, min, sec float64) {
	out := [3]float64{math.NaN(), math.NaN(), math.NaN()}
	switch v := m[tag].(type) {
	case []float64:
		for i := 0; i < len(v) && i < 3; i++ {
			out[i] = v[i]
		}
	case []int64:
		for i := 0; i < len(v) && i < 3; i++ {
			out[i] = float64(v[i])
		}
	case float64:
		out[0] = v
	}
	return out[0], out[1], out[2]
}

// String returns the string value of tag, or "" when absent or not a string.
func (m Metadata) String(tag string) string {
	s, _ := m[tag].(string)
	return s
}
