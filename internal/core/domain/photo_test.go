package domain

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_HasGeolocation(t *testing.T) {
	tests := []struct {
		name string
		md   Metadata
		want bool
	}{
		{"nil metadata", nil, false},
		{"no gps tags", Metadata{"Make": "ACME"}, false},
		{"latitude only", Metadata{TagGPSLatitude: []float64{48, 0, 0}}, false},
		{"longitude only", Metadata{TagGPSLongitude: []float64{2, 30, 0}}, false},
		{"nil slice counts as absent", Metadata{TagGPSLatitude: []float64(nil), TagGPSLongitude: []float64{2, 30, 0}}, false},
		{"both present", Metadata{TagGPSLatitude: []float64{48, 0, 0}, TagGPSLongitude: []float64{2, 30, 0}}, true},
		{"empty tuples are still present", Metadata{TagGPSLatitude: []float64{}, TagGPSLongitude: []float64{}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.md.HasGeolocation())
		})
	}
}

func TestMetadata_DMS(t *testing.T) {
	md := Metadata{
		"full":    []float64{48, 51, 29.64},
		"short":   []float64{12},
		"ints":    []int64{1, 2, 3},
		"text":    "not numeric",
		"longer":  []float64{1, 2, 3, 4},
		"decimal": 7.25,
	}

	d, m, s := md.DMS("full")
	assert.Equal(t, []float64{48, 51, 29.64}, []float64{d, m, s})

	d, m, s = md.DMS("short")
	assert.Equal(t, 12.0, d)
	assert.True(t, math.IsNaN(m))
	assert.True(t, math.IsNaN(s))

	d, m, s = md.DMS("ints")
	assert.Equal(t, []float64{1, 2, 3}, []float64{d, m, s})

	d, _, _ = md.DMS("text")
	assert.True(t, math.IsNaN(d))

	d, m, s = md.DMS("longer")
	assert.Equal(t, []float64{1, 2, 3}, []float64{d, m, s})

	d, m, _ = md.DMS("decimal")
	assert.Equal(t, 7.25, d)
	assert.True(t, math.IsNaN(m))
}

func TestMetadata_String(t *testing.T) {
	md := Metadata{TagGPSLatitudeRef: "N", "count": []int64{1}}
	assert.Equal(t, "N", md.String(TagGPSLatitudeRef))
	assert.Equal(t, "", md.String("count"))
	assert.Equal(t, "", md.String("missing"))
}

func TestLocateError_Record(t *testing.T) {
	tests := []struct {
		err  *LocateError
		want string
	}{
		{&LocateError{Err: ErrInvalidFile}, "Not a valid file"},
		{&LocateError{File: "beach.jpg", Err: ErrNoGeolocation}, "beach.jpg: No Geolocation data present."},
		{&LocateError{File: "broken.jpg", Err: fmt.Errorf("%w: %w", ErrMetadataRead, assert.AnError)}, "broken.jpg: Error reading EXIF data"},
		{&LocateError{File: "odd.jpg", Err: assert.AnError}, "odd.jpg: Error reading EXIF data"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Record().String())
		assert.Equal(t, tt.want, tt.err.Error())
		assert.ErrorIs(t, tt.err, tt.err.Err)
	}
}
