package locator

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/photomap/internal/adapters/reader"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/ports/mocks"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// recordingSink collects error records in order.
type recordingSink struct {
	mu      sync.Mutex
	records []domain.ErrorRecord
}

func (s *recordingSink) AppendError(rec domain.ErrorRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
}

func (s *recordingSink) strings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.String())
	}
	return out
}

func gpsMetadata(lon []float64, lonRef string, lat []float64, latRef string) domain.Metadata {
	return domain.Metadata{
		domain.TagGPSLongitude:    lon,
		domain.TagGPSLongitudeRef: lonRef,
		domain.TagGPSLatitude:     lat,
		domain.TagGPSLatitudeRef:  latRef,
	}
}

func pointAt(x, y float64) func(geom.Point) bool {
	return func(p geom.Point) bool {
		xy, ok := p.XY()
		return ok && math.Abs(xy.X-x) < 1e-9 && math.Abs(xy.Y-y) < 1e-9
	}
}

func TestLocate_ValidPhotoAddsMarkerAndRecenters(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{2, 30, 0}, "E", []float64{48, 0, 0}, "N"), nil)
	surface.On("Projection").Return(geo.EPSG4326)
	surface.On("AddPhotoMarker", mock.Anything, "paris.jpg", mock.MatchedBy(pointAt(2.5, 48))).
		Return(domain.Marker{ID: "m1"}, nil).Once()
	surface.On("Recenter", mock.Anything, mock.MatchedBy(pointAt(2.5, 48)), float64(14)).Once()

	l := New(extractor, surface, sink)
	l.Locate(context.Background(), reader.NewMemFile("paris.jpg", []byte("II*\x00header")))

	surface.AssertExpectations(t)
	surface.AssertNumberOfCalls(t, "AddPhotoMarker", 1)
	surface.AssertNumberOfCalls(t, "Recenter", 1)
	assert.Empty(t, sink.strings())
}

func TestLocate_ProjectsIntoSurfaceProjection(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	want, err := geo.Project(geo.Coordinate{Longitude: -2.5, Latitude: 48}, geo.EPSG3857)
	require.NoError(t, err)
	wxy, _ := want.XY()

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{2, 30, 0}, "W", []float64{48, 0, 0}, "N"), nil)
	surface.On("Projection").Return(geo.EPSG3857)
	surface.On("AddPhotoMarker", mock.Anything, "brest.jpg", mock.MatchedBy(pointAt(wxy.X, wxy.Y))).
		Return(domain.Marker{}, nil)
	surface.On("Recenter", mock.Anything, mock.Anything, float64(14))

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("brest.jpg", []byte("x")))

	surface.AssertExpectations(t)
	assert.Less(t, wxy.X, 0.0)
}

func TestLocate_NoGPSTags(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(domain.Metadata{"Make": "ACME"}, nil)

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("beach.jpg", []byte("x")))

	require.Len(t, sink.strings(), 1)
	assert.Equal(t, "beach.jpg: No Geolocation data present.", sink.strings()[0])
	surface.AssertNotCalled(t, "AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocate_OnlyOneCoordinateTag(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(domain.Metadata{domain.TagGPSLatitude: []float64{48, 0, 0}, domain.TagGPSLatitudeRef: "N"}, nil)

	New(extractor, new(mocks.MockMapSurface), sink).Locate(context.Background(), reader.NewMemFile("half.jpg", []byte("x")))

	assert.Equal(t, []string{"half.jpg: No Geolocation data present."}, sink.strings())
}

func TestLocate_AbsentMetadata(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, nil)

	New(extractor, new(mocks.MockMapSurface), sink).Locate(context.Background(), reader.NewMemFile("scan.png", []byte("x")))

	assert.Equal(t, []string{"scan.png: No Geolocation data present."}, sink.strings())
}

func TestLocate_ZeroCoordinateIsSilentlySkipped(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{0, 0, 0}, "N", []float64{48, 0, 0}, "N"), nil)

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("null-island.jpg", []byte("x")))

	assert.Empty(t, sink.strings())
	surface.AssertNotCalled(t, "AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything)
	surface.AssertNotCalled(t, "Recenter", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocate_MissingComponentIsSilentlySkipped(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{2, 30}, "E", []float64{48, 0, 0}, "N"), nil)

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("short.jpg", []byte("x")))

	assert.Empty(t, sink.strings())
	surface.AssertNotCalled(t, "AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocate_NilFile(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}
	readCalled := false

	l := New(extractor, new(mocks.MockMapSurface), sink, WithReader(
		func(context.Context, domain.PhotoFile, int64) ([]byte, error) {
			readCalled = true
			return nil, nil
		}))
	l.Locate(context.Background(), nil)

	assert.Equal(t, []string{"Not a valid file"}, sink.strings())
	assert.False(t, readCalled)
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestLocate_ReadFailure(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	l := New(extractor, new(mocks.MockMapSurface), sink, WithReader(
		func(context.Context, domain.PhotoFile, int64) ([]byte, error) {
			return nil, errors.New("device not ready")
		}))
	l.Locate(context.Background(), reader.NewMemFile("card.jpg", []byte("x")))

	assert.Equal(t, []string{"card.jpg: Error reading EXIF data"}, sink.strings())
	extractor.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
}

func TestLocate_DecodeFailure(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).Return(nil, errors.New("bad IFD offset"))

	New(extractor, new(mocks.MockMapSurface), sink).Locate(context.Background(), reader.NewMemFile("broken.jpg", []byte("x")))

	assert.Equal(t, []string{"broken.jpg: Error reading EXIF data"}, sink.strings())
}

func TestLocate_ExtractorPanic(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		panic("index out of range")
	})

	assert.NotPanics(t, func() {
		New(extractor, new(mocks.MockMapSurface), sink).Locate(context.Background(), reader.NewMemFile("odd.jpg", []byte("x")))
	})
	assert.Equal(t, []string{"odd.jpg: Error reading EXIF data"}, sink.strings())
}

func TestLocate_ReadsOnlyHeaderBudget(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.MatchedBy(func(buf []byte) bool {
		return int64(len(buf)) == DefaultHeaderBudget
	})).Return(nil, nil).Once()

	big := make([]byte, 4*DefaultHeaderBudget)
	New(extractor, new(mocks.MockMapSurface), sink).Locate(context.Background(), reader.NewMemFile("big.jpg", big))

	extractor.AssertExpectations(t)
}

func TestLocate_CustomBudgetAndZoom(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}
	var gotBudget int64

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{10, 0, 0}, "E", []float64{10, 0, 0}, "N"), nil)
	surface.On("Projection").Return(geo.EPSG4326)
	surface.On("AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything).Return(domain.Marker{}, nil)
	surface.On("Recenter", mock.Anything, mock.Anything, float64(9)).Once()

	l := New(extractor, surface, sink, WithZoom(9), WithHeaderBudget(128), WithReader(
		func(ctx context.Context, f domain.PhotoFile, maxBytes int64) ([]byte, error) {
			gotBudget = maxBytes
			return reader.ReadAsBuffer(ctx, f, maxBytes)
		}))
	l.Locate(context.Background(), reader.NewMemFile("z.jpg", make([]byte, 1024)))

	assert.Equal(t, int64(128), gotBudget)
	surface.AssertExpectations(t)
}

func TestLocate_SurfaceFailureIsNotAnErrorRecord(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{2, 30, 0}, "E", []float64{48, 0, 0}, "N"), nil)
	surface.On("Projection").Return(geo.EPSG4326)
	surface.On("AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything).Return(domain.Marker{}, errors.New("store closed"))

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("p.jpg", []byte("x")))

	assert.Empty(t, sink.strings())
	surface.AssertNotCalled(t, "Recenter", mock.Anything, mock.Anything, mock.Anything)
}

func TestLocate_InfiniteCoordinateIsDropped(t *testing.T) {
	extractor := new(mocks.MockExtractor)
	surface := new(mocks.MockMapSurface)
	sink := &recordingSink{}

	// 1/0 seconds decodes to +Inf, which is neither zero nor NaN.
	extractor.On("Extract", mock.Anything, mock.Anything).
		Return(gpsMetadata([]float64{2, 30, math.Inf(1)}, "E", []float64{48, 0, 0}, "N"), nil)
	surface.On("Projection").Return(geo.EPSG3857)

	New(extractor, surface, sink).Locate(context.Background(), reader.NewMemFile("inf.jpg", []byte("x")))

	assert.Empty(t, sink.strings())
	surface.AssertNotCalled(t, "AddPhotoMarker", mock.Anything, mock.Anything, mock.Anything)
	surface.AssertNotCalled(t, "Recenter", mock.Anything, mock.Anything, mock.Anything)
}
