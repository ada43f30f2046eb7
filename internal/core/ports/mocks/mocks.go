// Package mocks holds testify mocks of the core ports.
package mocks

import (
	"context"

	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/stretchr/testify/mock"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// MockExtractor is a mock of ports.MetadataExtractor
type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, buf []byte) (domain.Metadata, error) {
	args := m.Called(ctx, buf)
	md, _ := args.Get(0).(domain.Metadata)
	return md, args.Error(1)
}

// MockMapSurface is a mock of ports.MapSurface and ports.LivePositionSurface
type MockMapSurface struct {
	mock.Mock
}

func (m *MockMapSurface) AddPhotoMarker(ctx context.Context, source string, p geom.Point) (domain.Marker, error) {
	args := m.Called(ctx, source, p)
	return args.Get(0).(domain.Marker), args.Error(1)
}

func (m *MockMapSurface) Recenter(ctx context.Context, p geom.Point, zoom float64) {
	m.Called(ctx, p, zoom)
}

func (m *MockMapSurface) Projection() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockMapSurface) SetLivePosition(ctx context.Context, p *geom.Point) {
	m.Called(ctx, p)
}

// MockErrorSink is a mock of ports.ErrorSink
type MockErrorSink struct {
	mock.Mock
}

func (m *MockErrorSink) AppendError(rec domain.ErrorRecord) {
	m.Called(rec)
}

// MockMarkerStore is a mock of ports.MarkerStore
type MockMarkerStore struct {
	mock.Mock
}

func (m *MockMarkerStore) SaveMarker(ctx context.Context, marker domain.Marker) error {
	args := m.Called(ctx, marker)
	return args.Error(0)
}

func (m *MockMarkerStore) GetMarker(ctx context.Context, id string) (*domain.Marker, error) {
	args := m.Called(ctx, id)
	marker, _ := args.Get(0).(*domain.Marker)
	return marker, args.Error(1)
}

func (m *MockMarkerStore) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	args := m.Called(ctx)
	markers, _ := args.Get(0).([]domain.Marker)
	return markers, args.Error(1)
}

func (m *MockMarkerStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockNotifier is a mock of ports.MapNotifier and ports.ErrorsNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyMarkerAdded(ctx context.Context, marker domain.Marker) {
	m.Called(ctx, marker)
}

func (m *MockNotifier) NotifyViewChanged(ctx context.Context, v domain.View) {
	m.Called(ctx, v)
}

func (m *MockNotifier) NotifyLivePosition(ctx context.Context, marker domain.Marker) {
	m.Called(ctx, marker)
}

func (m *MockNotifier) NotifyErrors(ctx context.Context, panel domain.ErrorPanel) {
	m.Called(ctx, panel)
}

// MockPositionReporter is a mock of ports.PositionReporter
type MockPositionReporter struct {
	mock.Mock
}

func (m *MockPositionReporter) Report(c *geo.Coordinate) {
	m.Called(c)
}
