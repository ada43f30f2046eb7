package geo

import (
	"context"
	"math"
)

// Coordinate is a decimal-degree position. Longitude comes first, southern
// latitudes and western longitudes are negative.
type Coordinate struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

// IsZeroOrNaN reports whether either component is 0 or NaN.
func (c Coordinate) IsZeroOrNaN() bool {
	return !Truthy(c.Longitude) || !Truthy(c.Latitude)
}

// Truthy reports whether v is neither 0 nor NaN.
func Truthy(v float64) bool {
	return v != 0 && !math.IsNaN(v)
}

// Provider defines the interface for obtaining the device location.
// A nil coordinate on the channel means the position became unavailable.
type Provider interface {
	Positions(ctx context.Context) <-chan *Coordinate
}

// StaticProvider implements Provider with a fixed location.
type StaticProvider struct {
	Lat float64
	Lng float64
}

// NewStaticProvider creates a provider that always returns the same location.
func NewStaticProvider(lat, lng float64) *StaticProvider {
	return &StaticProvider{
		Lat: lat,
		Lng: lng,
	}
}

// GetLocation returns the fixed location.
func (s *StaticProvider) GetLocation() Coordinate {
	return Coordinate{
		Longitude: s.Lng,
		Latitude:  s.Lat,
	}
}

// Positions emits the fixed location once and closes the channel when ctx ends.
func (s *StaticProvider) Positions(ctx context.Context) <-chan *Coordinate {
	ch := make(chan *Coordinate, 1)
	loc := s.GetLocation()
	ch <- &loc
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch
}
