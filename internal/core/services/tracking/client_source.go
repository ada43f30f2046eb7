package tracking

import (
	"context"
	"sync"

	"github.com/lcalzada-xor/photomap/internal/geo"
)

// ClientSource is a PositionSource fed by browsers reporting
// navigator.geolocation updates. When the consumer lags, older updates are
// dropped in favour of the latest one.
type ClientSource struct {
	mu      sync.Mutex
	updates chan *geo.Coordinate
	last    *geo.Coordinate
	known   bool
}

// NewClientSource creates a source buffering up to size pending updates.
func NewClientSource(size int) *ClientSource {
	if size < 1 {
		size = 1
	}
	return &ClientSource{updates: make(chan *geo.Coordinate, size)}
}

// Report queues a position. A nil coordinate marks the position unavailable.
// It never blocks.
func (s *ClientSource) Report(c *geo.Coordinate) {
	var cp *geo.Coordinate
	if c != nil {
		v := *c
		cp = &v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last, s.known = cp, true

	for {
		select {
		case s.updates <- cp:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}

// Last returns the most recently reported position and whether any report
// was received.
func (s *ClientSource) Last() (*geo.Coordinate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.known
}

// Positions streams reported positions until ctx ends.
func (s *ClientSource) Positions(ctx context.Context) <-chan *geo.Coordinate {
	out := make(chan *geo.Coordinate)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case c := <-s.updates:
				select {
				case out <- c:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
