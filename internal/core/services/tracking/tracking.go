// Package tracking keeps the live-position marker in step with the device
// position.
package tracking

import (
	"context"
	"log/slog"

	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// Tracker forwards position updates to the map surface.
type Tracker struct {
	source  ports.PositionSource
	surface ports.LivePositionSurface
	logger  *slog.Logger
}

// New creates a tracker.
func New(source ports.PositionSource, surface ports.LivePositionSurface, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{source: source, surface: surface, logger: logger.With("component", "tracking")}
}

// EnableTracking subscribes to the source and applies every update until ctx
// ends or the source closes. The returned channel is closed when tracking
// stops. Failures are only logged.
func (t *Tracker) EnableTracking(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	updates := t.source.Positions(ctx)

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-updates:
				if !ok {
					return
				}
				t.apply(ctx, c)
			}
		}
	}()
	return done
}

func (t *Tracker) apply(ctx context.Context, c *geo.Coordinate) {
	if c == nil {
		t.surface.SetLivePosition(ctx, nil)
		return
	}
	p, err := geo.Project(*c, t.surface.Projection())
	if err != nil {
		t.logger.Debug("Dropping position update", "error", err)
		return
	}
	t.surface.SetLivePosition(ctx, &p)
}
