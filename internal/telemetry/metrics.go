package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// PhotosProcessed counts pipeline runs by outcome
	// (located, no_geolocation, read_error, invalid_file, skipped).
	PhotosProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photomap",
			Name:      "photos_processed_total",
			Help:      "Total number of photos run through the geolocation pipeline",
		},
		[]string{"outcome"},
	)

	// MarkersAdded counts markers placed on the vector layer
	MarkersAdded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photomap",
			Name:      "markers_added_total",
			Help:      "Total number of markers added to the map",
		},
		[]string{"kind"},
	)

	// HeaderBytesRead observes how many bytes were read per photo
	HeaderBytesRead = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "photomap",
			Name:      "header_bytes_read",
			Help:      "Bytes read from the head of each photo",
			Buckets:   []float64{0, 1024, 4096, 16384, 32768, 65635},
		},
	)

	// BatchesStarted counts photo selections
	BatchesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "photomap",
			Name:      "batches_started_total",
			Help:      "Total number of photo selections processed",
		},
	)

	// WSClients tracks connected websocket clients
	WSClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "photomap",
			Name:      "ws_clients",
			Help:      "Number of connected websocket clients",
		},
	)

	// PositionUpdates counts live position updates (available, unavailable)
	PositionUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photomap",
			Name:      "position_updates_total",
			Help:      "Total number of live position updates applied to the map",
		},
		[]string{"state"},
	)

	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry.
// Safe to call more than once.
func InitMetrics() {
	once.Do(func() {
		prometheus.DefaultRegisterer.Register(PhotosProcessed)
		prometheus.DefaultRegisterer.Register(MarkersAdded)
		prometheus.DefaultRegisterer.Register(HeaderBytesRead)
		prometheus.DefaultRegisterer.Register(BatchesStarted)
		prometheus.DefaultRegisterer.Register(WSClients)
		prometheus.DefaultRegisterer.Register(PositionUpdates)
	})
}
