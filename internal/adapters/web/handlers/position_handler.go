package handlers

import (
	"io"
	"net/http"

	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

// PositionHandler accepts device positions over plain HTTP
type PositionHandler struct {
	Reporter ports.PositionReporter
}

// NewPositionHandler creates a new PositionHandler. reporter may be nil when
// the live position does not come from clients.
func NewPositionHandler(reporter ports.PositionReporter) *PositionHandler {
	return &PositionHandler{Reporter: reporter}
}

// HandleReport takes {"lat":..,"lng":..}, or null when the position is
// unavailable
func (h *PositionHandler) HandleReport(w http.ResponseWriter, r *http.Request) {
	if h.Reporter == nil {
		http.Error(w, "Client position tracking is disabled", http.StatusConflict)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 4096))
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	c, err := geo.ParsePosition(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.Reporter.Report(c)
	w.WriteHeader(http.StatusAccepted)
}
