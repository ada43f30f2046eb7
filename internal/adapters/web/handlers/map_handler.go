package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

// MapReader exposes the map state for reading.
type MapReader interface {
	Markers(ctx context.Context) ([]domain.Marker, error)
	Marker(ctx context.Context, id string) (*domain.Marker, error)
	LiveMarker() domain.Marker
	View() domain.View
}

// MapHandler serves markers and view state
type MapHandler struct {
	Map MapReader
}

// NewMapHandler creates a new MapHandler
func NewMapHandler(m MapReader) *MapHandler {
	return &MapHandler{Map: m}
}

// HandleListMarkers returns the photo markers in insertion order
func (h *MapHandler) HandleListMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Map.Markers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list markers: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if markers == nil {
		markers = []domain.Marker{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(markers)
}

// HandleGetMarker returns one marker; the live-position marker is addressable
// by its fixed id
func (h *MapHandler) HandleGetMarker(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var marker domain.Marker
	if id == domain.LiveMarkerID {
		marker = h.Map.LiveMarker()
	} else {
		m, err := h.Map.Marker(r.Context(), id)
		if errors.Is(err, domain.ErrMarkerNotFound) {
			http.Error(w, "Marker not found", http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, "Failed to get marker: "+err.Error(), http.StatusInternalServerError)
			return
		}
		marker = *m
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(marker)
}

// HandleView returns the current view
func (h *MapHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Map.View())
}
