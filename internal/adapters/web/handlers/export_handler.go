package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/lcalzada-xor/photomap/internal/adapters/reporting"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/services/export"
)

// PanelReader exposes the current error panel.
type PanelReader interface {
	Panel() domain.ErrorPanel
}

// ExportHandler handles marker export
type ExportHandler struct {
	Map    MapReader
	Panel  PanelReader // optional, adds the error list to PDF reports
	PDF    *reporting.PDFExporter
	Logger *slog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(m MapReader, panel PanelReader, logger *slog.Logger) *ExportHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportHandler{Map: m, Panel: panel, PDF: reporting.NewPDFExporter(), Logger: logger}
}

// HandleGeoJSON exports photo markers as a GeoJSON FeatureCollection
func (h *ExportHandler) HandleGeoJSON(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Map.Markers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list markers: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Header().Set("Content-Disposition", "attachment; filename=photomap_markers.geojson")
	if err := export.ExportGeoJSON(w, markers); err != nil {
		h.Logger.Error("GeoJSON export error", "error", err)
	}
}

// HandleCSV exports photo markers as CSV
func (h *ExportHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Map.Markers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list markers: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=photomap_markers.csv")
	if err := export.ExportCSV(w, markers); err != nil {
		h.Logger.Error("CSV export error", "error", err)
	}
}

// HandlePDF renders photo markers and the current errors as a PDF report
func (h *ExportHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	markers, err := h.Map.Markers(r.Context())
	if err != nil {
		http.Error(w, "Failed to list markers: "+err.Error(), http.StatusInternalServerError)
		return
	}

	report := reporting.MarkerReport{
		GeneratedAt: time.Now(),
		Projection:  h.Map.View().Projection,
		Markers:     markers,
	}
	if h.Panel != nil {
		report.Errors = h.Panel.Panel().Errors
	}

	data, err := h.PDF.ExportMarkers(report)
	if err != nil {
		h.Logger.Error("PDF export error", "error", err)
		http.Error(w, "Failed to generate report", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=photomap_report.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
