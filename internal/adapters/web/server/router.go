package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/photomap/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/photomap/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/photomap/internal/adapters/web/static"
)

func SetupRoutes(ctx context.Context, s *Server) http.Handler {
	r := mux.NewRouter()

	var uploadLimiter *middleware.RateLimiter
	if s.uploadsPerMinute > 0 {
		uploadLimiter = middleware.NewRateLimiter(ctx, s.uploadsPerMinute, time.Minute)
	}
	limitUploads := middleware.RateLimitMiddleware(uploadLimiter)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/photos", limitUploads(http.HandlerFunc(s.PhotoHandler.HandleUpload))).Methods(http.MethodPost)
	api.HandleFunc("/errors", s.PhotoHandler.HandleErrors).Methods(http.MethodGet)

	api.HandleFunc("/markers.geojson", s.ExportHandler.HandleGeoJSON).Methods(http.MethodGet)
	api.HandleFunc("/markers.csv", s.ExportHandler.HandleCSV).Methods(http.MethodGet)
	api.HandleFunc("/report.pdf", s.ExportHandler.HandlePDF).Methods(http.MethodGet)
	api.HandleFunc("/markers", s.MapHandler.HandleListMarkers).Methods(http.MethodGet)
	api.HandleFunc("/markers/{id}", s.MapHandler.HandleGetMarker).Methods(http.MethodGet)
	api.HandleFunc("/view", s.MapHandler.HandleView).Methods(http.MethodGet)
	api.HandleFunc("/position", s.PositionHandler.HandleReport).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", handlers.HandleHealth).Methods(http.MethodGet)

	r.PathPrefix("/").Handler(http.FileServer(http.FS(static.FS))).Methods(http.MethodGet, http.MethodHead)

	return r
}
