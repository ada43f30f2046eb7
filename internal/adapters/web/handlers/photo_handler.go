package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/lcalzada-xor/photomap/internal/adapters/reader"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/services/shell"
)

// PhotoField is the multipart field carrying the selected photos.
const PhotoField = "photos"

// DefaultMaxMemory is the part of an upload kept in memory; the rest spills
// to temporary files.
const DefaultMaxMemory = 32 << 20

// PhotoShell is the part of the application shell the photo handler drives.
type PhotoShell interface {
	SelectPhotos(ctx context.Context, files []domain.PhotoFile) *shell.Batch
	Panel() domain.ErrorPanel
}

// PhotoHandler accepts photo selections
type PhotoHandler struct {
	Shell     PhotoShell
	MaxMemory int64
	Logger    *slog.Logger
}

// NewPhotoHandler creates a new PhotoHandler
func NewPhotoHandler(sh PhotoShell, maxMemory int64, logger *slog.Logger) *PhotoHandler {
	if maxMemory <= 0 {
		maxMemory = DefaultMaxMemory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotoHandler{Shell: sh, MaxMemory: maxMemory, Logger: logger}
}

type batchResponse struct {
	Batch  *shell.Batch      `json:"batch"`
	Errors domain.ErrorPanel `json:"errors"`
}

// HandleUpload starts one batch with every file of the "photos" field. It
// answers once all of the batch's files are processed because uploaded
// parts only live as long as the request.
func (h *PhotoHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.MaxMemory); err != nil {
		http.Error(w, "Invalid multipart body: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[PhotoField]
	files := make([]domain.PhotoFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.Logger.Warn("Failed to open uploaded part", "file", fh.Filename, "error", err)
			files = append(files, nil)
			continue
		}
		opened = append(opened, f)
		files = append(files, reader.NewFile(f, fh.Filename, fh.Size))
	}

	batch := h.Shell.SelectPhotos(r.Context(), files)
	batch.Wait()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(batchResponse{Batch: batch, Errors: h.Shell.Panel()})
}

// HandleErrors returns the current error panel
func (h *PhotoHandler) HandleErrors(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Shell.Panel())
}
