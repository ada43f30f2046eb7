package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/photomap/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/photomap/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Shell     handlers.PhotoShell
	Map       handlers.MapReader
	Positions ports.PositionReporter // nil when positions do not come from clients
	WSManager *websocket.WSManager
	Logger    *slog.Logger

	MaxUploadMemory int64
	// UploadsPerMinute limits photo batches per client host; 0 disables it.
	UploadsPerMinute int
}

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr            string
	WSManager       *websocket.WSManager
	PhotoHandler    *handlers.PhotoHandler
	MapHandler      *handlers.MapHandler
	ExportHandler   *handlers.ExportHandler
	PositionHandler *handlers.PositionHandler

	uploadsPerMinute int
	logger           *slog.Logger
	srv              *http.Server
}

// NewServer creates a new web server.
func NewServer(addr string, d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	return &Server{
		Addr:             addr,
		WSManager:        d.WSManager,
		PhotoHandler:     handlers.NewPhotoHandler(d.Shell, d.MaxUploadMemory, logger),
		MapHandler:       handlers.NewMapHandler(d.Map),
		ExportHandler:    handlers.NewExportHandler(d.Map, d.Shell, logger),
		PositionHandler:  handlers.NewPositionHandler(d.Positions),
		uploadsPerMinute: d.UploadsPerMinute,
		logger:           logger,
	}
}

// Handler builds the instrumented route tree.
func (s *Server) Handler(ctx context.Context) http.Handler {
	return otelhttp.NewHandler(SetupRoutes(ctx, s), "photomap-server")
}

// Run starts the WebSocket manager and serves until ctx ends. It returns
// once in-flight requests have drained or the shutdown timeout expired.
func (s *Server) Run(ctx context.Context) error {
	s.WSManager.Start(ctx)

	s.srv = &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		s.logger.Info("Web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Web server shutdown error", "error", err)
		}
	}()

	s.logger.Info("Web server listening", "addr", s.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	// ListenAndServe returns as soon as Shutdown starts; in-flight uploads
	// are still draining until it returns.
	<-shutdownDone
	return nil
}
