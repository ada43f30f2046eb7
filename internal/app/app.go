package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/lcalzada-xor/photomap/internal/adapters/exif"
	"github.com/lcalzada-xor/photomap/internal/adapters/storage"
	webserver "github.com/lcalzada-xor/photomap/internal/adapters/web/server"
	"github.com/lcalzada-xor/photomap/internal/adapters/web/websocket"
	"github.com/lcalzada-xor/photomap/internal/config"
	"github.com/lcalzada-xor/photomap/internal/core/ports"
	"github.com/lcalzada-xor/photomap/internal/core/services/locator"
	"github.com/lcalzada-xor/photomap/internal/core/services/mapsurface"
	"github.com/lcalzada-xor/photomap/internal/core/services/shell"
	"github.com/lcalzada-xor/photomap/internal/core/services/tracking"
	"github.com/lcalzada-xor/photomap/internal/geo"
	"github.com/lcalzada-xor/photomap/internal/telemetry"
)

// Application holds all the components of the system.
type Application struct {
	Config *config.Config

	Store     ports.MarkerStore
	Surface   *mapsurface.Surface
	Shell     *shell.Shell
	Locator   *locator.Locator
	Extractor ports.MetadataExtractor

	// Tracker is nil when tracking is disabled.
	Tracker *tracking.Tracker
	// ClientSource is set only when positions come from browsers.
	ClientSource *tracking.ClientSource

	WSManager *websocket.WSManager
	WebServer *webserver.Server

	logger *slog.Logger
}

// New creates and wires a new Application instance.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &Application{
		Config: cfg,
		logger: logger,
	}

	if err := app.bootstrap(); err != nil {
		app.Close()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}

	return app, nil
}

func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	if err := app.initStorage(); err != nil {
		return err
	}

	app.WSManager = websocket.NewWSManager(app.Config.WS.AllowedOrigins, app.logger)

	if err := app.initPipeline(); err != nil {
		return err
	}

	app.initTracking()
	app.initServers()
	return nil
}

func (app *Application) initStorage() error {
	store, err := storage.NewSQLiteAdapter(app.Config.DB.DSN)
	if err != nil {
		return fmt.Errorf("failed to open marker store: %w", err)
	}
	app.Store = store
	return nil
}

func (app *Application) initPipeline() error {
	surface, err := mapsurface.New(app.Store, app.WSManager, app.Config.Map.Projection, app.logger)
	if err != nil {
		return err
	}
	app.Surface = surface

	extractor, err := NewExtractor(app.Config.Exif, app.logger)
	if err != nil {
		return err
	}
	app.Extractor = extractor

	app.Shell = shell.New(app.WSManager, app.logger)
	app.Locator = locator.New(extractor, app.Surface, app.Shell,
		locator.WithHeaderBudget(app.Config.Exif.MaxBytes),
		locator.WithZoom(app.Config.Map.Zoom),
		locator.WithLogger(app.logger),
	)
	app.Shell.SetLocator(app.Locator)
	return nil
}

// NewExtractor builds the metadata extractor selected by cfg.Backend.
func NewExtractor(cfg config.ExifConfig, logger *slog.Logger) (ports.MetadataExtractor, error) {
	switch cfg.Backend {
	case config.BackendExifTool:
		et, err := exif.NewExifTool(cfg.ExiftoolPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to start exiftool: %w", err)
		}
		return et, nil
	case config.BackendGoExif, "":
		return exif.NewGoExif(logger), nil
	default:
		return nil, fmt.Errorf("unknown exif backend %q", cfg.Backend)
	}
}

func (app *Application) initTracking() {
	switch app.Config.Tracking.Source {
	case config.TrackingClient:
		app.ClientSource = tracking.NewClientSource(8)
		app.WSManager.SetPositionReporter(app.ClientSource)
		app.Tracker = tracking.New(app.ClientSource, app.Surface, app.logger)
	case config.TrackingStatic:
		static := geo.NewStaticProvider(app.Config.Tracking.Lat, app.Config.Tracking.Lng)
		app.Tracker = tracking.New(static, app.Surface, app.logger)
	}
}

func (app *Application) initServers() {
	app.WSManager.SetSnapshot(app.snapshot)

	deps := webserver.Deps{
		Shell:            app.Shell,
		Map:              app.Surface,
		WSManager:        app.WSManager,
		Logger:           app.logger,
		MaxUploadMemory:  app.Config.Upload.MaxMemory,
		UploadsPerMinute: app.Config.Upload.RateLimit,
	}
	// Left nil rather than a typed nil so the handler reports 409.
	if app.ClientSource != nil {
		deps.Positions = app.ClientSource
	}
	app.WebServer = webserver.NewServer(app.Config.Addr, deps)
}

func (app *Application) snapshot(ctx context.Context) (websocket.Snapshot, error) {
	markers, err := app.Surface.Markers(ctx)
	if err != nil {
		return websocket.Snapshot{}, err
	}
	return websocket.Snapshot{
		Markers: markers,
		Live:    app.Surface.LiveMarker(),
		View:    app.Surface.View(),
		Errors:  app.Shell.Panel(),
	}, nil
}

// Run starts the application components and blocks until ctx ends or the
// web server fails.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("Starting photomap components...")

	if app.Tracker != nil {
		app.Tracker.EnableTracking(ctx)
		app.logger.Info("Live position tracking enabled", "source", app.Config.Tracking.Source)
	}

	errChan := make(chan error, 1)
	serverDone := make(chan struct{})

	go func() {
		defer close(serverDone)
		app.logger.Info("Web Server listening", "addr", app.Config.Addr)
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	app.logger.Info("photomap ready. Press Ctrl+C to terminate.")

	var runErr error
	select {
	case <-ctx.Done():
		app.logger.Info("Termination signal received")
		// uploads still in flight need the store and extractor
		<-serverDone
		select {
		case runErr = <-errChan:
		default:
		}
	case runErr = <-errChan:
	}

	return errors.Join(runErr, app.Close())
}

// Close releases the extractor and the marker store. It is safe to call
// on a partially bootstrapped application.
func (app *Application) Close() error {
	app.logger.Info("Cleaning up resources...")

	var errs []error
	if c, ok := app.Extractor.(io.Closer); ok {
		errs = append(errs, c.Close())
		app.Extractor = nil
	}
	if app.Store != nil {
		errs = append(errs, app.Store.Close())
		app.Store = nil
	}
	return errors.Join(errs...)
}
