// Command photolocate runs the geolocation pipeline over photos on disk and
// prints the resulting markers. Per-file errors go to stderr.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/lcalzada-xor/photomap/internal/adapters/reader"
	"github.com/lcalzada-xor/photomap/internal/adapters/storage"
	"github.com/lcalzada-xor/photomap/internal/app"
	"github.com/lcalzada-xor/photomap/internal/config"
	"github.com/lcalzada-xor/photomap/internal/core/domain"
	"github.com/lcalzada-xor/photomap/internal/core/services/export"
	"github.com/lcalzada-xor/photomap/internal/core/services/locator"
	"github.com/lcalzada-xor/photomap/internal/core/services/mapsurface"
	"github.com/lcalzada-xor/photomap/internal/core/services/shell"
	"github.com/lcalzada-xor/photomap/internal/geo"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	f := pflag.NewFlagSet("photolocate", pflag.ContinueOnError)
	f.SetOutput(stderr)
	backend := f.String("exif-backend", config.BackendGoExif, "Metadata extractor (goexif, exiftool)")
	exiftoolPath := f.String("exiftool-path", "", "Path to the exiftool binary")
	maxBytes := f.Int64("exif-max-bytes", locator.DefaultHeaderBudget, "Header bytes read per photo, 0 reads whole files")
	projection := f.Int("projection", geo.EPSG4326, "Output projection EPSG code (3857, 4326)")
	format := f.String("format", "geojson", "Output format (geojson, csv)")
	verbose := f.BoolP("verbose", "v", false, "Debug logging on stderr")
	f.Usage = func() {
		fmt.Fprintln(stderr, "usage: photolocate [flags] photo...")
		f.PrintDefaults()
	}
	if err := f.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}
	if f.NArg() == 0 {
		f.Usage()
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	markers, panel, err := locate(context.Background(), f.Args(), locateOptions{
		exif:       config.ExifConfig{Backend: *backend, ExiftoolPath: *exiftoolPath, MaxBytes: *maxBytes},
		projection: *projection,
		logger:     logger,
	})
	if err != nil {
		fmt.Fprintln(stderr, "photolocate:", err)
		return 1
	}

	switch *format {
	case "csv":
		err = export.ExportCSV(stdout, markers)
	default:
		err = export.ExportGeoJSON(stdout, markers)
	}
	if err != nil {
		fmt.Fprintln(stderr, "photolocate:", err)
		return 1
	}

	for _, msg := range panel.Errors {
		fmt.Fprintln(stderr, msg)
	}
	if len(panel.Errors) > 0 {
		return 1
	}
	return 0
}

type locateOptions struct {
	exif       config.ExifConfig
	projection int
	logger     *slog.Logger
}

// locate runs one batch over paths. Paths that cannot be opened enter the
// batch as invalid files.
func locate(ctx context.Context, paths []string, opts locateOptions) ([]domain.Marker, domain.ErrorPanel, error) {
	store, err := storage.NewSQLiteAdapter(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	if err != nil {
		return nil, domain.ErrorPanel{}, err
	}
	defer store.Close()

	surface, err := mapsurface.New(store, nil, opts.projection, opts.logger)
	if err != nil {
		return nil, domain.ErrorPanel{}, err
	}

	extractor, err := app.NewExtractor(opts.exif, opts.logger)
	if err != nil {
		return nil, domain.ErrorPanel{}, err
	}
	if c, ok := extractor.(io.Closer); ok {
		defer c.Close()
	}

	sh := shell.New(nil, opts.logger)
	sh.SetLocator(locator.New(extractor, surface, sh,
		locator.WithHeaderBudget(opts.exif.MaxBytes),
		locator.WithLogger(opts.logger),
	))

	files := make([]domain.PhotoFile, len(paths))
	for i, p := range paths {
		df, err := reader.Open(p)
		if err != nil {
			opts.logger.Debug("open failed", "path", p, "error", err)
			continue
		}
		defer df.Close()
		files[i] = df
	}

	sh.SelectPhotos(ctx, files).Wait()

	markers, err := surface.Markers(ctx)
	if err != nil {
		return nil, domain.ErrorPanel{}, err
	}
	return markers, sh.Panel(), nil
}
