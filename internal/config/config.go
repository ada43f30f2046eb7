package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lcalzada-xor/photomap/internal/geo"
)

// EnvPrefix prefixes every environment variable, e.g. PHOTOMAP_ADDR or
// PHOTOMAP_EXIF_BACKEND.
const EnvPrefix = "PHOTOMAP"

// Extractor backends.
const (
	BackendGoExif   = "goexif"
	BackendExifTool = "exiftool"
)

// Live position sources.
const (
	TrackingClient = "client"
	TrackingStatic = "static"
	TrackingNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Addr     string         `mapstructure:"addr"`
	Log      LogConfig      `mapstructure:"log"`
	Exif     ExifConfig     `mapstructure:"exif"`
	Map      MapConfig      `mapstructure:"map"`
	Tracking TrackingConfig `mapstructure:"tracking"`
	DB       DBConfig       `mapstructure:"db"`
	Upload   UploadConfig   `mapstructure:"upload"`
	WS       WSConfig       `mapstructure:"ws"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

type ExifConfig struct {
	Backend      string `mapstructure:"backend"`
	MaxBytes     int64  `mapstructure:"maxBytes"` // <= 0 reads whole files
	ExiftoolPath string `mapstructure:"exiftoolPath"`
}

type MapConfig struct {
	Zoom       float64 `mapstructure:"zoom"`
	Projection int     `mapstructure:"projection"`
}

type TrackingConfig struct {
	Source string  `mapstructure:"source"`
	Lat    float64 `mapstructure:"lat"`
	Lng    float64 `mapstructure:"lng"`
}

type DBConfig struct {
	DSN string `mapstructure:"dsn"`
}

type UploadConfig struct {
	MaxMemory int64 `mapstructure:"maxMemory"`
	RateLimit int   `mapstructure:"rateLimit"` // batches per minute per host, 0 disables
}

type WSConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"addr":            "addr",
	"log-level":       "log.level",
	"log-format":      "log.format",
	"exif-backend":    "exif.backend",
	"exif-max-bytes":  "exif.maxBytes",
	"exiftool-path":   "exif.exiftoolPath",
	"zoom":            "map.zoom",
	"projection":      "map.projection",
	"tracking":        "tracking.source",
	"lat":             "tracking.lat",
	"lng":             "tracking.lng",
	"db":              "db.dsn",
	"upload-memory":   "upload.maxMemory",
	"upload-rate":     "upload.rateLimit",
	"allowed-origins": "ws.allowedOrigins",
	"tracing":         "tracing.enabled",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("exif.backend", BackendGoExif)
	v.SetDefault("exif.maxBytes", 65635)
	v.SetDefault("exif.exiftoolPath", "")
	v.SetDefault("map.zoom", 14)
	v.SetDefault("map.projection", geo.EPSG3857)
	v.SetDefault("tracking.source", TrackingClient)
	v.SetDefault("tracking.lat", 40.4168)
	v.SetDefault("tracking.lng", -3.7038)
	v.SetDefault("db.dsn", "file:photomap?mode=memory&cache=shared")
	v.SetDefault("upload.maxMemory", 32<<20)
	v.SetDefault("upload.rateLimit", 30)
	v.SetDefault("ws.allowedOrigins", []string{})
	v.SetDefault("tracing.enabled", false)
}

// NewFlagSet declares the command-line flags of the server.
func NewFlagSet(name string) *pflag.FlagSet {
	f := pflag.NewFlagSet(name, pflag.ContinueOnError)
	f.String("config", "", "Path to a config file (json, yaml, toml)")
	f.String("env-file", ".env", "Path to a dotenv file, ignored when missing")
	f.String("addr", ":8080", "HTTP server address")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "json", "Log format (json, text)")
	f.String("exif-backend", BackendGoExif, "Metadata extractor (goexif, exiftool)")
	f.Int64("exif-max-bytes", 65635, "Header bytes read per photo, 0 reads whole files")
	f.String("exiftool-path", "", "Path to the exiftool binary")
	f.Float64("zoom", 14, "Zoom level after placing a photo")
	f.Int("projection", geo.EPSG3857, "Map projection EPSG code (3857, 4326)")
	f.String("tracking", TrackingClient, "Live position source (client, static, none)")
	f.Float64("lat", 40.4168, "Static latitude")
	f.Float64("lng", -3.7038, "Static longitude")
	f.String("db", "file:photomap?mode=memory&cache=shared", "Marker store DSN")
	f.Int64("upload-memory", 32<<20, "Bytes of an upload kept in memory")
	f.Int("upload-rate", 30, "Photo batches per minute per client, 0 disables")
	f.StringSlice("allowed-origins", nil, "Extra WebSocket origins")
	f.Bool("tracing", false, "Export OpenTelemetry spans to stderr")
	return f
}

// Load builds the configuration from, in increasing precedence: defaults,
// the config file, a dotenv file, PHOTOMAP_* variables and flags.
func Load(args []string) (*Config, error) {
	f := NewFlagSet("photomap")
	if err := f.Parse(args); err != nil {
		return nil, err
	}

	envFile, _ := f.GetString("env-file")
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	if path, _ := f.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr must not be empty"))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format %q: want json or text", c.Log.Format))
	}
	if c.Exif.Backend != BackendGoExif && c.Exif.Backend != BackendExifTool {
		errs = append(errs, fmt.Errorf("exif.backend %q: want %s or %s", c.Exif.Backend, BackendGoExif, BackendExifTool))
	}
	if !geo.SupportedProjection(c.Map.Projection) {
		errs = append(errs, fmt.Errorf("map.projection: %w: %d", geo.ErrUnsupportedProjection, c.Map.Projection))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 28 {
		errs = append(errs, fmt.Errorf("map.zoom %v out of range", c.Map.Zoom))
	}
	switch c.Tracking.Source {
	case TrackingClient, TrackingNone:
	case TrackingStatic:
		if c.Tracking.Lat < -90 || c.Tracking.Lat > 90 || c.Tracking.Lng < -180 || c.Tracking.Lng > 180 {
			errs = append(errs, errors.New("tracking.lat/lng out of range"))
		}
	default:
		errs = append(errs, fmt.Errorf("tracking.source %q: want client, static or none", c.Tracking.Source))
	}
	if c.Upload.RateLimit < 0 {
		errs = append(errs, errors.New("upload.rateLimit must not be negative"))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level %q: %w", l.Level, err)
	}
	return lvl, nil
}
