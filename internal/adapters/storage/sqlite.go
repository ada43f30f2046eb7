package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/lcalzada-xor/photomap/internal/core/domain"
)

// DefaultDSN keeps markers in a shared in-memory database that lives as long
// as the process.
const DefaultDSN = "file:photomap?mode=memory&cache=shared"

// SQLiteAdapter implements ports.MarkerStore using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// MarkerModel is the GORM model for photo markers.
type MarkerModel struct {
	Seq       uint   `gorm:"primaryKey;autoIncrement"`
	ID        string `gorm:"uniqueIndex;size:36"`
	Kind      string `gorm:"index"`
	Source    string
	Geometry  []byte // WKB in the map projection
	Longitude float64
	Latitude  float64
	CreatedAt time.Time
}

// NewSQLiteAdapter opens the database, installs query tracing and migrates
// the schema.
func NewSQLiteAdapter(dsn string) (*SQLiteAdapter, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open marker store: %w", err)
	}

	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return nil, fmt.Errorf("install tracing: %w", err)
	}

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&MarkerModel{}); err != nil {
		return nil, fmt.Errorf("migrate marker store: %w", err)
	}

	return &SQLiteAdapter{db: db}, nil
}

// SaveMarker inserts or replaces a marker.
func (a *SQLiteAdapter) SaveMarker(ctx context.Context, m domain.Marker) error {
	model, err := toModel(m)
	if err != nil {
		return err
	}

	var existing MarkerModel
	err = a.db.WithContext(ctx).Where("id = ?", m.ID).First(&existing).Error
	switch {
	case err == nil:
		model.Seq = existing.Seq
		return a.db.WithContext(ctx).Save(&model).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return a.db.WithContext(ctx).Create(&model).Error
	default:
		return err
	}
}

// GetMarker retrieves a marker by id.
func (a *SQLiteAdapter) GetMarker(ctx context.Context, id string) (*domain.Marker, error) {
	var model MarkerModel
	if err := a.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMarkerNotFound
		}
		return nil, err
	}
	return toDomain(model)
}

// ListMarkers returns all markers in insertion order.
func (a *SQLiteAdapter) ListMarkers(ctx context.Context) ([]domain.Marker, error) {
	var models []MarkerModel
	if err := a.db.WithContext(ctx).Order("seq asc").Find(&models).Error; err != nil {
		return nil, err
	}

	markers := make([]domain.Marker, 0, len(models))
	for _, model := range models {
		m, err := toDomain(model)
		if err != nil {
			return nil, err
		}
		markers = append(markers, *m)
	}
	return markers, nil
}

// Close closes the underlying connection.
func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
