// Package history persists identification results in PostgreSQL.
//
// Scan history is optional: when no DSN is configured the server runs without
// it. Records are write-once; the package only appends and lists recent rows.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ironsheep/card-scanner/internal/pipeline"
)

// DefaultRecent is the number of scans Recent returns when no limit is given.
const DefaultRecent = 20

// MaxRecent caps Recent.
const MaxRecent = 200

// Scan is one stored identification.
type Scan struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	Name         *string   `gorm:"size:255" json:"name"`
	CardSet      *string   `gorm:"size:128;index" json:"card_set"`
	Query        string    `gorm:"size:512" json:"query"`
	MatchScore   float64   `json:"match_score"`
	ListingCount int       `json:"listing_count"`
	Warnings     int       `json:"warnings"`
}

// Store reads and writes scans.
type Store struct {
	db *gorm.DB
}

// Open connects to PostgreSQL and migrates the scans table.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the scans table.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Scan{}); err != nil {
		return nil, fmt.Errorf("failed to migrate scans: %w", err)
	}
	return &Store{db: db}, nil
}

// FromResult converts a pipeline result into a Scan row.
func FromResult(r *pipeline.Result) *Scan {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		id = uuid.New()
	}
	return &Scan{
		ID:           id,
		Name:         r.Name,
		CardSet:      r.CardSet,
		Query:        r.Query,
		MatchScore:   r.MatchScore,
		ListingCount: len(r.Listings),
		Warnings:     len(r.Warnings),
	}
}

// Save inserts a scan.
func (s *Store) Save(ctx context.Context, scan *Scan) error {
	if scan.ID == uuid.Nil {
		scan.ID = uuid.New()
	}
	if err := s.db.WithContext(ctx).Create(scan).Error; err != nil {
		return fmt.Errorf("failed to save scan: %w", err)
	}
	return nil
}

// Record implements pipeline.Recorder.
func (s *Store) Record(ctx context.Context, r *pipeline.Result) error {
	return s.Save(ctx, FromResult(r))
}

// Recent returns the newest scans first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Scan, error) {
	if limit <= 0 {
		limit = DefaultRecent
	}
	if limit > MaxRecent {
		limit = MaxRecent
	}

	scans := []Scan{}
	if err := s.db.WithContext(ctx).Order("created_at desc").Limit(limit).Find(&scans).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return scans, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
