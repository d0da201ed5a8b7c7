// internal/repositories/listing_repository.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tomanasmo/finnmonitor/internal/domain"
)

// ListingRepository is the persistence contract shared by the scraper, the
// enrichment workers and the API.
type ListingRepository interface {
	// Upsert inserts a newly discovered listing or refreshes title, price and
	// updated_at of an existing one. Category and created_at are never
	// overwritten by an upsert.
	Upsert(ctx context.Context, listing domain.Listing) error

	// FindAll returns every listing ordered by discovery time, newest first.
	FindAll(ctx context.Context) ([]domain.Listing, error)

	// MissingCategory returns codes still awaiting OCR classification.
	MissingCategory(ctx context.Context) ([]string, error)

	// MissingKategoriTest returns codes without a breadcrumb category guess.
	MissingKategoriTest(ctx context.Context) ([]string, error)

	// SetCategory writes the curated category. It reports false when no
	// listing exists for the code and ErrInvalidCategory for values outside
	// the enumerated set.
	SetCategory(ctx context.Context, code string, category domain.Category) (bool, error)

	// SetKategoriTest writes the breadcrumb-derived category guess.
	SetKategoriTest(ctx context.Context, code, value string) error

	// SetOCR records the extracted text and the resulting classification and
	// marks the listing as processed.
	SetOCR(ctx context.Context, code, text string, category domain.Category) error
}

// GormListingRepository implements ListingRepository on top of GORM.
type GormListingRepository struct {
	db *gorm.DB
}

var _ ListingRepository = (*GormListingRepository)(nil)

// Open connects to PostgreSQL and runs the schema migration.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("repositories: open: %w", err)
	}
	if err := db.AutoMigrate(&domain.Listing{}); err != nil {
		return nil, fmt.Errorf("repositories: migrate: %w", err)
	}
	return db, nil
}

// NewGormListingRepository wraps an open GORM handle.
func NewGormListingRepository(db *gorm.DB) *GormListingRepository {
	return &GormListingRepository{db: db}
}

func (r *GormListingRepository) Upsert(ctx context.Context, listing domain.Listing) error {
	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	if listing.Category == "" {
		listing.Category = string(domain.CategoryUbehandlet)
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "finn_code"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "price", "updated_at"}),
	}).Create(&listing).Error
	if err != nil {
		return fmt.Errorf("repositories: upsert %s: %w", listing.FinnCode, err)
	}
	return nil
}

func (r *GormListingRepository) FindAll(ctx context.Context) ([]domain.Listing, error) {
	var listings []domain.Listing
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: find all: %w", err)
	}
	return listings, nil
}

func (r *GormListingRepository) MissingCategory(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("(category IS NULL OR category = '' OR category = ?) AND ocr_processed = ?",
			string(domain.CategoryUbehandlet), false).
		Pluck("finn_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: missing category: %w", err)
	}
	return codes, nil
}

func (r *GormListingRepository) MissingKategoriTest(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("kategori_test IS NULL OR kategori_test = '' OR kategori_test = ?",
			string(domain.CategoryUbehandlet)).
		Pluck("finn_code", &codes).Error
	if err != nil {
		return nil, fmt.Errorf("repositories: missing kategori_test: %w", err)
	}
	return codes, nil
}

func (r *GormListingRepository) SetCategory(ctx context.Context, code string, category domain.Category) (bool, error) {
	if !category.Valid() {
		return false, domain.ErrInvalidCategory
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("finn_code = ?", code).
		UpdateColumn("category", string(category))
	if res.Error != nil {
		return false, fmt.Errorf("repositories: set category %s: %w", code, res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *GormListingRepository) SetKategoriTest(ctx context.Context, code, value string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("finn_code = ?", code).
		UpdateColumn("kategori_test", value)
	if res.Error != nil {
		return fmt.Errorf("repositories: set kategori_test %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormListingRepository) SetOCR(ctx context.Context, code, text string, category domain.Category) error {
	if !category.Valid() {
		return domain.ErrInvalidCategory
	}

	res := r.db.WithContext(ctx).
		Model(&domain.Listing{}).
		Where("finn_code = ?", code).
		UpdateColumns(map[string]interface{}{
			"ocr_text":      text,
			"category":      string(category),
			"ocr_processed": true,
		})
	if res.Error != nil {
		return fmt.Errorf("repositories: set ocr %s: %w", code, res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
