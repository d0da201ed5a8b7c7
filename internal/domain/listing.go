// internal/domain/listing.go
package domain

import (
	"errors"
	"time"
)

// Category is the curated classification of a listing. It is set by the OCR
// worker or by an operator through the write API, never by the scraper.
type Category string

const (
	CategoryVoid       Category = "Void"
	CategoryVarmepumpe Category = "Varmepumpe"
	CategoryUbehandlet Category = "Ubehandlet"
)

// Valid reports whether c is one of the three accepted categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryVoid, CategoryVarmepumpe, CategoryUbehandlet:
		return true
	}
	return false
}

var (
	// ErrInvalidCategory is returned when a category outside the enumerated
	// set is written to the store.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrNotFound is returned when no listing exists for a finn code.
	ErrNotFound = errors.New("listing not found")
)

// Listing is a single Torget ad keyed by its externally assigned finn code.
//
// CreatedAt is the listing's own publish time when the search card exposed
// one, otherwise the time of first discovery; it is never touched after the
// initial insert. UpdatedAt moves on every re-scrape.
type Listing struct {
	FinnCode     string    `gorm:"column:finn_code;primaryKey" json:"finn_code"`
	Title        string    `gorm:"column:title" json:"title"`
	Price        string    `gorm:"column:price" json:"price"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
	Category     string    `gorm:"column:category" json:"category"`
	KategoriTest string    `gorm:"column:kategori_test" json:"kategori_test"`
	OCRText      string    `gorm:"column:ocr_text" json:"ocr_text"`
	OCRProcessed bool      `gorm:"column:ocr_processed" json:"ocr_processed"`
}

// TableName keeps the table name used by the rest of the toolchain.
func (Listing) TableName() string { return "torget" }
