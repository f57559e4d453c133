package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"listinglab/internal/models"
)

// ErrNotFound is returned when no product row exists for an ASIN.
var ErrNotFound = errors.New("not found")

// Repository wraps the sqlite database holding products and their
// optimization history.
type Repository struct {
	db *sqlx.DB
}

// Open opens (or creates) the sqlite database at dsn and ensures the schema.
func Open(dsn string) (*Repository, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// sqlite allows a single writer; one pooled connection also keeps
	// :memory: databases coherent across queries.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Printf("Database ready at %s", dsn)
	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS products(
  id          TEXT PRIMARY KEY,
  asin        TEXT NOT NULL UNIQUE,
  title       TEXT NOT NULL,
  bullets     TEXT NOT NULL,
  description TEXT NOT NULL,
  updated_at  DATETIME NOT NULL
);

-- Products are never deleted through this service; the cascade covers
-- manual cleanup so history rows cannot be orphaned.
CREATE TABLE IF NOT EXISTS optimizations(
  id                    TEXT PRIMARY KEY,
  product_id            TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  optimized_title       TEXT NOT NULL,
  optimized_bullets     TEXT NOT NULL,
  optimized_description TEXT NOT NULL,
  suggested_keywords    TEXT NOT NULL,
  created_at            DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_optimizations_product ON optimizations(product_id, created_at);
`
	_, err := db.Exec(schema)
	return err
}

// GetProduct returns the stored product for asin, or ErrNotFound.
func (r *Repository) GetProduct(asin string) (models.Product, error) {
	var p models.Product
	err := r.db.Get(&p, `
		SELECT id, asin, title, bullets, description, updated_at
		FROM products
		WHERE asin = ?
	`, asin)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, fmt.Errorf("product %s: %w", asin, ErrNotFound)
	}
	if err != nil {
		return models.Product{}, fmt.Errorf("get product %s: %w", asin, err)
	}
	return p, nil
}

// ListProducts returns all stored products, most recently updated first.
func (r *Repository) ListProducts() ([]models.Product, error) {
	out := []models.Product{}
	err := r.db.Select(&out, `
		SELECT id, asin, title, bullets, description, updated_at
		FROM products
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// UpsertProduct inserts the listing as a new product row, or overwrites
// title/bullets/description of the existing row for the same ASIN. The row id
// is assigned on insert and preserved on update.
func (r *Repository) UpsertProduct(listing models.RawListing) (models.Product, error) {
	query := `
	INSERT INTO products (id, asin, title, bullets, description, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(asin) DO UPDATE SET
		title=excluded.title,
		bullets=excluded.bullets,
		description=excluded.description,
		updated_at=excluded.updated_at;
	`
	_, err := r.db.Exec(query,
		uuid.NewString(), listing.ASIN, listing.Title,
		models.JSONStringSlice(listing.BulletPoints), listing.Description,
		time.Now().UTC(),
	)
	if err != nil {
		return models.Product{}, fmt.Errorf("upsert product %s: %w", listing.ASIN, err)
	}
	return r.GetProduct(listing.ASIN)
}

// AppendOptimization inserts one optimization row for the product. Rows are
// append-only; nothing is ever updated.
func (r *Repository) AppendOptimization(productID string, opt models.OptimizedListing) (models.Optimization, error) {
	row := models.Optimization{
		ID:                   uuid.NewString(),
		ProductID:            productID,
		OptimizedTitle:       opt.OptimizedTitle,
		OptimizedBullets:     models.JSONStringSlice(opt.OptimizedBullets),
		OptimizedDescription: opt.OptimizedDescription,
		SuggestedKeywords:    models.JSONStringSlice(opt.Keywords),
		CreatedAt:            time.Now().UTC(),
	}
	_, err := r.db.Exec(`
		INSERT INTO optimizations
			(id, product_id, optimized_title, optimized_bullets, optimized_description, suggested_keywords, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, row.ID, row.ProductID, row.OptimizedTitle, row.OptimizedBullets,
		row.OptimizedDescription, row.SuggestedKeywords, row.CreatedAt)
	if err != nil {
		return models.Optimization{}, fmt.Errorf("append optimization for product %s: %w", productID, err)
	}
	return row, nil
}

// ListOptimizations returns all optimization rows for the product, newest
// first. rowid breaks ties for rows created at the same instant.
func (r *Repository) ListOptimizations(productID string) ([]models.Optimization, error) {
	out := []models.Optimization{}
	err := r.db.Select(&out, `
		SELECT id, product_id, optimized_title, optimized_bullets, optimized_description, suggested_keywords, created_at
		FROM optimizations
		WHERE product_id = ?
		ORDER BY created_at DESC, rowid DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("list optimizations for product %s: %w", productID, err)
	}
	return out, nil
}
