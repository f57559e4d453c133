package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RawListing is the normalized original listing data scraped for one ASIN.
type RawListing struct {
	ASIN         string   `json:"asin"`
	Title        string   `json:"title"`
	BulletPoints []string `json:"bullet_points"`
	Description  string   `json:"description"`
}

// OptimizedListing is the AI-rewritten listing plus suggested keyword phrases.
// Keywords is the field name on the model's wire format; it is persisted as
// suggested_keywords on Optimization rows.
type OptimizedListing struct {
	OptimizedTitle       string   `json:"optimized_title"`
	OptimizedBullets     []string `json:"optimized_bullets"`
	OptimizedDescription string   `json:"optimized_description"`
	Keywords             []string `json:"keywords"`
}

// Product is one stored listing. Exactly one row exists per ASIN.
type Product struct {
	ID          string          `db:"id" json:"id"`
	ASIN        string          `db:"asin" json:"asin"`
	Title       string          `db:"title" json:"title"`
	Bullets     JSONStringSlice `db:"bullets" json:"bullets"`
	Description string          `db:"description" json:"description"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// Listing returns the product's original listing data.
func (p Product) Listing() RawListing {
	return RawListing{
		ASIN:         p.ASIN,
		Title:        p.Title,
		BulletPoints: p.Bullets,
		Description:  p.Description,
	}
}

// Optimization is one persisted optimization run. Rows are append-only and
// ordered by CreatedAt, newest first.
type Optimization struct {
	ID                   string          `db:"id" json:"id"`
	ProductID            string          `db:"product_id" json:"product_id"`
	OptimizedTitle       string          `db:"optimized_title" json:"optimized_title"`
	OptimizedBullets     JSONStringSlice `db:"optimized_bullets" json:"optimized_bullets"`
	OptimizedDescription string          `db:"optimized_description" json:"optimized_description"`
	SuggestedKeywords    JSONStringSlice `db:"suggested_keywords" json:"suggested_keywords"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
}

// JSONStringSlice is a custom type to handle JSON serialization/deserialization for []string
type JSONStringSlice []string

// Value implements the driver.Valuer interface to convert []string to JSON for database storage
func (j JSONStringSlice) Value() (driver.Value, error) {
	if j == nil {
		return "[]", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface to convert JSON from database to []string
func (j *JSONStringSlice) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("unsupported type for JSONStringSlice")
	}
	return json.Unmarshal(bytes, j)
}
