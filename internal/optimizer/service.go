package optimizer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"listinglab/internal/extractor"
	"listinglab/internal/models"
	"listinglab/internal/store"
	"listinglab/internal/upstream"
)

// ErrInvalidInput is returned when the caller provides no ASIN.
var ErrInvalidInput = errors.New("asin required")

// Store is the persistence surface the service needs.
type Store interface {
	GetProduct(asin string) (models.Product, error)
	ListProducts() ([]models.Product, error)
	UpsertProduct(listing models.RawListing) (models.Product, error)
	AppendOptimization(productID string, opt models.OptimizedListing) (models.Optimization, error)
	ListOptimizations(productID string) ([]models.Optimization, error)
}

// Generator produces an optimized listing from the original.
type Generator interface {
	Optimize(ctx context.Context, original models.RawListing) (models.OptimizedListing, error)
}

// Extractor turns raw page HTML into a normalized listing.
type Extractor func(html, asin string) (models.RawListing, error)

// Service coordinates fetching, persistence, generation and history. All
// collaborators are injected so they can be faked in tests.
type Service struct {
	Store     Store
	Fetcher   upstream.Fetcher
	Extract   Extractor
	Generator Generator
}

// New creates a service using the package extractor.
func New(st Store, fetcher upstream.Fetcher, gen Generator) *Service {
	return &Service{
		Store:     st,
		Fetcher:   fetcher,
		Extract:   extractor.Extract,
		Generator: gen,
	}
}

// Products returns all stored products, most recently updated first.
func (s *Service) Products() ([]models.Product, error) {
	return s.Store.ListProducts()
}

// FetchAndSave scrapes the product page for asin and upserts the result.
// Re-fetching an ASIN overwrites the existing row, never duplicates it.
func (s *Service) FetchAndSave(ctx context.Context, asin string) (models.RawListing, error) {
	if strings.TrimSpace(asin) == "" {
		return models.RawListing{}, ErrInvalidInput
	}
	_, listing, err := s.fetchAndStore(ctx, asin)
	return listing, err
}

// Optimize generates an optimized listing for asin and appends it to the
// product's history. An ASIN that was never fetched is scraped on demand
// first. Nothing is written when generation fails.
func (s *Service) Optimize(ctx context.Context, asin string) (models.OptimizedListing, error) {
	if strings.TrimSpace(asin) == "" {
		return models.OptimizedListing{}, ErrInvalidInput
	}

	product, err := s.Store.GetProduct(asin)
	if errors.Is(err, store.ErrNotFound) {
		log.Printf("ASIN %s not stored yet, scraping now", asin)
		product, _, err = s.fetchAndStore(ctx, asin)
	}
	if err != nil {
		return models.OptimizedListing{}, err
	}

	optimized, err := s.Generator.Optimize(ctx, product.Listing())
	if err != nil {
		return models.OptimizedListing{}, err
	}

	if _, err := s.Store.AppendOptimization(product.ID, optimized); err != nil {
		return models.OptimizedListing{}, err
	}
	return optimized, nil
}

// History returns all optimizations for asin, newest first. The lookup goes
// ASIN -> product -> history, so an unknown ASIN yields store.ErrNotFound.
func (s *Service) History(asin string) ([]models.Optimization, error) {
	product, err := s.Store.GetProduct(asin)
	if err != nil {
		return nil, err
	}
	return s.Store.ListOptimizations(product.ID)
}

// fetchAndStore is the shared scrape step behind both FetchAndSave and the
// scrape-on-demand path of Optimize.
func (s *Service) fetchAndStore(ctx context.Context, asin string) (models.Product, models.RawListing, error) {
	html, err := s.Fetcher.FetchProductPage(ctx, asin)
	if err != nil {
		return models.Product{}, models.RawListing{}, fmt.Errorf("fetch page for %s: %w", asin, err)
	}
	listing, err := s.Extract(html, asin)
	if err != nil {
		return models.Product{}, models.RawListing{}, err
	}
	product, err := s.Store.UpsertProduct(listing)
	if err != nil {
		return models.Product{}, models.RawListing{}, err
	}
	log.Printf("Stored listing for ASIN %s: %s", asin, listing.Title)
	return product, listing, nil
}
