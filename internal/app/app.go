package app

import (
	"context"
	"io"
	"log"
	"time"

	"listinglab/internal/ai"
	"listinglab/internal/optimizer"
	"listinglab/internal/server"
	"listinglab/internal/store"
	"listinglab/internal/upstream"
	"listinglab/pkg/config"
)

// App is the main application structure holding all dependencies.
type App struct {
	Config  *config.Config
	Repo    *store.Repository
	Service *optimizer.Service

	browser io.Closer
}

// New creates a new application instance with all dependencies wired.
func New(configPath string) *App {
	cfg := config.Load(configPath)

	repo, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	a := &App{Config: cfg, Repo: repo}

	fetcher := a.buildFetcher()
	client := ai.NewClient(cfg.AI.APIURL, cfg.AI.APIKey, cfg.AI.Model,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second)
	a.Service = optimizer.New(repo, fetcher, ai.NewGenerator(client))
	return a
}

func (a *App) buildFetcher() upstream.Fetcher {
	timeout := time.Duration(a.Config.Upstream.TimeoutSeconds) * time.Second
	if a.Config.Upstream.Mode == "browser" {
		fetcher, err := upstream.NewBrowserFetcher(a.Config.Upstream.BaseURL, a.Config.Upstream.Headless, timeout)
		if err != nil {
			log.Fatalf("Failed to start browser fetcher: %v", err)
		}
		a.browser = fetcher
		return fetcher
	}
	return upstream.NewHTTPFetcher(a.Config.Upstream.BaseURL, timeout)
}

// Close releases the database and, if one was started, the browser.
func (a *App) Close() {
	if a.browser != nil {
		if err := a.browser.Close(); err != nil {
			log.Printf("Failed to close browser: %v", err)
		}
	}
	if err := a.Repo.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

// RunServer starts the HTTP API and blocks.
func (a *App) RunServer() {
	srv := server.New(a.Service, a.Config.Server)
	log.Printf("Starting API server on port %s", a.Config.Server.Port)
	if err := srv.Listen(":" + a.Config.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// RunFetch scrapes and stores a single ASIN from the command line.
func (a *App) RunFetch(asin string) {
	listing, err := a.Service.FetchAndSave(context.Background(), asin)
	if err != nil {
		log.Fatalf("Fetch failed for %s: %v", asin, err)
	}
	log.Printf("Fetched %s: %q (%d bullets)", asin, listing.Title, len(listing.BulletPoints))
}

// RunOptimize generates one optimization for a single ASIN from the command
// line, scraping it first if it was never fetched.
func (a *App) RunOptimize(asin string) {
	optimized, err := a.Service.Optimize(context.Background(), asin)
	if err != nil {
		log.Fatalf("Optimization failed for %s: %v", asin, err)
	}
	log.Printf("Optimized %s: %q, keywords: %v", asin, optimized.OptimizedTitle, optimized.Keywords)
}

// RunHistory prints the optimization history for a single ASIN.
func (a *App) RunHistory(asin string) {
	history, err := a.Service.History(asin)
	if err != nil {
		log.Fatalf("Failed to fetch history for %s: %v", asin, err)
	}
	log.Printf("Found %d optimizations for %s", len(history), asin)
	for _, opt := range history {
		log.Printf("  %s  %s", opt.CreatedAt.Format(time.RFC3339), opt.OptimizedTitle)
	}
}
