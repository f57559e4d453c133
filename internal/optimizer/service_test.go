package optimizer

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"listinglab/internal/models"
	"listinglab/internal/store"
	"listinglab/internal/upstream"
)

type fakeFetcher struct {
	html  string
	err   error
	calls int
}

func (f *fakeFetcher) FetchProductPage(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.html, f.err
}

type fakeGenerator struct {
	out      models.OptimizedListing
	err      error
	original models.RawListing
}

func (g *fakeGenerator) Optimize(_ context.Context, original models.RawListing) (models.OptimizedListing, error) {
	g.original = original
	return g.out, g.err
}

const productPage = `
<span id="productTitle">Acme Widget</span>
<div id="feature-bullets"><ul>
  <li><span class="a-list-item">Durable</span></li>
</ul></div>
<div id="productDescription"><p>A fine widget.</p></div>`

var optimized = models.OptimizedListing{
	OptimizedTitle:       "Acme Widget Pro",
	OptimizedBullets:     []string{"b1", "b2", "b3", "b4", "b5"},
	OptimizedDescription: "Better in every way.",
	Keywords:             []string{"steel widget", "acme tool", "durable widget", "pro widget"},
}

func newTestService(t *testing.T, fetcher *fakeFetcher, gen *fakeGenerator) *Service {
	t.Helper()
	repo, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return New(repo, fetcher, gen)
}

func TestFetchAndSaveRequiresASIN(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{html: productPage}, &fakeGenerator{out: optimized})

	if _, err := svc.FetchAndSave(context.Background(), "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Optimize(context.Background(), ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFetchAndSaveIsIdempotent(t *testing.T) {
	fetcher := &fakeFetcher{html: productPage}
	svc := newTestService(t, fetcher, &fakeGenerator{out: optimized})

	for i := 0; i < 2; i++ {
		listing, err := svc.FetchAndSave(context.Background(), "B000TEST01")
		if err != nil {
			t.Fatalf("fetch %d: %v", i+1, err)
		}
		if listing.Title != "Acme Widget" {
			t.Errorf("Title = %q", listing.Title)
		}
	}

	products, err := svc.Products()
	if err != nil {
		t.Fatalf("products: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("got %d product rows after two fetches; want 1", len(products))
	}
}

func TestFetchAndSavePropagatesUpstreamFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: &upstream.Error{URL: "http://x/dp/B000TEST01", Status: 503}}
	svc := newTestService(t, fetcher, &fakeGenerator{out: optimized})

	_, err := svc.FetchAndSave(context.Background(), "B000TEST01")
	var upErr *upstream.Error
	if !errors.As(err, &upErr) {
		t.Fatalf("expected *upstream.Error, got %v", err)
	}

	products, _ := svc.Products()
	if len(products) != 0 {
		t.Errorf("got %d product rows after failed fetch; want 0", len(products))
	}
}

// Optimizing an ASIN that was never fetched must scrape it on demand,
// materialize the product, and still append exactly one history row.
func TestOptimizeWithoutPriorFetch(t *testing.T) {
	fetcher := &fakeFetcher{html: productPage}
	svc := newTestService(t, fetcher, &fakeGenerator{out: optimized})

	got, err := svc.Optimize(context.Background(), "B000TEST01")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}
	if got.OptimizedTitle != optimized.OptimizedTitle {
		t.Errorf("OptimizedTitle = %q", got.OptimizedTitle)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times; want 1", fetcher.calls)
	}

	history, err := svc.History("B000TEST01")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d history rows; want 1", len(history))
	}
}

func TestOptimizeUsesStoredListing(t *testing.T) {
	fetcher := &fakeFetcher{html: productPage}
	gen := &fakeGenerator{out: optimized}
	svc := newTestService(t, fetcher, gen)

	if _, err := svc.FetchAndSave(context.Background(), "B000TEST01"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if _, err := svc.Optimize(context.Background(), "B000TEST01"); err != nil {
		t.Fatalf("optimize: %v", err)
	}

	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times; want 1 (no re-scrape for stored ASIN)", fetcher.calls)
	}
	if gen.original.Title != "Acme Widget" {
		t.Errorf("generator got title %q; want stored listing", gen.original.Title)
	}
}

func TestOptimizeFailureLeavesNoTrace(t *testing.T) {
	fetcher := &fakeFetcher{html: productPage}
	gen := &fakeGenerator{out: optimized}
	svc := newTestService(t, fetcher, gen)

	if _, err := svc.Optimize(context.Background(), "B000TEST01"); err != nil {
		t.Fatalf("seed optimize: %v", err)
	}

	gen.err = errors.New("no JSON found")
	if _, err := svc.Optimize(context.Background(), "B000TEST01"); err == nil {
		t.Fatal("expected generation failure to propagate")
	}

	history, err := svc.History("B000TEST01")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("got %d history rows after failed optimize; want 1", len(history))
	}
}

// The generator's keywords field must come back as suggested_keywords in
// history, value for value.
func TestHistoryCarriesKeywords(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{html: productPage}, &fakeGenerator{out: optimized})

	got, err := svc.Optimize(context.Background(), "B000TEST01")
	if err != nil {
		t.Fatalf("optimize: %v", err)
	}

	history, err := svc.History("B000TEST01")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !reflect.DeepEqual([]string(history[0].SuggestedKeywords), got.Keywords) {
		t.Errorf("SuggestedKeywords = %v; want %v", history[0].SuggestedKeywords, got.Keywords)
	}
}

func TestHistoryOrdering(t *testing.T) {
	gen := &fakeGenerator{out: optimized}
	svc := newTestService(t, &fakeFetcher{html: productPage}, gen)

	for i, title := range []string{"first", "second", "third"} {
		gen.out.OptimizedTitle = title
		if _, err := svc.Optimize(context.Background(), "B000TEST01"); err != nil {
			t.Fatalf("optimize %d: %v", i+1, err)
		}
	}

	history, err := svc.History("B000TEST01")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(history) != len(want) {
		t.Fatalf("got %d history rows; want %d", len(history), len(want))
	}
	for i, row := range history {
		if row.OptimizedTitle != want[i] {
			t.Errorf("history[%d] = %q; want %q", i, row.OptimizedTitle, want[i])
		}
	}
}

func TestHistoryUnknownASIN(t *testing.T) {
	svc := newTestService(t, &fakeFetcher{html: productPage}, &fakeGenerator{out: optimized})

	if _, err := svc.History("B000MISSING"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected store.ErrNotFound, got %v", err)
	}
}
