package upstream

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// Fetcher retrieves the raw HTML of a marketplace product page for one ASIN.
type Fetcher interface {
	FetchProductPage(ctx context.Context, asin string) (string, error)
}

// Error reports an unreachable upstream or a non-200 page response.
type Error struct {
	URL    string
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPFetcher fetches product pages with a plain HTTP client wearing browser
// headers. Amazon serves captcha walls to obvious bots; for those regions use
// BrowserFetcher instead.
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPFetcher creates a fetcher for the marketplace at baseURL.
func NewHTTPFetcher(baseURL string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
	"Accept-Language": "en-US,en;q=0.9",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8",
	"Referer":         "https://www.amazon.com/",
	"DNT":             "1",
}

// FetchProductPage fetches the /dp/{asin} page and returns its HTML decoded
// to UTF-8.
func (f *HTTPFetcher) FetchProductPage(ctx context.Context, asin string) (string, error) {
	url := fmt.Sprintf("%s/dp/%s", f.BaseURL, asin)
	log.Printf("Fetching URL: %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &Error{URL: url, Status: resp.StatusCode}
	}

	// Some marketplace regions still serve non-UTF-8 pages.
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	return string(body), nil
}
