package upstream

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// BrowserFetcher fetches product pages through a real headless browser with
// stealth patches applied. Slower than HTTPFetcher, but gets past the bot
// walls Amazon raises against plain clients.
type BrowserFetcher struct {
	BaseURL string
	Browser *rod.Browser
	Timeout time.Duration
}

// NewBrowserFetcher launches a browser and returns a fetcher bound to it.
// Call Close when done.
func NewBrowserFetcher(baseURL string, headless bool, timeout time.Duration) (*BrowserFetcher, error) {
	u, err := launcher.New().Headless(headless).Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	return &BrowserFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Browser: browser,
		Timeout: timeout,
	}, nil
}

// Close shuts the underlying browser down.
func (f *BrowserFetcher) Close() error {
	return f.Browser.Close()
}

// FetchProductPage navigates to the /dp/{asin} page and returns the rendered
// HTML. A robot-check page counts as an upstream failure, not a result.
func (f *BrowserFetcher) FetchProductPage(ctx context.Context, asin string) (string, error) {
	url := fmt.Sprintf("%s/dp/%s", f.BaseURL, asin)
	log.Printf("Fetching URL via browser: %s", url)

	page, err := stealth.Page(f.Browser)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer page.Close()

	page = page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return "", &Error{URL: url, Err: err}
	}
	if err := page.Timeout(f.Timeout).WaitLoad(); err != nil {
		return "", &Error{URL: url, Err: err}
	}

	html, err := page.HTML()
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	if isRobotCheck(html) {
		return "", &Error{URL: url, Err: errors.New("robot check page served")}
	}
	return html, nil
}

func isRobotCheck(html string) bool {
	lower := strings.ToLower(html)
	return strings.Contains(lower, "robot check") ||
		strings.Contains(lower, "/errors/validatecaptcha")
}
