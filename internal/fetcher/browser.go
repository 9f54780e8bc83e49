package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/efdb-export/internal/config"
	"github.com/IshaanNene/efdb-export/internal/types"
)

// BrowserFetcher implements Fetcher using a headless browser via Rod.
//
// It exists for wiki mirrors fronted by anti-bot JavaScript challenges
// that plain HTTP cannot pass. The returned body is the rendered DOM, so
// parsers see the same markup either way.
type BrowserFetcher struct {
	browser  *rod.Browser
	pagePool chan *rod.Page
	logger   *slog.Logger
}

// NewBrowserFetcher launches a headless Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	bf := &BrowserFetcher{
		browser:  browser,
		pagePool: make(chan *rod.Page, cfg.Fetcher.Concurrency),
		logger:   logger.With("component", "browser_fetcher"),
	}

	bf.logger.Info("browser fetcher ready", "max_pages", cfg.Fetcher.Concurrency)
	return bf, nil
}

// Fetch navigates to a URL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	page, err := bf.acquirePage()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err}
	}
	defer bf.releasePage(page)

	page = page.Context(ctx)

	if err := page.Navigate(rawURL); err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("navigate: %w", err)}
	}
	if err := page.WaitLoad(); err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("wait load: %w", err)}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("read html: %w", err)}
	}

	bf.logger.Debug("browser fetch complete", "url", rawURL, "size", len(html))

	return &Response{
		StatusCode: http.StatusOK,
		Headers:    make(http.Header),
		Body:       []byte(html),
	}, nil
}

// acquirePage takes a page from the pool or creates a stealth page.
func (bf *BrowserFetcher) acquirePage() (*rod.Page, error) {
	select {
	case page := <-bf.pagePool:
		return page, nil
	default:
		return stealth.Page(bf.browser)
	}
}

// releasePage returns a page to the pool, closing it if the pool is full.
func (bf *BrowserFetcher) releasePage(page *rod.Page) {
	select {
	case bf.pagePool <- page:
	default:
		page.Close()
	}
}

// Close shuts down the browser and all pooled pages.
func (bf *BrowserFetcher) Close() error {
	close(bf.pagePool)
	for page := range bf.pagePool {
		page.Close()
	}
	return bf.browser.Close()
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "browser"
}
