package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// expandSelectors are candidate controls that hide permission details behind
// client-side toggles on storefront detail pages.
var expandSelectors = []string{
	`button[aria-expanded="false"]`,
	`button[aria-label="See more"]`,
	`a[aria-label="Show details"]`,
	`[data-expand-button]`,
}

// RenderedOptions configures the headless-browser fetcher.
type RenderedOptions struct {
	UserAgent string
	Timeout   time.Duration // upper bound on navigation plus settle, default 30s
	ExecPath  string        // optional explicit browser binary
}

// RenderedFetcher renders a page in a throwaway headless Chrome context and
// returns the resulting DOM. Each call launches and tears down its own
// browser context; no session state is shared across calls.
type RenderedFetcher struct {
	opts RenderedOptions
}

// NewRendered creates a RenderedFetcher with the given options.
func NewRendered(opts RenderedOptions) *RenderedFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"
	}
	return &RenderedFetcher{opts: opts}
}

// Render navigates to the URL, waits for the page to settle, expands
// collapsed detail sections best-effort, and returns the final DOM.
// The browser context is released on every path, including timeouts.
func (f *RenderedFetcher) Render(ctx context.Context, url string) (string, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.opts.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	if f.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	runCtx, cancelRun := context.WithTimeout(browserCtx, f.opts.Timeout)
	defer cancelRun()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
		chromedp.ActionFunc(expandCollapsedSections),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &BrowserError{URL: url, Err: err}
	}
	return html, nil
}

// expandCollapsedSections clicks every element matching the candidate
// selectors. Interaction failures are swallowed; missing controls are normal.
func expandCollapsedSections(ctx context.Context) error {
	sels, err := json.Marshal(expandSelectors)
	if err != nil {
		return nil
	}

	js := fmt.Sprintf(`(() => {
		let clicked = 0;
		for (const sel of %s) {
			for (const el of document.querySelectorAll(sel)) {
				try { el.click(); clicked++; } catch (e) {}
			}
		}
		return clicked;
	})()`, sels)

	var clicked int
	if err := chromedp.Evaluate(js, &clicked).Do(ctx); err != nil {
		zap.L().Debug("rendered: expand interaction failed", zap.Error(err))
		return nil
	}
	if clicked > 0 {
		zap.L().Debug("rendered: expanded collapsed sections", zap.Int("clicked", clicked))
	}
	return nil
}
