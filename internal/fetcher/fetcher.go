// Package fetcher acquires storefront markup over plain HTTP or a headless browser.
package fetcher

import "context"

// PageFetcher retrieves the raw markup behind a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Renderer executes client-side rendering and returns the final DOM as markup.
// It is strictly more expensive than a PageFetcher and is only consulted after
// the transport-only path failed or produced an invalid listing.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}
