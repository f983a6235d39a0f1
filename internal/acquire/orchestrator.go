// Package acquire coordinates cache lookup, fetching, extraction, and
// persistence for storefront listings. It is the only component exposed to
// callers.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/extract"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/fetcher"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/store"
)

// DefaultBaseURL is the storefront detail-page prefix.
const DefaultBaseURL = "https://chromewebstore.google.com/detail"

// Options configures an Orchestrator.
type Options struct {
	BaseURL string        // storefront detail prefix, DefaultBaseURL when empty
	TTL     time.Duration // cache lifetime per write, default 24h
	Dedupe  bool          // collapse concurrent fetches for the same key
}

// Orchestrator drives the acquisition state machine:
//
//	cache check → static fetch → extract → validate
//	            → rendered fetch → extract → validate → persist
//
// All collaborators are injected so each can be replaced by a test double.
type Orchestrator struct {
	store    store.Store
	static   fetcher.PageFetcher
	renderer fetcher.Renderer
	opts     Options
	group    singleflight.Group
}

// New creates an Orchestrator over the given collaborators.
func New(st store.Store, static fetcher.PageFetcher, renderer fetcher.Renderer, opts Options) *Orchestrator {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.TTL == 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Orchestrator{
		store:    st,
		static:   static,
		renderer: renderer,
		opts:     opts,
	}
}

// GetOptions control a single acquisition.
type GetOptions struct {
	TenantID string // empty = globally shared cache scope
	NoCache  bool   // skip the cache read and go straight to fetching
}

// GetListing returns the listing for an extension id, from cache when a live
// entry exists, otherwise by fetching, extracting, and persisting it.
func (o *Orchestrator) GetListing(ctx context.Context, extensionID string, opts GetOptions) (*model.ListingResult, error) {
	if extensionID == "" {
		return nil, eris.New("acquire: empty extension id")
	}

	if !opts.NoCache {
		entry, err := o.store.GetListing(ctx, store.SourceChromeWebstore, store.QueryTypeExtensionID, extensionID, opts.TenantID)
		if err != nil {
			// A broken cache never blocks acquisition; treat as a miss.
			zap.L().Warn("acquire: cache read failed, treating as miss",
				zap.String("extension_id", extensionID),
				zap.Error(err),
			)
		}
		if entry != nil {
			return &model.ListingResult{
				Listing:  entry.Listing,
				Cached:   true,
				CachedAt: entry.CachedAt,
				Analysis: entry.Analysis,
			}, nil
		}
	}

	if !o.opts.Dedupe {
		return o.acquire(ctx, extensionID, opts.TenantID)
	}

	key := fmt.Sprintf("%s|%s|%s|%s", store.SourceChromeWebstore, store.QueryTypeExtensionID, extensionID, opts.TenantID)
	v, err, shared := o.group.Do(key, func() (any, error) {
		return o.acquire(ctx, extensionID, opts.TenantID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("acquire: collapsed duplicate in-flight fetch", zap.String("extension_id", extensionID))
	}
	return v.(*model.ListingResult), nil
}

// acquire runs the static-then-rendered fetch ladder and persists the first
// valid listing.
func (o *Orchestrator) acquire(ctx context.Context, extensionID, tenantID string) (*model.ListingResult, error) {
	sourceURL := o.listingURL(extensionID)

	var staticErr, renderedErr error
	transported := false

	html, staticErr := o.static.Fetch(ctx, sourceURL)
	if staticErr == nil {
		transported = true
		if listing := o.extract(html, extensionID, sourceURL, model.FetchStatic); listing.Valid() {
			return o.persist(ctx, listing, tenantID)
		}
		staticErr = eris.Errorf("acquire: static fetch of %s produced no valid listing", sourceURL)
	}
	zap.L().Info("acquire: static path failed, falling back to rendered fetch",
		zap.String("extension_id", extensionID),
		zap.Error(staticErr),
	)

	html, renderedErr = o.renderer.Render(ctx, sourceURL)
	if renderedErr == nil {
		transported = true
		if listing := o.extract(html, extensionID, sourceURL, model.FetchRendered); listing.Valid() {
			return o.persist(ctx, listing, tenantID)
		}
		renderedErr = eris.Errorf("acquire: rendered fetch of %s produced no valid listing", sourceURL)
	}

	reason := ReasonExtraction
	if !transported {
		reason = ReasonTransport
	}
	return nil, &Error{
		ExtensionID: extensionID,
		URL:         sourceURL,
		Reason:      reason,
		StaticErr:   staticErr,
		RenderedErr: renderedErr,
	}
}

// extract parses markup into a listing and stamps the acquisition metadata.
func (o *Orchestrator) extract(html, extensionID, sourceURL string, method model.FetchMethod) *model.Listing {
	listing, err := extract.Extract(html)
	if err != nil {
		zap.L().Warn("acquire: extraction failed",
			zap.String("extension_id", extensionID),
			zap.String("method", string(method)),
			zap.Error(err),
		)
		return &model.Listing{}
	}
	listing.ID = extensionID
	listing.FetchMethod = method
	listing.SourceURL = sourceURL
	return listing
}

// persist writes the listing through the cache and assembles the result.
// Losing the cache write is acceptable; it never corrupts the return value.
func (o *Orchestrator) persist(ctx context.Context, listing *model.Listing, tenantID string) (*model.ListingResult, error) {
	now := time.Now().UTC()
	if _, err := o.store.PutListing(ctx, store.SourceChromeWebstore, store.QueryTypeExtensionID,
		listing.ID, listing, "", tenantID, o.opts.TTL); err != nil {
		zap.L().Warn("acquire: cache write failed, returning uncached result",
			zap.String("extension_id", listing.ID),
			zap.Error(err),
		)
	}
	return &model.ListingResult{
		Listing:  *listing,
		Cached:   false,
		CachedAt: now,
	}, nil
}

// listingURL builds the normalized, locale-pinned detail URL so extraction is
// stable across caller locales.
func (o *Orchestrator) listingURL(extensionID string) string {
	return fmt.Sprintf("%s/%s?hl=en&gl=US", o.opts.BaseURL, url.PathEscape(extensionID))
}

// IsLayoutChange reports whether err is an acquisition failure where markup
// was returned but no listing could be extracted, which usually means the
// storefront layout changed rather than the network failing.
func IsLayoutChange(err error) bool {
	var acqErr *Error
	return errors.As(err, &acqErr) && acqErr.Reason == ReasonExtraction
}
