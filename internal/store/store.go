// Package store persists acquired listings with tenant-scoped, TTL-bound caching.
package store

import (
	"context"
	"time"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// GlobalTenant is the sentinel tenant key for entries shared by all tenants.
// Normalizing "no tenant" to a stable sentinel keeps the natural key unique
// without colliding with any real tenant id.
const GlobalTenant = "_global"

// Key values used by the acquisition pipeline.
const (
	SourceChromeWebstore = "chrome_webstore"
	QueryTypeExtensionID = "extension_id"
)

// Store defines the persistence interface for the listing cache.
//
// Entries are keyed by (source, query_type, query_value, tenant). Expiration
// is enforced at read time only; there is no background sweep.
type Store interface {
	// GetListing returns the freshest live entry for the key visible to
	// tenantID: the tenant's own entry is preferred over a global one even
	// when the global entry is newer. A cache miss is (nil, nil), not an error.
	GetListing(ctx context.Context, source, queryType, queryValue, tenantID string) (*model.CacheEntry, error)

	// PutListing upserts the entry for the key, replacing the stored listing
	// and analysis and resetting cached_at / expires_at to now / now+ttl.
	// Returns the entry id.
	PutListing(ctx context.Context, source, queryType, queryValue string, listing *model.Listing, analysis, tenantID string, ttl time.Duration) (string, error)

	// UpdateAnalysis attaches derived narrative analysis to the live entry
	// for the key. Errors if no live entry exists.
	UpdateAnalysis(ctx context.Context, source, queryType, queryValue, analysis, tenantID string) error

	// Migrate creates or updates the backing schema.
	Migrate(ctx context.Context) error

	Close() error
}

// tenantKey normalizes a tenant id for uniqueness purposes, so that "no
// tenant" is a distinct, stable key from any real tenant id.
func tenantKey(tenantID string) string {
	if tenantID == "" {
		return GlobalTenant
	}
	return tenantID
}
