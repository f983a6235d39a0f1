// Package model defines the domain types shared across the acquisition engine.
package model

import "time"

// FetchMethod records which acquisition strategy produced a listing.
type FetchMethod string

const (
	// FetchStatic means the transport-only HTTP path produced the listing.
	FetchStatic FetchMethod = "static"
	// FetchRendered means the headless-browser fallback produced the listing.
	FetchRendered FetchMethod = "rendered"
)

// Listing is the normalized result of one storefront acquisition.
// Optional fields are left zero when no extraction strategy could fill them.
type Listing struct {
	ID          string      `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Version     string      `json:"version,omitempty"`
	Category    string      `json:"category,omitempty"`
	IconURL     string      `json:"icon_url,omitempty"`
	Rating      float64     `json:"rating,omitempty"`
	RatingCount int         `json:"rating_count,omitempty"`
	UserCount   int         `json:"user_count,omitempty"`
	Developer   string      `json:"developer,omitempty"`
	LastUpdated string      `json:"last_updated,omitempty"`
	Permissions []string    `json:"permissions,omitempty"`
	FetchMethod FetchMethod `json:"fetch_method,omitempty"`
	SourceURL   string      `json:"source_url,omitempty"`
}

// Valid reports whether the listing carries enough data to be cached or
// returned. A missing name is the signal that the storefront served a bot
// wall or a JavaScript shell instead of the real page.
func (l *Listing) Valid() bool {
	return l != nil && l.Name != ""
}

// CacheEntry wraps a persisted listing plus optional derived analysis.
type CacheEntry struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	QueryType  string    `json:"query_type"`
	QueryValue string    `json:"query_value"`
	TenantID   string    `json:"tenant_id,omitempty"` // empty = globally shared entry
	Listing    Listing   `json:"listing"`
	Analysis   string    `json:"analysis,omitempty"`
	CachedAt   time.Time `json:"cached_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ListingResult is the caller-facing acquisition result.
type ListingResult struct {
	Listing  Listing   `json:"listing"`
	Cached   bool      `json:"cached"`
	CachedAt time.Time `json:"cached_at"`
	Analysis string    `json:"analysis,omitempty"`
}
