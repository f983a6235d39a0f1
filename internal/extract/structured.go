package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// softwareApp mirrors the schema.org fields the storefront embeds for its
// primary entity. Numeric fields arrive as numbers or strings depending on
// page revision, so they are decoded loosely.
type softwareApp struct {
	Type                any              `json:"@type"`
	Name                string           `json:"name"`
	Description         string           `json:"description"`
	SoftwareVersion     string           `json:"softwareVersion"`
	ApplicationCategory string           `json:"applicationCategory"`
	Image               string           `json:"image"`
	AggregateRating     *aggregateRating `json:"aggregateRating"`
}

type aggregateRating struct {
	RatingValue any `json:"ratingValue"`
	RatingCount any `json:"ratingCount"`
}

// applyStructuredData populates the listing from the first well-formed
// ld+json software-application block. Fields it sets are authoritative and
// are never overwritten by later strategies.
func applyStructuredData(doc *goquery.Document, listing *model.Listing) {
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		app, ok := decodeSoftwareApp(s.Text())
		if !ok {
			return true // malformed or unrelated block, keep scanning
		}

		listing.Name = strings.TrimSpace(app.Name)
		listing.Description = strings.TrimSpace(app.Description)
		listing.Version = strings.TrimSpace(app.SoftwareVersion)
		listing.Category = strings.TrimSpace(app.ApplicationCategory)
		listing.IconURL = strings.TrimSpace(app.Image)
		if app.AggregateRating != nil {
			listing.Rating = toFloat(app.AggregateRating.RatingValue)
			listing.RatingCount = toInt(app.AggregateRating.RatingCount)
		}
		return false
	})
}

// decodeSoftwareApp accepts a bare object or an array of objects and returns
// the first software-application entity found.
func decodeSoftwareApp(raw string) (*softwareApp, bool) {
	var single softwareApp
	if err := json.Unmarshal([]byte(raw), &single); err == nil {
		if isSoftwareApp(single.Type) {
			return &single, true
		}
	}

	var many []softwareApp
	if err := json.Unmarshal([]byte(raw), &many); err == nil {
		for i := range many {
			if isSoftwareApp(many[i].Type) {
				return &many[i], true
			}
		}
	}
	return nil, false
}

func isSoftwareApp(typ any) bool {
	switch v := typ.(type) {
	case string:
		return v == "SoftwareApplication" || v == "WebApplication"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && isSoftwareApp(s) {
				return true
			}
		}
	}
	return false
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil {
			return f
		}
	}
	return 0
}

func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err == nil {
			return i
		}
	}
	return 0
}
