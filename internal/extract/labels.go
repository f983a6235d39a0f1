package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

var (
	usersRe     = regexp.MustCompile(`([0-9][0-9,.\x{00a0} ]*)\+?\s*users`)
	updatedRe   = regexp.MustCompile(`Updated:?\s*([A-Z][a-z]+ \d{1,2}, \d{4})`)
	offeredByRe = regexp.MustCompile(`(?i)offered by[:\s]+(\S[^\n]{0,78})`)
	versionRe   = regexp.MustCompile(`Version:?\s*([0-9][0-9A-Za-z.\-]*)`)
)

// applyLabelScan extracts values adjacent to fixed label phrases from the
// rendered text. The source gives no structured format guarantee for these,
// so matches are best-effort and only fill fields still unset.
func applyLabelScan(doc *goquery.Document, listing *model.Listing) {
	text := doc.Text()

	if listing.UserCount == 0 {
		if m := usersRe.FindStringSubmatch(text); m != nil {
			listing.UserCount = parseCount(m[1])
		}
	}
	if listing.LastUpdated == "" {
		if m := updatedRe.FindStringSubmatch(text); m != nil {
			listing.LastUpdated = strings.TrimSpace(m[1])
		}
	}
	if listing.Developer == "" {
		if m := offeredByRe.FindStringSubmatch(text); m != nil {
			listing.Developer = strings.TrimSpace(m[1])
		}
	}
	if listing.Version == "" {
		if m := versionRe.FindStringSubmatch(text); m != nil {
			listing.Version = strings.TrimSpace(m[1])
		}
	}
}

// parseCount parses a count with thousands separators and trailing-plus
// tolerance, e.g. "400,000+" or "1 200 000".
func parseCount(raw string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	n, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0
	}
	return n
}
