// Package extract turns storefront markup into a normalized listing using an
// ordered set of tolerant strategies. Earlier strategies are authoritative;
// later ones only fill fields still unset.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// Extract parses html and runs the strategy chain:
//
//  1. embedded structured-data block (schema.org SoftwareApplication)
//  2. meta tags, with boilerplate title suffixes stripped
//  3. free-text label scan (offered-by, updated, "N+ users")
//  4. permission-keyword vocabulary scan over the flattened text
//
// The returned listing may be invalid (missing name); validity is judged by
// the caller.
func Extract(html string) (*model.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse html")
	}

	listing := &model.Listing{}
	applyStructuredData(doc, listing)
	applyMetaTags(doc, listing)
	applyLabelScan(doc, listing)
	applyPermissionScan(doc, listing)
	return listing, nil
}
