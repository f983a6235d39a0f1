package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// titleSuffixes are storefront boilerplate appended to page titles.
var titleSuffixes = []string{
	" - Chrome Web Store",
	" — Chrome Web Store",
	" | Chrome Web Store",
	" - Microsoft Edge Addons",
}

// applyMetaTags fills name, description, and icon from page meta tags for
// fields the structured-data strategy left unset.
func applyMetaTags(doc *goquery.Document, listing *model.Listing) {
	if listing.Name == "" {
		listing.Name = stripTitleSuffix(firstOf(doc,
			metaContent(`meta[property="og:title"]`),
			metaContent(`meta[name="twitter:title"]`),
			func(d *goquery.Document) string { return d.Find("title").First().Text() },
		))
	}
	if listing.Description == "" {
		listing.Description = firstOf(doc,
			metaContent(`meta[property="og:description"]`),
			metaContent(`meta[name="description"]`),
		)
	}
	if listing.IconURL == "" {
		listing.IconURL = firstOf(doc, metaContent(`meta[property="og:image"]`))
	}
}

func metaContent(selector string) func(*goquery.Document) string {
	return func(doc *goquery.Document) string {
		content, _ := doc.Find(selector).First().Attr("content")
		return content
	}
}

func firstOf(doc *goquery.Document, lookups ...func(*goquery.Document) string) string {
	for _, lookup := range lookups {
		if v := strings.TrimSpace(lookup(doc)); v != "" {
			return v
		}
	}
	return ""
}

func stripTitleSuffix(title string) string {
	for _, suffix := range titleSuffixes {
		title = strings.TrimSuffix(title, suffix)
	}
	return strings.TrimSpace(title)
}
