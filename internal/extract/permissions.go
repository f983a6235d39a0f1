package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
)

// permissionVocabulary lists the permission-risk phrases and capability
// identifiers probed for in page text. Detection order follows this list.
// This is a plain substring test; unrelated text containing the same
// substring is an accepted false positive.
var permissionVocabulary = []string{
	"Read and change all your data on all websites",
	"Read and change all your data on the websites you visit",
	"Read your browsing history",
	"Access your tabs and browsing activity",
	"Manage your apps, extensions, and themes",
	"Communicate with cooperating native applications",
	"Read and modify data you copy and paste",
	"Detect your physical location",
	"Manage your downloads",
	"<all_urls>",
	"webRequestBlocking",
	"webRequest",
	"declarativeNetRequest",
	"nativeMessaging",
	"clipboardRead",
	"clipboardWrite",
	"activeTab",
	"cookies",
	"bookmarks",
	"geolocation",
	"notifications",
	"management",
	"downloads",
	"identity",
	"scripting",
	"storage",
	"proxy",
	"debugger",
	"history",
	"tabs",
}

// applyPermissionScan flattens the markup to plain text and appends every
// vocabulary entry present anywhere in it. Each entry is appended at most
// once, so the permission list is duplicate-free by construction.
func applyPermissionScan(doc *goquery.Document, listing *model.Listing) {
	text := doc.Text()
	for _, keyword := range permissionVocabulary {
		if strings.Contains(text, keyword) {
			listing.Permissions = append(listing.Permissions, keyword)
		}
	}
}
