// Package risk buckets extension permissions into severity tiers.
package risk

import "strings"

// highRiskKeywords mark permissions that grant broad data access or the
// ability to intercept, rewrite, or exfiltrate traffic.
var highRiskKeywords = []string{
	"all your data",
	"all websites",
	"browsing history",
	"webrequest",
	"<all_urls>",
	"cookies",
	"nativemessaging",
	"native applications",
	"clipboardread",
	"copy and paste",
	"management",
	"proxy",
	"debugger",
}

// mediumRiskKeywords mark permissions with meaningful but scoped reach.
var mediumRiskKeywords = []string{
	"activetab",
	"tabs",
	"history",
	"bookmarks",
	"downloads",
	"geolocation",
	"physical location",
	"identity",
	"notifications",
	"scripting",
	"declarativenetrequest",
	"clipboardwrite",
}

// Buckets partitions permissions by severity. Input order is preserved
// within each bucket.
type Buckets struct {
	High   []string `json:"high"`
	Medium []string `json:"medium"`
	Low    []string `json:"low"`
}

// Classify assigns each permission to exactly one bucket via case-insensitive
// substring matching, high keywords checked first. It is a pure function:
// the same input always yields the same partition.
func Classify(permissions []string) Buckets {
	var b Buckets
	for _, perm := range permissions {
		lower := strings.ToLower(perm)
		switch {
		case matchesAny(lower, highRiskKeywords):
			b.High = append(b.High, perm)
		case matchesAny(lower, mediumRiskKeywords):
			b.Medium = append(b.Medium, perm)
		default:
			b.Low = append(b.Low, perm)
		}
	}
	return b
}

func matchesAny(perm string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(perm, kw) {
			return true
		}
	}
	return false
}
