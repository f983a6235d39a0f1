package report

import (
	"fmt"
	"strings"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/risk"
)

// Model constants.
const (
	ModelHaiku  = "claude-haiku-4-5-20251001"
	ModelSonnet = "claude-sonnet-4-5-20250929"
)

// systemPrompt is the shared instruction for all risk assessments.
const systemPrompt = `You are a security analyst assessing browser extensions for enterprise deployment. You are given the extension's public storefront listing and its permissions grouped by severity.

Rules:
- Base your assessment ONLY on the provided listing data
- Lead with a one-sentence verdict: approve, approve with conditions, or reject
- Explain what each high-severity permission lets the extension do with user data
- Note when a permission is broader than the stated functionality requires
- Keep the assessment under 300 words
- Be factual and specific; this text goes into a compliance record`

// SystemPrompt returns the system instruction for risk assessment requests.
func SystemPrompt() string {
	return systemPrompt
}

// BuildUserMessage renders the listing and its classified permissions into
// the user message for a single assessment request.
func BuildUserMessage(listing *model.Listing, buckets risk.Buckets) string {
	var sb strings.Builder

	sb.WriteString("Assess the following browser extension:\n\n")
	fmt.Fprintf(&sb, "Name: %s\n", listing.Name)
	if listing.Developer != "" {
		fmt.Fprintf(&sb, "Developer: %s\n", listing.Developer)
	}
	if listing.Version != "" {
		fmt.Fprintf(&sb, "Version: %s\n", listing.Version)
	}
	if listing.Category != "" {
		fmt.Fprintf(&sb, "Category: %s\n", listing.Category)
	}
	if listing.UserCount > 0 {
		fmt.Fprintf(&sb, "Users: %d\n", listing.UserCount)
	}
	if listing.Rating > 0 {
		fmt.Fprintf(&sb, "Rating: %.1f (%d ratings)\n", listing.Rating, listing.RatingCount)
	}
	if listing.LastUpdated != "" {
		fmt.Fprintf(&sb, "Last updated: %s\n", listing.LastUpdated)
	}
	if listing.Description != "" {
		fmt.Fprintf(&sb, "\nDescription:\n%s\n", listing.Description)
	}

	sb.WriteString("\nPermissions by severity:\n")
	writeBucket(&sb, "High", buckets.High)
	writeBucket(&sb, "Medium", buckets.Medium)
	writeBucket(&sb, "Low", buckets.Low)

	return sb.String()
}

func writeBucket(sb *strings.Builder, label string, perms []string) {
	if len(perms) == 0 {
		fmt.Fprintf(sb, "- %s: none\n", label)
		return
	}
	fmt.Fprintf(sb, "- %s: %s\n", label, strings.Join(perms, "; "))
}
