// Package report turns an acquired listing into a narrative risk assessment
// using the Anthropic API and attaches it to the cached entry.
package report

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/resilience"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/risk"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/store"
	"github.com/dizzlizm/complens.ai.web-sub006/pkg/anthropic"
)

// Options configures a Generator.
type Options struct {
	Model     string // default ModelHaiku
	MaxTokens int64  // default 1024
	Retry     resilience.RetryConfig
}

// Generator produces risk assessments for listings.
type Generator struct {
	client anthropic.Client
	store  store.Store
	opts   Options
}

// NewGenerator creates a Generator over the given client and store.
func NewGenerator(client anthropic.Client, st store.Store, opts Options) *Generator {
	if opts.Model == "" {
		opts.Model = ModelHaiku
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	return &Generator{client: client, store: st, opts: opts}
}

// Assessment is the result of one report generation.
type Assessment struct {
	ExtensionID string       `json:"extension_id"`
	Text        string       `json:"text"`
	Buckets     risk.Buckets `json:"permissions"`
}

// Generate classifies the listing's permissions, requests a narrative
// assessment, and attaches it to the live cache entry for the listing.
// A missing cache entry is logged but not fatal; the assessment is still
// returned.
func (g *Generator) Generate(ctx context.Context, listing *model.Listing, tenantID string) (*Assessment, error) {
	if !listing.Valid() {
		return nil, eris.New("report: listing has no name, nothing to assess")
	}

	buckets := risk.Classify(listing.Permissions)

	req := anthropic.MessageRequest{
		Model:     g.opts.Model,
		MaxTokens: g.opts.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(SystemPrompt()),
		Messages: []anthropic.Message{
			{Role: "user", Content: BuildUserMessage(listing, buckets)},
		},
	}

	retry := g.opts.Retry
	if retry.ShouldRetry == nil {
		retry.ShouldRetry = anthropic.IsRetryable
	}
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("anthropic", "create_message")
	}

	resp, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return g.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "report: generate assessment")
	}
	resp.Usage.LogCost(g.opts.Model, "risk_assessment")

	text := resp.Text()
	if text == "" {
		return nil, eris.Errorf("report: model returned no text (stop reason %s)", resp.StopReason)
	}

	if err := g.store.UpdateAnalysis(ctx, store.SourceChromeWebstore, store.QueryTypeExtensionID,
		listing.ID, text, tenantID); err != nil {
		zap.L().Warn("report: could not attach assessment to cache entry",
			zap.String("extension_id", listing.ID),
			zap.Error(err),
		)
	}

	return &Assessment{
		ExtensionID: listing.ID,
		Text:        text,
		Buckets:     buckets,
	}, nil
}
