package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/acquire"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/fetcher"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/report"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/resilience"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/store"
	"github.com/dizzlizm/complens.ai.web-sub006/pkg/anthropic"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "extrisk.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func newOrchestrator(st store.Store) *acquire.Orchestrator {
	static := fetcher.NewStatic(fetcher.StaticOptions{
		UserAgent:    cfg.Webstore.UserAgent,
		Timeout:      time.Duration(cfg.Webstore.TimeoutSecs) * time.Second,
		MaxRedirects: cfg.Webstore.MaxRedirects,
		RatePerSec:   rate.Limit(cfg.Webstore.RatePerSec),
	})
	rendered := fetcher.NewRendered(fetcher.RenderedOptions{
		UserAgent: cfg.Webstore.UserAgent,
		Timeout:   time.Duration(cfg.Webstore.RenderTimeoutSecs) * time.Second,
	})
	return acquire.New(st, static, rendered, acquire.Options{
		BaseURL: cfg.Webstore.BaseURL,
		TTL:     time.Duration(cfg.Webstore.CacheTTLHours) * time.Hour,
		Dedupe:  cfg.Webstore.Dedupe,
	})
}

func newGenerator(st store.Store) *report.Generator {
	return report.NewGenerator(anthropic.NewClient(cfg.Anthropic.Key), st, report.Options{
		Model:     cfg.Anthropic.Model,
		MaxTokens: int64(cfg.Anthropic.MaxTokens),
		Retry: resilience.FromConfig(cfg.Anthropic.MaxAttempts,
			cfg.Anthropic.InitialBackoffMs, cfg.Anthropic.MaxBackoffMs),
	})
}
