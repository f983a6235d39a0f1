package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/acquire"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/model"
	"github.com/dizzlizm/complens.ai.web-sub006/internal/risk"
)

var (
	lookupNoCache     bool
	lookupTenant      string
	lookupConcurrency int
)

// lookupOutput is the per-extension JSON emitted on stdout.
type lookupOutput struct {
	ExtensionID string               `json:"extension_id"`
	Result      *model.ListingResult `json:"result,omitempty"`
	Risk        *risk.Buckets        `json:"risk,omitempty"`
	Error       string               `json:"error,omitempty"`
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <extension-id> [extension-id...]",
	Short: "Fetch storefront listings and classify their permissions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := newOrchestrator(st)

		outputs := make([]lookupOutput, len(args))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(lookupConcurrency)
		for i, id := range args {
			g.Go(func() error {
				out := lookupOutput{ExtensionID: id}
				res, err := orch.GetListing(gctx, id, acquire.GetOptions{
					TenantID: lookupTenant,
					NoCache:  lookupNoCache,
				})
				if err != nil {
					// One bad id must not sink the batch.
					zap.L().Error("lookup failed",
						zap.String("extension_id", id),
						zap.Error(err),
					)
					out.Error = err.Error()
				} else {
					buckets := risk.Classify(res.Listing.Permissions)
					out.Result = res
					out.Risk = &buckets
				}
				outputs[i] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		failed := 0
		for _, out := range outputs {
			if out.Error != "" {
				failed++
			}
		}
		zap.L().Info("lookup complete",
			zap.Int("requested", len(args)),
			zap.Int("failed", failed),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(outputs); err != nil {
			return eris.Wrap(err, "encode output")
		}
		if failed == len(args) {
			return eris.New("all lookups failed")
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().BoolVar(&lookupNoCache, "no-cache", false, "bypass the cache and fetch fresh")
	lookupCmd.Flags().StringVar(&lookupTenant, "tenant", "", "tenant id for cache scoping (default: shared)")
	lookupCmd.Flags().IntVar(&lookupConcurrency, "concurrency", 4, "max concurrent lookups")
	rootCmd.AddCommand(lookupCmd)
}
