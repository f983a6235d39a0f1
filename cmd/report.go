package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/acquire"
)

var (
	reportNoCache bool
	reportTenant  string
)

var reportCmd = &cobra.Command{
	Use:   "report <extension-id>",
	Short: "Generate a narrative risk assessment for an extension",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		extensionID := args[0]

		if err := cfg.Validate("report"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		orch := newOrchestrator(st)
		res, err := orch.GetListing(ctx, extensionID, acquire.GetOptions{
			TenantID: reportTenant,
			NoCache:  reportNoCache,
		})
		if err != nil {
			return eris.Wrap(err, "acquire listing")
		}

		gen := newGenerator(st)
		assessment, err := gen.Generate(ctx, &res.Listing, reportTenant)
		if err != nil {
			return eris.Wrap(err, "generate assessment")
		}

		zap.L().Info("assessment complete",
			zap.String("extension_id", extensionID),
			zap.Int("high_risk_permissions", len(assessment.Buckets.High)),
			zap.Bool("from_cache", res.Cached),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(assessment)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoCache, "no-cache", false, "bypass the cache and fetch fresh")
	reportCmd.Flags().StringVar(&reportTenant, "tenant", "", "tenant id for cache scoping (default: shared)")
	rootCmd.AddCommand(reportCmd)
}
