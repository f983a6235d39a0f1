package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dizzlizm/complens.ai.web-sub006/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "extrisk",
	Short: "Browser extension listing acquisition and risk assessment",
	Long:  "Fetches Chrome Web Store listings (static HTTP first, headless browser fallback), extracts structured listing data, classifies permissions by risk, and generates narrative assessments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
