package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enersol/solar-pricing/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "solar-pricing",
	Short: "Solar installation quotation service",
	Long:  "Computes residential solar price quotations, serves them over HTTP, and synchronizes proposal webhooks into GoHighLevel as contacts and opportunities.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Credentials commonly live in a .env next to the binary.
		_ = godotenv.Load()

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
