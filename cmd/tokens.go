package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Maintain the GoHighLevel OAuth token store",
}

var tokensUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh the agency token, sync locations, and issue location tokens",
	Long:  "Runs the three token maintenance steps in order. A failure in the agency refresh or the location sync stops the job; individual location token failures are recorded and the batch continues.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := initTokenStore()
		if err != nil {
			return err
		}

		auditStore, err := initAudit(ctx)
		if err != nil {
			return err
		}
		defer auditStore.Close() //nolint:errcheck

		runID, err := auditStore.StartJobRun(ctx, "tokens-update")
		if err != nil {
			zap.L().Warn("audit job start failed", zap.Error(err))
		}

		ok, detail := initManager(store).UpdateAll(ctx)

		if runID != "" {
			if err := auditStore.FinishJobRun(ctx, runID, ok, detail); err != nil {
				zap.L().Warn("audit job finish failed", zap.Error(err))
			}
		}

		if !ok {
			return eris.New(detail)
		}
		zap.L().Info("token update complete", zap.String("detail", detail))
		return nil
	},
}

func init() {
	tokensCmd.AddCommand(tokensUpdateCmd)
	rootCmd.AddCommand(tokensCmd)
}
