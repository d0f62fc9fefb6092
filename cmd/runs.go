package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var runsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect token maintenance and webhook history",
}

var runsJobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List token maintenance runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		auditStore, err := initAudit(ctx)
		if err != nil {
			return err
		}
		defer auditStore.Close() //nolint:errcheck

		runs, err := auditStore.ListJobRuns(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No job runs found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tJOB\tSTATUS\tSTARTED\tFINISHED\tDETAIL")
		for _, r := range runs {
			finished := "-"
			if r.FinishedAt != nil {
				finished = r.FinishedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Job, r.Status, r.StartedAt.Format(time.RFC3339), finished, r.Detail)
		}
		return w.Flush()
	},
}

var runsWebhooksCmd = &cobra.Command{
	Use:   "webhooks",
	Short: "List processed proposal webhooks",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		auditStore, err := initAudit(ctx)
		if err != nil {
			return err
		}
		defer auditStore.Close() //nolint:errcheck

		events, err := auditStore.ListWebhookEvents(ctx, runsLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Fprintln(os.Stderr, "No webhook events found.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLOCATION\tSTATUS\tCONTACT\tOPPORTUNITY\tVALUE\tERROR")
		for _, ev := range events {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
				ev.ID, ev.LocationID, ev.Status, ev.ContactID, ev.OpportunityID, ev.ProposalValue, ev.Error)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.PersistentFlags().IntVar(&runsLimit, "limit", 50, "maximum rows to list")
	runsCmd.AddCommand(runsJobsCmd, runsWebhooksCmd)
	rootCmd.AddCommand(runsCmd)
}
