package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var pipelinesLocation string

var pipelinesCmd = &cobra.Command{
	Use:   "pipelines",
	Short: "Inspect CRM opportunity pipelines",
}

var pipelinesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the pipelines and stages of a location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := initTokenStore()
		if err != nil {
			return err
		}
		token, err := store.LocationAccessToken(pipelinesLocation)
		if err != nil {
			return err
		}

		pipelines, err := initGHLClient().Pipelines(ctx, token, pipelinesLocation)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PIPELINE\tSTAGE\tID")
		for _, p := range pipelines {
			fmt.Fprintf(w, "%s\t\t%s\n", p.Name, p.ID)
			for _, st := range p.Stages {
				fmt.Fprintf(w, "\t%s\t%s\n", st.Name, st.ID)
			}
		}
		return w.Flush()
	},
}

func init() {
	pipelinesCmd.PersistentFlags().StringVar(&pipelinesLocation, "location", "", "location id")
	pipelinesCmd.MarkPersistentFlagRequired("location") //nolint:errcheck
	pipelinesCmd.AddCommand(pipelinesListCmd)
	rootCmd.AddCommand(pipelinesCmd)
}
