package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/enersol/solar-pricing/internal/fieldmap"
	"github.com/enersol/solar-pricing/internal/tokenstore"
)

var fieldsLocation string

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Inspect and map CRM custom fields",
}

var fieldsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the custom fields of a location",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := initTokenStore()
		if err != nil {
			return err
		}
		token, err := store.LocationAccessToken(fieldsLocation)
		if err != nil {
			return err
		}

		fields, err := initGHLClient().CustomFields(ctx, token, fieldsLocation)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKEY\tNAME\tTYPE")
		for _, f := range fields {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", f.ID, f.FieldKey, f.Name, f.DataType)
		}
		return w.Flush()
	},
}

var fieldsMapCmd = &cobra.Command{
	Use:   "map",
	Short: "Resolve known field keys to ids and persist the map",
	Long:  "Fetches the location's custom fields, resolves the proposal field keys to their ids, and writes the map document used by the webhook processor.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := initTokenStore()
		if err != nil {
			return err
		}
		token, err := store.LocationAccessToken(fieldsLocation)
		if err != nil {
			return err
		}

		fields, err := initGHLClient().CustomFields(ctx, token, fieldsLocation)
		if err != nil {
			return err
		}

		m := fieldmap.Build(fields, fieldmap.KnownFieldKeys)
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return eris.Wrap(err, "encode field map")
		}

		path := filepath.Join(cfg.Data.Dir, tokenstore.FieldMapFile)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", path)
		}

		zap.L().Info("field map written",
			zap.String("path", path),
			zap.Int("mapped", len(m)),
			zap.Int("known", len(fieldmap.KnownFieldKeys)),
		)
		return nil
	},
}

func init() {
	fieldsCmd.PersistentFlags().StringVar(&fieldsLocation, "location", "", "location id")
	fieldsCmd.MarkPersistentFlagRequired("location") //nolint:errcheck
	fieldsCmd.AddCommand(fieldsListCmd, fieldsMapCmd)
	rootCmd.AddCommand(fieldsCmd)
}
