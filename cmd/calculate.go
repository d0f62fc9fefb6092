package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/enersol/solar-pricing/internal/pricing"
)

var calculateJSON bool

var calculateCmd = &cobra.Command{
	Use:   "calculate [input.json]",
	Short: "Compute a proposal value from a quotation input file",
	Long:  "Reads quotation input JSON from the given file, or stdin when no file is given, and prints the proposal value.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(cmd.InOrStdin())
		}
		if err != nil {
			return eris.Wrap(err, "read input")
		}

		var in pricing.Input
		if err := json.Unmarshal(data, &in); err != nil {
			return eris.Wrap(err, "parse input")
		}

		value, err := pricing.Calculate(in)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if calculateJSON {
			return json.NewEncoder(out).Encode(map[string]float64{"valor_proposta": value})
		}

		p := message.NewPrinter(language.BrazilianPortuguese)
		_, err = fmt.Fprintln(out, p.Sprintf("Valor da proposta: R$ %v",
			number.Decimal(value, number.MinFractionDigits(2), number.MaxFractionDigits(2))))
		return err
	},
}

func init() {
	calculateCmd.Flags().BoolVar(&calculateJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(calculateCmd)
}
