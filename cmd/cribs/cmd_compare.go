package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/compare"
	"github.com/DanLeiria/cribs/internal/preprocess"
)

var compareFlags struct {
	queryPath string
	variant   string
}

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Position a listing's price per sqm among matching cleaned listings",
	Long: "compare reads a JSON query such as\n\n" +
		"  {\"Region\": \"Algarve\", \"City\": [\"Faro\", \"Loulé\"], \"AreaAssigned\": 2200, \"Price\": 27000}\n\n" +
		"filters the cleaned table by every key except AreaAssigned and Price, and prints the\n" +
		"median price per sqm of the matches and the percentile of the query listing.",
	RunE: runCompare,
}

func init() {
	f := compareCmd.Flags()
	f.StringVarP(&compareFlags.queryPath, "file", "f", "", "Query JSON file, - for stdin (required)")
	f.StringVar(&compareFlags.variant, "variant", preprocess.VariantLand.String(), "Pipeline variant to compare against")

	_ = compareCmd.MarkFlagRequired("file")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	var body []byte
	var err error
	if compareFlags.queryPath == "-" {
		body, err = io.ReadAll(cmd.InOrStdin())
	} else {
		body, err = os.ReadFile(compareFlags.queryPath)
	}
	if err != nil {
		return fmt.Errorf("read query: %w", err)
	}

	decoder, err := compare.NewQueryDecoder()
	if err != nil {
		return err
	}
	query, err := decoder.Decode(body)
	if err != nil {
		return err
	}

	v, err := preprocess.ParseVariant(compareFlags.variant)
	if err != nil {
		return err
	}
	table, err := loadCleaned(v)
	if err != nil {
		return err
	}

	result, err := compare.Compare(table, query)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}
