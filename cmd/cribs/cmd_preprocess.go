package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/dataset"
	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/preprocess"
)

var preprocessFlags struct {
	variant string
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess",
	Short: "Clean the raw dataset and write one table per variant",
	RunE:  runPreprocess,
}

func init() {
	preprocessCmd.Flags().StringVar(&preprocessFlags.variant, "variant", "", "Only clean this variant (default all)")
}

func runPreprocess(cmd *cobra.Command, _ []string) error {
	results, err := preprocessVariants(cmd, preprocessFlags.variant)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, v := range preprocess.Variants {
		if t, ok := results[v]; ok {
			fmt.Fprintf(out, "%-10s %d rows\n", v, t.Len())
		}
	}
	return nil
}

// preprocessVariants cleans every variant, or only the named one
func preprocessVariants(cmd *cobra.Command, name string) (map[preprocess.Variant]*models.Table, error) {
	if name == "" {
		return preprocess.RunAll(cmd.Context(), app.cfg, app.logger, app.metrics)
	}

	v, err := preprocess.ParseVariant(name)
	if err != nil {
		return nil, err
	}
	raw, err := dataset.ReadCSV(app.cfg.Paths.Raw, models.RequiredRawColumns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw data: %w", err)
	}
	cleaned, err := preprocess.RunVariant(cmd.Context(), v, raw, app.cfg, app.logger, app.metrics)
	if err != nil {
		return nil, err
	}
	return map[preprocess.Variant]*models.Table{v: cleaned}, nil
}
