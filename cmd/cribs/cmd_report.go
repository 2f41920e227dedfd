package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/geometry"
)

var reportFlags struct {
	variant string
	output  string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write a GeoJSON summary of price per sqm by district",
	RunE:  runReport,
}

func init() {
	f := reportCmd.Flags()
	f.StringVar(&reportFlags.variant, "variant", "", "Pipeline variant (default from config)")
	f.StringVarP(&reportFlags.output, "output", "o", "", "Output path (default from config)")
}

func runReport(cmd *cobra.Command, _ []string) error {
	v, err := resolveVariant(reportFlags.variant)
	if err != nil {
		return err
	}
	table, err := loadCleaned(v)
	if err != nil {
		return err
	}

	path := reportFlags.output
	if path == "" {
		path = app.cfg.Paths.Report
	}

	dm := geometry.NewDistrictManager(app.logger)
	summaries := dm.Summarize(table)
	if err := dm.SaveReport(path, dm.BuildFeatures(summaries)); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d districts to %s\n", len(summaries), path)
	return nil
}
