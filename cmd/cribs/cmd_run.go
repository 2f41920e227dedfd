package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Clean every variant, then partition the configured one",
	RunE:  runAll,
}

func init() {
	addSplitFlags(runCmd)
}

func runAll(cmd *cobra.Command, _ []string) error {
	results, err := preprocessVariants(cmd, "")
	if err != nil {
		return err
	}

	v, err := resolveVariant("")
	if err != nil {
		return err
	}
	runID, err := splitAndSave(cmd.Context(), v, results[v], splitOptions(cmd))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cleaned %d variants, saved partition %s for %s\n", len(results), runID, v)
	return nil
}
