package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/partition"
	"github.com/DanLeiria/cribs/internal/preprocess"
)

var splitFlags struct {
	variant      string
	seed         uint64
	folds        int
	testFraction float64
	stratify     string
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Partition a cleaned table into stratified folds and a test set",
	Long: "split reads the cleaned table of a variant, holds out a stratified test set,\n" +
		"splits the remainder into stratified folds and stores the artifact in the database.",
	RunE: runSplit,
}

func init() {
	addSplitFlags(splitCmd)
	splitCmd.Flags().StringVar(&splitFlags.variant, "variant", "", "Pipeline variant to partition (default from config)")
}

// addSplitFlags registers the partitioning overrides shared by split and run
func addSplitFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Uint64Var(&splitFlags.seed, "seed", 0, "Random seed (default from config)")
	f.IntVar(&splitFlags.folds, "folds", 0, "Number of folds (default from config)")
	f.Float64Var(&splitFlags.testFraction, "test-fraction", 0, "Share held out as test set (default from config)")
	f.StringVar(&splitFlags.stratify, "stratify", "", "Stratification column (default from config)")
}

// splitOptions layers the flags the user set over the configured split settings
func splitOptions(cmd *cobra.Command) partition.Options {
	opts := partition.Options{
		StratifyColumn: app.cfg.Split.StratifyColumn,
		TestFraction:   app.cfg.Split.TestFraction,
		FoldCount:      app.cfg.Split.Folds,
		Seed:           app.cfg.Split.Seed,
	}
	f := cmd.Flags()
	if f.Changed("seed") {
		opts.Seed = splitFlags.seed
	}
	if f.Changed("folds") {
		opts.FoldCount = splitFlags.folds
	}
	if f.Changed("test-fraction") {
		opts.TestFraction = splitFlags.testFraction
	}
	if f.Changed("stratify") {
		opts.StratifyColumn = splitFlags.stratify
	}
	return opts
}

func runSplit(cmd *cobra.Command, _ []string) error {
	v, err := resolveVariant(splitFlags.variant)
	if err != nil {
		return err
	}
	table, err := loadCleaned(v)
	if err != nil {
		return err
	}

	runID, err := splitAndSave(cmd.Context(), v, table, splitOptions(cmd))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved partition %s for %s\n", runID, v)
	return nil
}

// splitAndSave partitions table and persists the artifact keyed by the variant name
func splitAndSave(ctx context.Context, v preprocess.Variant, table *models.Table, opts partition.Options) (string, error) {
	result, err := partition.Partition(table, opts)
	if err != nil {
		return "", fmt.Errorf("%s: split: %w", v, err)
	}

	db, err := openDatabase()
	if err != nil {
		return "", err
	}
	defer db.Close()

	run, err := db.SavePartition(ctx, v.String(), result, opts)
	if err != nil {
		return "", fmt.Errorf("%s: save partition: %w", v, err)
	}
	app.metrics.ObservePartition(v.String())

	fields := logrus.Fields{
		"variant": v.String(),
		"run_id":  run.ID,
		"test":    result.Test.Len(),
		"folds":   len(result.Folds),
	}
	for i, fold := range result.Folds {
		app.logger.WithFields(logrus.Fields{
			"fold":       i,
			"train":      fold.Train.Len(),
			"validation": fold.Validation.Len(),
		}).Debug("Fold sizes")
	}
	app.logger.WithFields(fields).Info("Saved partition")
	return run.ID, nil
}
