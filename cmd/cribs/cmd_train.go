package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/DanLeiria/cribs/internal/training"
)

var trainFlags struct {
	variant string
	list    bool
}

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Score the baseline regressor on the latest stored folds",
	Long: "train loads the latest partition stored for a variant, fits the group-mean baseline\n" +
		"on every fold and prints RMSE and R2 per fold and on the held-out test set.",
	RunE: runTrain,
}

func init() {
	f := trainCmd.Flags()
	f.StringVar(&trainFlags.variant, "variant", "", "Pipeline variant (default from config)")
	f.BoolVar(&trainFlags.list, "list", false, "List the stored partitions instead of training")
}

func runTrain(cmd *cobra.Command, _ []string) error {
	v, err := resolveVariant(trainFlags.variant)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	if trainFlags.list {
		runs, err := db.ListPartitions(cmd.Context(), v.String())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tSEED\tFOLDS\tSTRATIFY\tRECORDS")
		for _, r := range runs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%d\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Seed, r.FoldCount, r.StratifyColumn, r.MemberCount)
		}
		return w.Flush()
	}

	result, run, err := db.LoadPartition(cmd.Context(), v.String())
	if err != nil {
		return err
	}
	app.logger.WithFields(logrus.Fields{
		"variant": v.String(),
		"run_id":  run.ID,
		"seed":    run.Seed,
	}).Info("Loaded partition")

	trainer := training.NewTrainer(func() training.Regressor {
		return training.NewGroupMean(training.DefaultHierarchy)
	}, app.logger)
	report, err := trainer.CrossValidate(cmd.Context(), result, run.StratifyColumn)
	if err != nil {
		return fmt.Errorf("%s: train: %w", v, err)
	}
	return printJSON(out, report)
}
