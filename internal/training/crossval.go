package training

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/partition"
	"github.com/DanLeiria/cribs/internal/stats"
)

// nonFeatureColumns never reach a regressor; the stratification column is added per run
var nonFeatureColumns = []string{models.ColPricePerSqm, models.ColCity, models.ColID}

// FoldScore is the evaluation of one train/validation pair
type FoldScore struct {
	Fold           int     `json:"fold"`
	TrainSize      int     `json:"train_size"`
	ValidationSize int     `json:"validation_size"`
	RMSE           float64 `json:"rmse"`
	R2             float64 `json:"r2"`
}

// Report collects the fold scores, their means and the hold-out score on the test set
type Report struct {
	Folds    []FoldScore `json:"folds"`
	MeanRMSE float64     `json:"mean_rmse"`
	MeanR2   float64     `json:"mean_r2"`
	Holdout  FoldScore   `json:"holdout"`
}

// Features returns the columns used as predictors
func Features(columns []string, stratifyColumn string) []string {
	var out []string
	for _, c := range columns {
		if slices.Contains(nonFeatureColumns, c) || c == stratifyColumn {
			continue
		}
		out = append(out, c)
	}
	return out
}

type Trainer struct {
	newModel func() Regressor
	logger   *logrus.Logger
}

// NewTrainer creates a trainer building a fresh regressor for every fold
func NewTrainer(newModel func() Regressor, logger *logrus.Logger) *Trainer {
	return &Trainer{newModel: newModel, logger: logger}
}

// CrossValidate fits one model per fold and scores it on the fold's validation set, then
// fits on the whole remainder and scores on the test set
func (t *Trainer) CrossValidate(ctx context.Context, result *partition.Result, stratifyColumn string) (*Report, error) {
	report := &Report{}
	for i, fold := range result.Folds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := t.evaluate(fold.Train, fold.Validation, stratifyColumn)
		if err != nil {
			return nil, fmt.Errorf("fold %d: %w", i, err)
		}
		score.Fold = i
		report.Folds = append(report.Folds, score)

		t.logger.WithFields(logrus.Fields{
			"fold": i,
			"rmse": stats.RoundTo(score.RMSE, 2),
			"r2":   stats.RoundTo(score.R2, 2),
		}).Info("Evaluated fold")
	}

	for _, s := range report.Folds {
		report.MeanRMSE += s.RMSE / float64(len(report.Folds))
		report.MeanR2 += s.R2 / float64(len(report.Folds))
	}

	holdout, err := t.evaluate(result.Remainder(), result.Test, stratifyColumn)
	if err != nil {
		return nil, fmt.Errorf("holdout: %w", err)
	}
	holdout.Fold = -1
	report.Holdout = holdout

	t.logger.WithFields(logrus.Fields{
		"rmse": stats.RoundTo(holdout.RMSE, 2),
		"r2":   stats.RoundTo(holdout.R2, 2),
	}).Info("Evaluated hold-out test set")
	return report, nil
}

func (t *Trainer) evaluate(train, validation *models.Table, stratifyColumn string) (FoldScore, error) {
	model := t.newModel()
	if err := model.Fit(train, Features(train.Columns, stratifyColumn)); err != nil {
		return FoldScore{}, err
	}

	actual := make([]float64, 0, validation.Len())
	predicted := make([]float64, 0, validation.Len())
	for i := range validation.Records {
		r := &validation.Records[i]
		if r.PricePerSqm == nil {
			return FoldScore{}, fmt.Errorf("record %d: missing %s", r.ID, models.ColPricePerSqm)
		}
		p, err := model.Predict(r)
		if err != nil {
			return FoldScore{}, err
		}
		actual = append(actual, *r.PricePerSqm)
		predicted = append(predicted, p)
	}

	return FoldScore{
		TrainSize:      train.Len(),
		ValidationSize: validation.Len(),
		RMSE:           RMSE(actual, predicted),
		R2:             R2(actual, predicted),
	}, nil
}

// RMSE is the root mean squared error; it is 0 for empty input
func RMSE(actual, predicted []float64) float64 {
	if len(actual) == 0 {
		return 0
	}
	sum := 0.0
	for i := range actual {
		d := actual[i] - predicted[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(actual)))
}

// R2 is the coefficient of determination. A constant target scores 1 when predicted
// exactly and 0 otherwise.
func R2(actual, predicted []float64) float64 {
	m := stats.Mean(actual)
	var ssRes, ssTot float64
	for i := range actual {
		ssRes += (actual[i] - predicted[i]) * (actual[i] - predicted[i])
		ssTot += (actual[i] - m) * (actual[i] - m)
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return 1 - ssRes/ssTot
}
