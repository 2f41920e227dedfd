package training

import (
	"context"
	"math"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/partition"
)

type mockRegressor struct {
	mock.Mock
}

func (m *mockRegressor) Fit(train *models.Table, features []string) error {
	args := m.Called(train, features)
	return args.Error(0)
}

func (m *mockRegressor) Predict(r *models.Record) (float64, error) {
	args := m.Called(r)
	return args.Get(0).(float64), args.Error(1)
}

func TestFeatures(t *testing.T) {
	columns := []string{models.ColID, models.ColType, models.ColDistrict, models.ColCity, models.ColAreaAssigned, models.ColPricePerSqm, models.ColRegion}

	assert.Equal(t, []string{models.ColType, models.ColAreaAssigned, models.ColRegion}, Features(columns, models.ColDistrict))
}

func TestMetrics(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		rmse      float64
		r2        float64
	}{
		{"perfect", []float64{1, 2, 3}, []float64{1, 2, 3}, 0, 1},
		{"mean predictor", []float64{1, 2, 3}, []float64{2, 2, 2}, math.Sqrt(2.0 / 3.0), 0},
		{"constant target exact", []float64{4, 4}, []float64{4, 4}, 0, 1},
		{"constant target missed", []float64{4, 4}, []float64{5, 5}, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.rmse, RMSE(tt.actual, tt.predicted), 1e-12)
			assert.InDelta(t, tt.r2, R2(tt.actual, tt.predicted), 1e-12)
		})
	}
}

func trainingTable() *models.Table {
	t := &models.Table{Columns: []string{models.ColType, models.ColDistrict, models.ColCity, models.ColRegion, models.ColPricePerSqm}}
	regions := map[string]string{"Porto": "Norte", "Braga": "Norte", "Lisboa": "Lisboa", "Faro": "Algarve"}
	base := map[string]float64{"Norte": 20, "Lisboa": 60, "Algarve": 40}
	districts := []string{"Porto", "Braga", "Lisboa", "Faro"}

	for i := 1; i <= 80; i++ {
		d := districts[i%len(districts)]
		region := regions[d]
		t.Records = append(t.Records, models.Record{
			ID:          i,
			Type:        models.TypeLand,
			District:    d,
			City:        "C",
			Region:      models.String(region),
			PricePerSqm: models.Float(base[region] + float64(i%3)),
		})
	}
	return t
}

func TestGroupMean(t *testing.T) {
	table := trainingTable()
	g := NewGroupMean(DefaultHierarchy)

	require.NoError(t, g.Fit(table, Features(table.Columns, models.ColDistrict)))

	lisboa := models.Record{Type: models.TypeLand, Region: models.String("Lisboa")}
	p, err := g.Predict(&lisboa)
	require.NoError(t, err)
	assert.InDelta(t, 61, p, 0.1)

	unseen := models.Record{Type: models.TypeHouse, Region: models.String("Madeira")}
	p, err = g.Predict(&unseen)
	require.NoError(t, err)
	assert.InDelta(t, g.global, p, 1e-12)

	assert.ErrorIs(t, NewGroupMean(DefaultHierarchy).Fit(&models.Table{}, nil), ErrEmptyTrainingSet)
}

func TestCrossValidate(t *testing.T) {
	logger, hook := test.NewNullLogger()
	opts := partition.Options{StratifyColumn: models.ColDistrict, TestFraction: 0.2, FoldCount: 4, Seed: 42}

	result, err := partition.Partition(trainingTable(), opts)
	require.NoError(t, err)

	trainer := NewTrainer(func() Regressor { return NewGroupMean(DefaultHierarchy) }, logger)
	report, err := trainer.CrossValidate(context.Background(), result, opts.StratifyColumn)
	require.NoError(t, err)

	require.Len(t, report.Folds, 4)
	for i, s := range report.Folds {
		assert.Equal(t, i, s.Fold)
		assert.Equal(t, 64, s.TrainSize+s.ValidationSize)
		assert.Less(t, s.RMSE, 1.5)
		assert.Greater(t, s.R2, 0.99)
	}
	assert.Equal(t, -1, report.Holdout.Fold)
	assert.Equal(t, 16, report.Holdout.ValidationSize)
	assert.Equal(t, 64, report.Holdout.TrainSize)
	assert.Len(t, hook.AllEntries(), 5)
}

func TestCrossValidate_ExcludesNonFeatureColumns(t *testing.T) {
	logger, _ := test.NewNullLogger()
	opts := partition.Options{StratifyColumn: models.ColDistrict, TestFraction: 0.2, FoldCount: 2, Seed: 1}
	result, err := partition.Partition(trainingTable(), opts)
	require.NoError(t, err)

	m := &mockRegressor{}
	m.On("Fit", mock.Anything, []string{models.ColType, models.ColRegion}).Return(nil)
	m.On("Predict", mock.Anything).Return(30.0, nil)

	trainer := NewTrainer(func() Regressor { return m }, logger)
	_, err = trainer.CrossValidate(context.Background(), result, opts.StratifyColumn)
	require.NoError(t, err)

	m.AssertNumberOfCalls(t, "Fit", 3)
}
