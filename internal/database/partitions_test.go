package database

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/partition"
)

func setupTestDB(t *testing.T) *Database {
	db, err := NewDatabase(filepath.Join(t.TempDir(), "cross-val", "folds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.RunMigrations())
	return db
}

func landTable() *models.Table {
	t := &models.Table{Columns: []string{models.ColType, models.ColDistrict, models.ColCity, models.ColPricePerSqm, models.ColGarage}}
	districts := []string{"Porto", "Lisboa", "Faro"}
	for i := 1; i <= 60; i++ {
		t.Records = append(t.Records, models.Record{
			ID:          i,
			Type:        models.TypeLand,
			District:    districts[i%len(districts)],
			City:        "City",
			PricePerSqm: models.Float(float64(i) + 0.5),
			Garage:      models.Bool(i%2 == 0),
		})
	}
	return t
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.RunMigrations())
}

func TestSaveAndLoadPartition(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	opts := partition.Options{StratifyColumn: models.ColDistrict, TestFraction: 0.2, FoldCount: 4, Seed: 42}

	result, err := partition.Partition(landTable(), opts)
	require.NoError(t, err)

	run, err := db.SavePartition(ctx, "land", result, opts)
	require.NoError(t, err)
	assert.Len(t, run.ID, 36)

	loaded, loadedRun, err := db.LoadPartition(ctx, "land")
	require.NoError(t, err)
	assert.Equal(t, run.ID, loadedRun.ID)
	assert.Equal(t, uint64(42), loadedRun.Seed)
	require.Len(t, loaded.Folds, 4)

	rows := func(tbl *models.Table) [][]string {
		var out [][]string
		for i := range tbl.Records {
			out = append(out, tbl.Row(&tbl.Records[i]))
		}
		return out
	}

	assert.Equal(t, result.Test.IDs(), loaded.Test.IDs())
	assert.Empty(t, cmp.Diff(rows(result.Test), rows(loaded.Test)))
	for i := range result.Folds {
		assert.Equal(t, result.Folds[i].Validation.IDs(), loaded.Folds[i].Validation.IDs(), "fold %d validation", i)
		assert.Equal(t, result.Folds[i].Train.IDs(), loaded.Folds[i].Train.IDs(), "fold %d train", i)
		assert.Empty(t, cmp.Diff(rows(result.Folds[i].Train), rows(loaded.Folds[i].Train)))
	}
}

func TestLoadPartition_Latest(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	table := landTable()

	var last *models.PartitionRun
	for _, seed := range []uint64{1, 2} {
		opts := partition.Options{StratifyColumn: models.ColDistrict, TestFraction: 0.25, FoldCount: 3, Seed: seed}
		result, err := partition.Partition(table, opts)
		require.NoError(t, err)
		last, err = db.SavePartition(ctx, "buildings", result, opts)
		require.NoError(t, err)
	}

	_, run, err := db.LoadPartition(ctx, "buildings")
	require.NoError(t, err)
	assert.Equal(t, last.ID, run.ID)

	runs, err := db.ListPartitions(ctx, "buildings")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, last.ID, runs[0].ID)
	assert.Equal(t, table.Len(), runs[0].MemberCount)
}

func TestSavePartition_SeedRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	opts := partition.Options{StratifyColumn: models.ColDistrict, TestFraction: 0.2, FoldCount: 4, Seed: math.MaxInt64}

	result, err := partition.Partition(landTable(), opts)
	require.NoError(t, err)
	_, err = db.SavePartition(ctx, "land", result, opts)
	require.NoError(t, err)

	_, run, err := db.LoadPartition(ctx, "land")
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), run.Seed)

	opts.Seed = 1 << 63
	_, err = db.SavePartition(ctx, "land", result, opts)
	assert.ErrorContains(t, err, "does not fit")

	runs, err := db.ListPartitions(ctx, "land")
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestLoadPartition_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, _, err := db.LoadPartition(context.Background(), "house")
	assert.True(t, errors.Is(err, ErrPartitionNotFound))
}
