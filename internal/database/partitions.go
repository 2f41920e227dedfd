package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/partition"
)

const memberBatchSize = 500

// ErrPartitionNotFound is returned by LoadPartition when no run is stored under the key
var ErrPartitionNotFound = errors.New("partition not found")

// SavePartition stores a fold artifact under key. Earlier artifacts of the same key are
// kept; LoadPartition returns the latest one.
func (d *Database) SavePartition(ctx context.Context, key string, result *partition.Result, opts partition.Options) (*models.PartitionRun, error) {
	if opts.Seed > math.MaxInt64 {
		return nil, fmt.Errorf("seed %d does not fit an SQLite integer", opts.Seed)
	}

	columns := result.Test.Columns
	encodedColumns, err := json.Marshal(columns)
	if err != nil {
		return nil, fmt.Errorf("failed to encode columns: %w", err)
	}

	run := &models.PartitionRun{
		ID:             uuid.NewString(),
		Key:            key,
		Seed:           opts.Seed,
		StratifyColumn: opts.StratifyColumn,
		TestFraction:   opts.TestFraction,
		FoldCount:      len(result.Folds),
		Columns:        string(encodedColumns),
		CreatedAt:      time.Now().UTC(),
	}

	var members []models.PartitionMember
	add := func(t *models.Table, fold int) error {
		view := &models.Table{Columns: columns}
		for i := range t.Records {
			r := &t.Records[i]
			row, err := json.Marshal(view.Row(r))
			if err != nil {
				return fmt.Errorf("failed to encode record %d: %w", r.ID, err)
			}
			members = append(members, models.PartitionMember{
				RunID:    run.ID,
				RecordID: r.ID,
				Fold:     fold,
				Row:      string(row),
			})
		}
		return nil
	}
	if err := add(result.Test, models.TestFold); err != nil {
		return nil, err
	}
	for i, f := range result.Folds {
		if err := add(f.Validation, i); err != nil {
			return nil, err
		}
	}

	err = d.gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("failed to insert partition run: %w", err)
		}
		if len(members) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(members, memberBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert partition members: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return run, nil
}

// LoadPartition rebuilds the latest fold artifact stored under key. Training sets are
// reconstructed as the union of the other folds' validation sets.
func (d *Database) LoadPartition(ctx context.Context, key string) (*partition.Result, *models.PartitionRun, error) {
	var run models.PartitionRun
	err := d.gorm.WithContext(ctx).
		Where("artifact_key = ?", key).
		Order("created_at DESC").
		Order("rowid DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", ErrPartitionNotFound, key)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load partition run: %w", err)
	}

	var columns []string
	if err := json.Unmarshal([]byte(run.Columns), &columns); err != nil {
		return nil, nil, fmt.Errorf("failed to decode columns: %w", err)
	}

	var members []models.PartitionMember
	err = d.gorm.WithContext(ctx).
		Where("run_id = ?", run.ID).
		Order("fold, record_id").
		Find(&members).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load partition members: %w", err)
	}

	test := &models.Table{Columns: append([]string(nil), columns...)}
	validation := make([]*models.Table, run.FoldCount)
	for i := range validation {
		validation[i] = &models.Table{Columns: append([]string(nil), columns...)}
	}

	for _, m := range members {
		rec, err := decodeMember(m, columns)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case m.Fold == models.TestFold:
			test.Records = append(test.Records, rec)
		case m.Fold >= 0 && m.Fold < run.FoldCount:
			validation[m.Fold].Records = append(validation[m.Fold].Records, rec)
		default:
			return nil, nil, fmt.Errorf("record %d: fold %d out of range", m.RecordID, m.Fold)
		}
	}

	result := &partition.Result{Test: test}
	for i := range validation {
		var train []models.Record
		for j := range validation {
			if j != i {
				train = append(train, validation[j].Records...)
			}
		}
		trainTable := models.NewTable(columns, train)
		sortByID(trainTable)
		result.Folds = append(result.Folds, partition.Fold{Train: trainTable, Validation: validation[i]})
	}
	return result, &run, nil
}

// ListPartitions returns the stored runs of a key, newest first
func (d *Database) ListPartitions(ctx context.Context, key string) ([]models.PartitionRun, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.id, r.artifact_key, r.seed, r.stratify_column, r.test_fraction, r.fold_count, r.created_at,
			COUNT(m.id) AS members
		FROM partition_runs r
		LEFT JOIN partition_members m ON m.run_id = r.id
		WHERE r.artifact_key = ?
		GROUP BY r.id
		ORDER BY r.created_at DESC, r.rowid DESC
	`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.PartitionRun
	for rows.Next() {
		var r models.PartitionRun
		if err := rows.Scan(&r.ID, &r.Key, &r.Seed, &r.StratifyColumn, &r.TestFraction, &r.FoldCount, &r.CreatedAt, &r.MemberCount); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func decodeMember(m models.PartitionMember, columns []string) (models.Record, error) {
	var row []string
	if err := json.Unmarshal([]byte(m.Row), &row); err != nil {
		return models.Record{}, fmt.Errorf("record %d: failed to decode row: %w", m.RecordID, err)
	}
	if len(row) != len(columns) {
		return models.Record{}, fmt.Errorf("record %d: expected %d values, got %d", m.RecordID, len(columns), len(row))
	}

	rec := models.Record{ID: m.RecordID}
	for i, col := range columns {
		if err := rec.SetValue(col, row[i]); err != nil {
			return models.Record{}, fmt.Errorf("record %d: column %s: %w", m.RecordID, col, err)
		}
	}
	return rec, nil
}

func sortByID(t *models.Table) {
	ids := t.IDs()
	byID := make(map[int]models.Record, len(t.Records))
	for _, r := range t.Records {
		byID[r.ID] = r
	}
	for i, id := range ids {
		t.Records[i] = byID[id]
	}
}
