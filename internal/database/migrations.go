package database

import (
	"fmt"

	"github.com/DanLeiria/cribs/internal/models"
)

// RunMigrations creates or updates the partition tables and their indexes. It is safe to
// run on every start.
func (d *Database) RunMigrations() error {
	if err := d.gorm.AutoMigrate(&models.PartitionRun{}, &models.PartitionMember{}); err != nil {
		return fmt.Errorf("failed to migrate partition tables: %w", err)
	}

	// Loading a run reads its members fold by fold
	_, err := d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_partition_members_run_fold
		ON partition_members(run_id, fold);
	`)
	if err != nil {
		return fmt.Errorf("failed to create partition member index: %w", err)
	}

	return nil
}
