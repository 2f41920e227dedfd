package models

import "time"

// TestFold marks a PartitionMember that belongs to the held-out test set.
const TestFold = -1

// PartitionRun is one persisted fold artifact. Runs are insert-only.
type PartitionRun struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Key            string    `gorm:"column:artifact_key;index;not null" json:"key"`
	Seed           uint64    `json:"seed"`
	StratifyColumn string    `json:"stratify_column"`
	TestFraction   float64   `json:"test_fraction"`
	FoldCount      int       `json:"fold_count"`
	Columns        string    `json:"columns"` // JSON array, column order of the snapshots
	CreatedAt      time.Time `json:"created_at"`

	Members     []PartitionMember `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"-"`
	MemberCount int               `gorm:"-" json:"member_count"`
}

// PartitionMember records which fold (or the test set) a record was assigned to.
type PartitionMember struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	RunID    string `gorm:"index;size:36;not null" json:"run_id"`
	RecordID int    `json:"record_id"`
	Fold     int    `gorm:"index" json:"fold"`
	Row      string `json:"row"` // JSON array aligned with PartitionRun.Columns
}
