package preprocess

import (
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/stats"
)

// RowFilter admits records by type and district and eliminates incomplete ones
type RowFilter struct {
	types   []string
	dropped []string
	logger  *logrus.Logger
}

// NewRowFilter creates a filter admitting the given property types. extraDropped columns
// are removed on top of config.DroppedColumns.
func NewRowFilter(types []string, extraDropped []string, logger *logrus.Logger) *RowFilter {
	dropped := append(slices.Clone(config.DroppedColumns), extraDropped...)
	return &RowFilter{
		types:   slices.Clone(types),
		dropped: dropped,
		logger:  logger,
	}
}

// Admit drops irrelevant columns, keeps the allowed types outside the excluded districts,
// removes records without a usable area and defaults a missing Garage to false
func (f *RowFilter) Admit(t *models.Table) *models.Table {
	out := f.dropColumns(t)

	out = out.Filter(func(r *models.Record) bool {
		if !slices.Contains(f.types, r.Type) {
			return false
		}
		if config.IsExcludedDistrict(r.District) {
			return false
		}
		return r.AreaAssigned != nil && *r.AreaAssigned != 0
	})

	if out.HasColumn(models.ColGarage) {
		for i := range out.Records {
			if out.Records[i].Garage == nil {
				out.Records[i].Garage = models.Bool(false)
			}
		}
	}

	f.logCounts("Admitted records", t.Len(), out.Len())
	return out
}

// DropIncomplete removes every record that misses a value in any retained column
func (f *RowFilter) DropIncomplete(t *models.Table) *models.Table {
	out := t.Filter(func(r *models.Record) bool {
		return t.Missing(r) == ""
	})

	f.logCounts("Dropped incomplete records", t.Len(), out.Len())
	return out
}

func (f *RowFilter) dropColumns(t *models.Table) *models.Table {
	out := &models.Table{Records: make([]models.Record, len(t.Records))}
	for _, c := range t.Columns {
		if !slices.Contains(f.dropped, c) {
			out.Columns = append(out.Columns, c)
		}
	}

	for i := range t.Records {
		r := t.Records[i].Clone()
		for _, c := range f.dropped {
			r.Clear(c)
		}
		out.Records[i] = r
	}
	return out
}

func (f *RowFilter) logCounts(msg string, before, after int) {
	pct := 0.0
	if before > 0 {
		pct = float64(after) / float64(before) * 100
	}
	f.logger.WithFields(logrus.Fields{
		"before":  before,
		"after":   after,
		"percent": stats.RoundTo(pct, 2),
	}).Info(msg)
}
