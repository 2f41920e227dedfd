package preprocess

import (
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/models"
)

const (
	noCertificate      = "No Certificate"
	noCertificateShort = "NC"
)

// Enricher attaches the region, shortens certificate labels and removes duplicate rows
type Enricher struct {
	regions      config.RegionSet
	warnFraction float64
	logger       *logrus.Logger
}

// NewEnricher creates an enricher resolving regions from the given part of the region table
func NewEnricher(regions config.RegionSet, warnFraction float64, logger *logrus.Logger) *Enricher {
	return &Enricher{
		regions:      regions,
		warnFraction: warnFraction,
		logger:       logger,
	}
}

// Enrich returns a copy of t with Region set. Records whose district has no region are
// dropped, as are full-row duplicates (the lowest ID survives).
func (e *Enricher) Enrich(t *models.Table) *models.Table {
	out := t.Clone()
	out.AddColumn(models.ColRegion)

	for i := range out.Records {
		r := &out.Records[i]
		r.Region = nil
		if region, ok := config.RegionFor(e.regions, r.District); ok {
			r.Region = models.String(region)
		}
		if r.EnergyCertificate != nil && *r.EnergyCertificate == noCertificate {
			r.EnergyCertificate = models.String(noCertificateShort)
		}
	}

	mapped := out.Filter(func(r *models.Record) bool { return r.Region != nil })
	e.reportUnmapped(out, mapped)

	deduped := dedupe(mapped)
	if removed := mapped.Len() - deduped.Len(); removed > 0 {
		e.logger.WithField("duplicates", removed).Info("Removed duplicate records")
	}
	return deduped
}

func (e *Enricher) reportUnmapped(all, mapped *models.Table) {
	unmapped := all.Len() - mapped.Len()
	if unmapped == 0 {
		return
	}

	fraction := float64(unmapped) / float64(all.Len())
	entry := e.logger.WithFields(logrus.Fields{
		"region_set": e.regions.String(),
		"unmapped":   unmapped,
		"fraction":   fraction,
	})
	if fraction > e.warnFraction {
		entry.Warn("Large share of records dropped for a district without region")
		return
	}
	entry.Info("Dropped records for a district without region")
}

// dedupe keeps the lowest-ID record of every group of rows equal across the retained
// columns, ignoring the identifier itself
func dedupe(t *models.Table) *models.Table {
	var cols []string
	for _, c := range t.Columns {
		if c != models.ColID {
			cols = append(cols, c)
		}
	}
	view := &models.Table{Columns: cols}

	first := make(map[string]int)
	for i := range t.Records {
		r := &t.Records[i]
		k := strings.Join(view.Row(r), "\x1f")
		if j, ok := first[k]; !ok || r.ID < t.Records[j].ID {
			first[k] = i
		}
	}

	keep := make([]bool, len(t.Records))
	for _, i := range first {
		keep[i] = true
	}

	out := &models.Table{Columns: append([]string(nil), t.Columns...)}
	for i := range t.Records {
		if keep[i] {
			out.Records = append(out.Records, t.Records[i].Clone())
		}
	}
	return out
}
