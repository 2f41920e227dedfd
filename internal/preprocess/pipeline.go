package preprocess

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/dataset"
	"github.com/DanLeiria/cribs/internal/metrics"
	"github.com/DanLeiria/cribs/internal/models"
)

// Variant is a pipeline flavour producing one cleaned table
type Variant int

const (
	VariantUnified Variant = iota
	VariantBuildings
	VariantLand
	VariantHouse
	VariantApartment
)

// Variants lists every variant in the order RunAll processes them
var Variants = []Variant{VariantUnified, VariantBuildings, VariantLand, VariantHouse, VariantApartment}

func (v Variant) String() string {
	switch v {
	case VariantUnified:
		return "unified"
	case VariantBuildings:
		return "buildings"
	case VariantLand:
		return "land"
	case VariantHouse:
		return "house"
	case VariantApartment:
		return "apartment"
	default:
		return "unknown"
	}
}

// ParseVariant maps a variant name onto a Variant
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants {
		if v.String() == s {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown pipeline variant: %s", s)
}

// VariantSpec is the static description of a variant
type VariantSpec struct {
	Variant      Variant
	Types        []string
	ExtraDropped []string
	Regions      config.RegionSet
	Strategy     Strategy
}

// SpecFor resolves the variant description, taking the outlier strategies from cfg
func SpecFor(v Variant, cfg config.PipelineConfig) (VariantSpec, error) {
	buildings, err := ParseStrategy(cfg.BuildingsStrategy)
	if err != nil {
		return VariantSpec{}, err
	}
	land, err := ParseStrategy(cfg.LandStrategy)
	if err != nil {
		return VariantSpec{}, err
	}

	spec := VariantSpec{Variant: v, Regions: config.RegionSetMainland, Strategy: buildings}
	switch v {
	case VariantUnified:
		spec.Types = []string{models.TypeApartment, models.TypeHouse, models.TypeLand}
	case VariantBuildings:
		spec.Types = []string{models.TypeApartment, models.TypeHouse}
	case VariantLand:
		spec.Types = []string{models.TypeLand}
		spec.ExtraDropped = []string{models.ColRoomsAssigned}
		spec.Regions = config.RegionSetIslands
		spec.Strategy = land
	case VariantHouse:
		spec.Types = []string{models.TypeHouse}
	case VariantApartment:
		spec.Types = []string{models.TypeApartment}
	default:
		return VariantSpec{}, fmt.Errorf("unknown pipeline variant: %d", v)
	}
	return spec, nil
}

// Pipeline runs the cleaning stages of one variant
type Pipeline struct {
	spec     VariantSpec
	filter   *RowFilter
	outliers *OutlierRemover
	enricher *Enricher
	metrics  *metrics.Recorder
	logger   *logrus.Logger
}

// NewPipeline wires the stages of a variant. rec may be nil.
func NewPipeline(spec VariantSpec, cfg config.PipelineConfig, logger *logrus.Logger, rec *metrics.Recorder) *Pipeline {
	return &Pipeline{
		spec:     spec,
		filter:   NewRowFilter(spec.Types, spec.ExtraDropped, logger),
		outliers: NewOutlierRemover(spec.Strategy, cfg.Workers, logger),
		enricher: NewEnricher(spec.Regions, cfg.UnmappedWarnFraction, logger),
		metrics:  rec,
		logger:   logger,
	}
}

// Run cleans raw and returns the enriched table. raw is not modified.
func (p *Pipeline) Run(ctx context.Context, raw *models.Table) (*models.Table, error) {
	name := p.spec.Variant.String()
	p.logger.WithFields(logrus.Fields{"variant": name, "rows": raw.Len()}).Info("Starting preprocessing")

	for _, col := range models.RequiredRawColumns {
		if !raw.HasColumn(col) {
			err := fmt.Errorf("%s: derive: %w: %s", name, dataset.ErrMissingColumn, col)
			p.metrics.ObserveRun(name, err)
			return nil, err
		}
	}

	derived := DeriveFields(raw)
	p.observe("derive", raw, derived)

	admitted := p.filter.Admit(derived)
	p.observe("filter", derived, admitted)

	defaulted := ApplyLandDefaults(admitted)

	priced, invalid := AssignPricePerSqm(defaulted)
	if invalid > 0 {
		p.logger.WithField("records", invalid).Warn("Dropped records with a non-positive price per sqm")
	}
	p.observe("price", defaulted, priced)

	complete := p.filter.DropIncomplete(priced)
	p.observe("nulls", priced, complete)

	cleaned, err := p.outliers.Remove(ctx, complete)
	if err != nil {
		err = fmt.Errorf("%s: outliers: %w", name, err)
		p.metrics.ObserveRun(name, err)
		return nil, err
	}
	p.observe("outliers", complete, cleaned)

	enriched := p.enricher.Enrich(cleaned)
	p.observe("enrich", cleaned, enriched)

	if p.logger.IsLevelEnabled(logrus.DebugLevel) {
		for _, g := range enriched.GroupCounts(models.ColDistrict, models.ColType) {
			p.logger.WithFields(logrus.Fields{
				"district":   g.Keys[models.ColDistrict],
				"type":       g.Keys[models.ColType],
				"count":      g.Count,
				"percentage": g.Percentage,
			}).Debug("Group size")
		}
	}

	p.logger.WithFields(logrus.Fields{"variant": name, "rows": enriched.Len()}).Info("Finished preprocessing")
	p.metrics.ObserveRun(name, nil)
	return enriched, nil
}

func (p *Pipeline) observe(stage string, in, out *models.Table) {
	p.metrics.ObserveStage(p.spec.Variant.String(), stage, in.Len(), out.Len())
}

// RunAll reads the raw dataset once, cleans it for every variant and writes the results
// to the configured paths
func RunAll(ctx context.Context, cfg *config.Config, logger *logrus.Logger, rec *metrics.Recorder) (map[Variant]*models.Table, error) {
	raw, err := dataset.ReadCSV(cfg.Paths.Raw, models.RequiredRawColumns...)
	if err != nil {
		return nil, fmt.Errorf("failed to load raw data: %w", err)
	}
	logger.WithFields(logrus.Fields{"path": cfg.Paths.Raw, "rows": raw.Len()}).Info("Loaded raw data")

	results := make(map[Variant]*models.Table, len(Variants))
	for _, v := range Variants {
		cleaned, err := RunVariant(ctx, v, raw, cfg, logger, rec)
		if err != nil {
			return nil, err
		}
		results[v] = cleaned
	}
	return results, nil
}

// RunVariant cleans raw for one variant and writes the result
func RunVariant(ctx context.Context, v Variant, raw *models.Table, cfg *config.Config, logger *logrus.Logger, rec *metrics.Recorder) (*models.Table, error) {
	spec, err := SpecFor(v, cfg.Pipeline)
	if err != nil {
		return nil, err
	}

	cleaned, err := NewPipeline(spec, cfg.Pipeline, logger, rec).Run(ctx, raw)
	if err != nil {
		return nil, err
	}

	path, err := cfg.PathFor(v.String())
	if err != nil {
		return nil, err
	}
	if err := dataset.WriteCSV(path, cleaned); err != nil {
		return nil, fmt.Errorf("%s: write: %w", v, err)
	}
	if cfg.Pipeline.ExportXLSX {
		xlsxPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".xlsx"
		if err := dataset.WriteXLSX(xlsxPath, v.String(), cleaned); err != nil {
			return nil, fmt.Errorf("%s: write: %w", v, err)
		}
	}

	logger.WithFields(logrus.Fields{"variant": v.String(), "path": path}).Info("Saved cleaned data")
	return cleaned, nil
}
