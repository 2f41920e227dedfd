package preprocess

import (
	"context"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/stats"
)

// Strategy selects how per-group outlier bounds are derived
type Strategy int

const (
	// StrategyIQR keeps values within 1.5 interquartile ranges of the quartiles
	StrategyIQR Strategy = iota
	// StrategyLogZScore keeps values whose log(1+v) z-score is at most 3
	StrategyLogZScore
)

const (
	iqrFactor      = 1.5
	zScoreCutoff   = 3.0
	lowerQuartileP = 0.25
	upperQuartileP = 0.75
)

func (s Strategy) String() string {
	switch s {
	case StrategyIQR:
		return "iqr"
	case StrategyLogZScore:
		return "zscore"
	default:
		return "unknown"
	}
}

// ParseStrategy maps a configuration value onto a Strategy
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "iqr":
		return StrategyIQR, nil
	case "zscore":
		return StrategyLogZScore, nil
	default:
		return 0, fmt.Errorf("unknown outlier strategy %q", s)
	}
}

// groupKey identifies an outlier group: City for land, (District, Type) otherwise
type groupKey struct {
	District string
	City     string
	Type     string
}

func keyFor(r *models.Record) groupKey {
	if r.IsLand() {
		return groupKey{City: r.City, Type: r.Type}
	}
	return groupKey{District: r.District, Type: r.Type}
}

// groupStats are computed once per group and discarded after filtering
type groupStats struct {
	pass   bool
	lo, hi float64
	mean   float64
	std    float64
}

func (s Strategy) compute(values []float64) groupStats {
	if len(values) < 2 {
		return groupStats{pass: true}
	}

	switch s {
	case StrategyLogZScore:
		logs := make([]float64, len(values))
		for i, v := range values {
			logs[i] = math.Log1p(v)
		}
		m := stats.Mean(logs)
		sd := stats.StdDev(logs, m)
		if sd == 0 {
			return groupStats{pass: true}
		}
		return groupStats{mean: m, std: sd}
	default:
		sorted := stats.Sorted(values)
		q1 := stats.Quantile(sorted, lowerQuartileP)
		q3 := stats.Quantile(sorted, upperQuartileP)
		iqr := q3 - q1
		return groupStats{lo: q1 - iqrFactor*iqr, hi: q3 + iqrFactor*iqr}
	}
}

func (s Strategy) keep(gs groupStats, v float64) bool {
	if gs.pass {
		return true
	}
	if s == StrategyLogZScore {
		return math.Abs((math.Log1p(v)-gs.mean)/gs.std) <= zScoreCutoff
	}
	return v >= gs.lo && v <= gs.hi
}

// OutlierRemover drops anomalous PricePerSqm values within each group
type OutlierRemover struct {
	strategy Strategy
	workers  int
	logger   *logrus.Logger
}

// NewOutlierRemover creates a remover computing group statistics on at most workers goroutines
func NewOutlierRemover(strategy Strategy, workers int, logger *logrus.Logger) *OutlierRemover {
	if workers < 1 {
		workers = 1
	}
	return &OutlierRemover{
		strategy: strategy,
		workers:  workers,
		logger:   logger,
	}
}

// Remove returns a copy of t without the records outside their group's bounds.
// Every record must carry a PricePerSqm.
func (o *OutlierRemover) Remove(ctx context.Context, t *models.Table) (*models.Table, error) {
	groups := make(map[groupKey][]float64)
	var keys []groupKey
	for i := range t.Records {
		r := &t.Records[i]
		if r.PricePerSqm == nil {
			return nil, fmt.Errorf("record %d: missing %s", r.ID, models.ColPricePerSqm)
		}
		k := keyFor(r)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], *r.PricePerSqm)
	}

	computed, err := o.computeStats(ctx, keys, groups)
	if err != nil {
		return nil, err
	}

	out := t.Filter(func(r *models.Record) bool {
		return o.strategy.keep(computed[keyFor(r)], *r.PricePerSqm)
	})

	o.logger.WithFields(logrus.Fields{
		"strategy": o.strategy.String(),
		"groups":   len(keys),
		"removed":  t.Len() - out.Len(),
	}).Info("Removed price per sqm outliers")
	return out, nil
}

// computeStats evaluates every group in parallel. Each goroutine owns one result slot.
func (o *OutlierRemover) computeStats(ctx context.Context, keys []groupKey, groups map[groupKey][]float64) (map[groupKey]groupStats, error) {
	results := make([]groupStats, len(keys))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, k := range keys {
		values := groups[k]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = o.strategy.compute(values)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute group statistics: %w", err)
	}

	computed := make(map[groupKey]groupStats, len(keys))
	for i, k := range keys {
		computed[k] = results[i]
	}
	return computed, nil
}
