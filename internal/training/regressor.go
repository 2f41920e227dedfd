package training

import (
	"errors"
	"slices"
	"strings"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/stats"
)

var ErrEmptyTrainingSet = errors.New("training set is empty")

// Regressor predicts PricePerSqm from the feature columns of a record
type Regressor interface {
	Fit(train *models.Table, features []string) error
	Predict(r *models.Record) (float64, error)
}

// DefaultHierarchy orders the categorical features the group mean falls back through,
// from most to least general
var DefaultHierarchy = []string{
	models.ColRegion,
	models.ColType,
	models.ColGarage,
	models.ColEnergyCertificate,
}

// GroupMean predicts the mean target of the most specific group seen during training.
// Groups are nested prefixes of the hierarchy restricted to the fitted features; an unseen
// combination falls back to a shorter prefix and finally to the global mean.
type GroupMean struct {
	hierarchy []string
	levels    []string
	means     []map[string]float64
	global    float64
}

func NewGroupMean(hierarchy []string) *GroupMean {
	return &GroupMean{hierarchy: slices.Clone(hierarchy)}
}

func (g *GroupMean) Fit(train *models.Table, features []string) error {
	if train.Len() == 0 {
		return ErrEmptyTrainingSet
	}

	g.levels = g.levels[:0]
	for _, c := range g.hierarchy {
		if slices.Contains(features, c) {
			g.levels = append(g.levels, c)
		}
	}

	sums := make([]map[string][]float64, len(g.levels)+1)
	for i := range sums {
		sums[i] = make(map[string][]float64)
	}
	var all []float64
	for i := range train.Records {
		r := &train.Records[i]
		if r.PricePerSqm == nil {
			continue
		}
		all = append(all, *r.PricePerSqm)
		for depth := 1; depth <= len(g.levels); depth++ {
			k := g.key(r, depth)
			sums[depth][k] = append(sums[depth][k], *r.PricePerSqm)
		}
	}
	if len(all) == 0 {
		return ErrEmptyTrainingSet
	}

	g.global = stats.Mean(all)
	g.means = make([]map[string]float64, len(g.levels)+1)
	for depth := 1; depth <= len(g.levels); depth++ {
		g.means[depth] = make(map[string]float64, len(sums[depth]))
		for k, values := range sums[depth] {
			g.means[depth][k] = stats.Mean(values)
		}
	}
	return nil
}

func (g *GroupMean) Predict(r *models.Record) (float64, error) {
	if g.means == nil {
		return 0, errors.New("regressor is not fitted")
	}
	for depth := len(g.levels); depth >= 1; depth-- {
		if v, ok := g.means[depth][g.key(r, depth)]; ok {
			return v, nil
		}
	}
	return g.global, nil
}

func (g *GroupMean) key(r *models.Record, depth int) string {
	parts := make([]string, depth)
	for i := 0; i < depth; i++ {
		parts[i], _ = r.Value(g.levels[i])
	}
	return strings.Join(parts, "\x1f")
}
