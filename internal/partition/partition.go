package partition

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/DanLeiria/cribs/internal/models"
)

const (
	stageTestSplit = "test split"
	stageKFold     = "k-fold"
)

// Options controls a stratified partitioning run
type Options struct {
	StratifyColumn string
	TestFraction   float64
	FoldCount      int
	Seed           uint64
}

func (o Options) validate(t *models.Table) error {
	if o.StratifyColumn == "" {
		return errors.New("stratify column is required")
	}
	if !t.HasColumn(o.StratifyColumn) {
		return fmt.Errorf("stratify column %s is not part of the table", o.StratifyColumn)
	}
	if o.TestFraction <= 0 || o.TestFraction >= 1 {
		return fmt.Errorf("test fraction must be in (0, 1), got %v", o.TestFraction)
	}
	if o.FoldCount < 2 {
		return fmt.Errorf("fold count must be at least 2, got %d", o.FoldCount)
	}
	// Runs are stored with their seed and SQLite integers are signed
	if o.Seed > math.MaxInt64 {
		return fmt.Errorf("seed must be at most %d, got %d", int64(math.MaxInt64), o.Seed)
	}
	return nil
}

// Fold is one train/validation pair
type Fold struct {
	Train      *models.Table
	Validation *models.Table
}

// Result holds the folds over the remainder and the held-out test set. All tables are
// ordered by record ID.
type Result struct {
	Folds []Fold
	Test  *models.Table
}

// Remainder returns the records that are not held out, i.e. the union of all validation sets
func (r *Result) Remainder() *models.Table {
	if len(r.Folds) == 0 {
		return &models.Table{Columns: append([]string(nil), r.Test.Columns...)}
	}
	first := r.Folds[0]
	var ids []int
	ids = append(ids, first.Train.IDs()...)
	ids = append(ids, first.Validation.IDs()...)
	sort.Ints(ids)

	merged := &models.Table{Columns: append([]string(nil), first.Train.Columns...)}
	byID := indexByID(first.Train)
	for id, rec := range indexByID(first.Validation) {
		byID[id] = rec
	}
	for _, id := range ids {
		merged.Records = append(merged.Records, byID[id].Clone())
	}
	return merged
}

// Partition holds out a stratified test set and splits the remainder into opts.FoldCount
// stratified folds. Classes are visited in sorted order and their members in ID order,
// so equal input and seed always give equal membership.
func Partition(t *models.Table, opts Options) (*Result, error) {
	if err := opts.validate(t); err != nil {
		return nil, err
	}

	classes, names, err := classify(t, opts.StratifyColumn)
	if err != nil {
		return nil, err
	}

	rng := newSource(opts.Seed)

	// Stratified hold-out
	sizes := make([]int, len(names))
	for i, name := range names {
		ids := classes[name]
		if len(ids) < 2 {
			return nil, &InsufficientSamplesError{Stage: stageTestSplit, Class: name, Count: len(ids), Required: 2}
		}
		rng.shuffle(ids)
		sizes[i] = len(ids)
	}

	var testIDs []int
	remainder := make(map[string][]int, len(names))
	for i, nTest := range allocateTest(sizes, opts.TestFraction) {
		ids := classes[names[i]]
		testIDs = append(testIDs, ids[:nTest]...)
		remainder[names[i]] = ids[nTest:]
	}

	// Stratified k-fold over the remainder; the offset carries across classes to keep
	// fold sizes balanced
	foldIDs := make([][]int, opts.FoldCount)
	offset := 0
	for _, name := range names {
		ids := append([]int(nil), remainder[name]...)
		if len(ids) < opts.FoldCount {
			return nil, &InsufficientSamplesError{Stage: stageKFold, Class: name, Count: len(ids), Required: opts.FoldCount}
		}
		sort.Ints(ids)
		rng.shuffle(ids)

		for j, id := range ids {
			f := (offset + j) % opts.FoldCount
			foldIDs[f] = append(foldIDs[f], id)
		}
		offset = (offset + len(ids)) % opts.FoldCount
	}

	byID := indexByID(t)
	result := &Result{Test: subset(t.Columns, byID, testIDs)}
	for i := range foldIDs {
		var train []int
		for j := range foldIDs {
			if j != i {
				train = append(train, foldIDs[j]...)
			}
		}
		result.Folds = append(result.Folds, Fold{
			Train:      subset(t.Columns, byID, train),
			Validation: subset(t.Columns, byID, foldIDs[i]),
		})
	}
	return result, nil
}

// allocateTest shares round(N·f) test slots across classes of the given sizes by the
// largest remainder method. Every class keeps between 1 and n-1 members in the test set,
// which can push the total off target when many classes are tiny.
func allocateTest(sizes []int, fraction float64) []int {
	counts := make([]int, len(sizes))
	remainders := make([]float64, len(sizes))
	total, assigned := 0, 0
	for i, n := range sizes {
		exact := float64(n) * fraction
		whole := math.Floor(exact)
		counts[i] = max(1, min(int(whole), n-1))
		remainders[i] = exact - whole
		total += n
		assigned += counts[i]
	}
	diff := int(math.Round(float64(total)*fraction)) - assigned
	if diff == 0 {
		return counts
	}

	// Ties go to the class that sorts first
	order := make([]int, len(sizes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if diff > 0 {
			return remainders[order[a]] > remainders[order[b]]
		}
		return remainders[order[a]] < remainders[order[b]]
	})

	for diff != 0 {
		moved := false
		for _, i := range order {
			if diff == 0 {
				break
			}
			switch {
			case diff > 0 && counts[i] < sizes[i]-1:
				counts[i]++
				diff--
				moved = true
			case diff < 0 && counts[i] > 1:
				counts[i]--
				diff++
				moved = true
			}
		}
		if !moved {
			break
		}
	}
	return counts
}

// classify groups record IDs by class, each list sorted, and returns the sorted class names
func classify(t *models.Table, column string) (map[string][]int, []string, error) {
	classes := make(map[string][]int)
	seen := make(map[int]bool, t.Len())
	for i := range t.Records {
		r := &t.Records[i]
		if seen[r.ID] {
			return nil, nil, fmt.Errorf("duplicate record ID %d", r.ID)
		}
		seen[r.ID] = true

		class, ok := r.Value(column)
		if !ok {
			return nil, nil, fmt.Errorf("record %d: missing %s", r.ID, column)
		}
		classes[class] = append(classes[class], r.ID)
	}

	names := make([]string, 0, len(classes))
	for name, ids := range classes {
		sort.Ints(ids)
		names = append(names, name)
	}
	sort.Strings(names)
	return classes, names, nil
}

func indexByID(t *models.Table) map[int]*models.Record {
	byID := make(map[int]*models.Record, t.Len())
	for i := range t.Records {
		byID[t.Records[i].ID] = &t.Records[i]
	}
	return byID
}

func subset(columns []string, byID map[int]*models.Record, ids []int) *models.Table {
	sorted := append([]int(nil), ids...)
	sort.Ints(sorted)

	out := &models.Table{
		Columns: append([]string(nil), columns...),
		Records: make([]models.Record, 0, len(sorted)),
	}
	for _, id := range sorted {
		out.Records = append(out.Records, byID[id].Clone())
	}
	return out
}
