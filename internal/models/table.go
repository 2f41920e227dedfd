package models

import (
	"slices"
	"sort"
	"strings"

	"github.com/DanLeiria/cribs/internal/stats"
)

// Table is a fully materialized record set together with its retained column order.
type Table struct {
	Columns []string
	Records []Record
}

// NewTable builds a table that owns copies of the given records.
func NewTable(columns []string, records []Record) *Table {
	t := &Table{
		Columns: slices.Clone(columns),
		Records: make([]Record, len(records)),
	}
	for i := range records {
		t.Records[i] = records[i].Clone()
	}
	return t
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// HasColumn reports whether name is part of the retained schema.
func (t *Table) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// AddColumn appends name to the schema if it is not there yet.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	return NewTable(t.Columns, t.Records)
}

// Filter returns a new table holding copies of the records for which keep is true.
func (t *Table) Filter(keep func(r *Record) bool) *Table {
	out := &Table{Columns: slices.Clone(t.Columns)}
	for i := range t.Records {
		if keep(&t.Records[i]) {
			out.Records = append(out.Records, t.Records[i].Clone())
		}
	}
	return out
}

// IDs returns the record identifiers in ascending order.
func (t *Table) IDs() []int {
	ids := make([]int, len(t.Records))
	for i := range t.Records {
		ids[i] = t.Records[i].ID
	}
	sort.Ints(ids)
	return ids
}

// Row renders the record as strings aligned with t.Columns; missing values are empty.
func (t *Table) Row(r *Record) []string {
	row := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		row[i], _ = r.Value(col)
	}
	return row
}

// Missing returns the first retained column without a value, or "" if the record is complete.
func (t *Table) Missing(r *Record) string {
	for _, col := range t.Columns {
		if _, ok := r.Value(col); !ok {
			return col
		}
	}
	return ""
}

// GroupCounts counts records per combination of the given columns, sorted by count
// descending then by key. Percentages are rounded to two decimals.
func (t *Table) GroupCounts(columns ...string) []GroupCount {
	type bucket struct {
		keys  map[string]string
		count int
	}
	buckets := make(map[string]*bucket)
	for i := range t.Records {
		r := &t.Records[i]
		parts := make([]string, len(columns))
		keys := make(map[string]string, len(columns))
		for j, col := range columns {
			v, _ := r.Value(col)
			parts[j] = v
			keys[col] = v
		}
		k := strings.Join(parts, "\x1f")
		if b, ok := buckets[k]; ok {
			b.count++
			continue
		}
		buckets[k] = &bucket{keys: keys, count: 1}
	}

	names := make([]string, 0, len(buckets))
	for k := range buckets {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		bi, bj := buckets[names[i]], buckets[names[j]]
		if bi.count != bj.count {
			return bi.count > bj.count
		}
		return names[i] < names[j]
	})

	out := make([]GroupCount, 0, len(names))
	for _, k := range names {
		b := buckets[k]
		pct := 0.0
		if t.Len() > 0 {
			pct = stats.RoundTo(float64(b.count)/float64(t.Len())*100, 2)
		}
		out = append(out, GroupCount{Keys: b.keys, Count: b.count, Percentage: pct})
	}
	return out
}
