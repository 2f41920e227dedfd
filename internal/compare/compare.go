package compare

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/stats"
)

var (
	ErrNoMatches          = errors.New("no listings match the query")
	ErrMissingAreaOrPrice = errors.New("query needs a positive area and price")
	ErrUnknownColumn      = errors.New("unknown filter column")
)

// skipKeywords mark query keys that describe the compared listing itself and are never
// used as filters
var skipKeywords = []string{models.ColAreaAssigned, models.ColPrice}

// Query describes one listing to compare against the cleaned table. A filter with several
// values matches any of them.
type Query struct {
	Filters map[string][]string
	Area    float64
	Price   float64
}

// Comparison is the position of the query listing within the matched subset
type Comparison struct {
	Matches     int     `json:"matches"`
	PricePerSqm float64 `json:"price_per_sqm"`
	Median      float64 `json:"median_price_per_sqm"`
	Percentile  float64 `json:"percentile"`
}

// ParseQuery builds a Query from decoded JSON. AreaAssigned and Price must be numbers;
// other values may be strings, numbers, booleans or lists of those.
func ParseQuery(raw map[string]interface{}) (Query, error) {
	q := Query{Filters: make(map[string][]string)}
	for key, value := range raw {
		switch key {
		case models.ColAreaAssigned:
			v, ok := value.(float64)
			if !ok {
				return Query{}, fmt.Errorf("%s must be a number", key)
			}
			q.Area = v
			continue
		case models.ColPrice:
			v, ok := value.(float64)
			if !ok {
				return Query{}, fmt.Errorf("%s must be a number", key)
			}
			q.Price = v
			continue
		}

		values, err := filterValues(value)
		if err != nil {
			return Query{}, fmt.Errorf("%s: %w", key, err)
		}
		q.Filters[key] = values
	}
	return q, nil
}

func filterValues(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []interface{}:
		var out []string
		for _, item := range v {
			s, err := scalar(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}

func scalar(v interface{}) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case float64:
		return models.FormatFloat(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	default:
		return "", fmt.Errorf("unsupported value %v", v)
	}
}

// Compare filters t by the query and locates the query's price per sqm in the matched
// distribution. The percentile is the share of matched listings priced at or below it.
func Compare(t *models.Table, q Query) (*Comparison, error) {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var active []string
	for _, k := range keys {
		if skipped(k) {
			continue
		}
		if !t.HasColumn(k) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		active = append(active, k)
	}

	var matched []float64
	for i := range t.Records {
		r := &t.Records[i]
		if r.PricePerSqm == nil || !matches(r, active, q.Filters) {
			continue
		}
		matched = append(matched, *r.PricePerSqm)
	}
	if len(matched) == 0 {
		return nil, ErrNoMatches
	}

	if q.Area <= 0 || q.Price <= 0 {
		return nil, ErrMissingAreaOrPrice
	}

	ppsqm := q.Price / q.Area
	sorted := stats.Sorted(matched)
	below := sort.Search(len(sorted), func(i int) bool { return sorted[i] > ppsqm })

	return &Comparison{
		Matches:     len(sorted),
		PricePerSqm: stats.RoundTo(ppsqm, 2),
		Median:      stats.RoundTo(stats.Quantile(sorted, 0.5), 2),
		Percentile:  stats.RoundTo(float64(below)/float64(len(sorted))*100, 2),
	}, nil
}

func skipped(key string) bool {
	for _, kw := range skipKeywords {
		if strings.Contains(key, kw) {
			return true
		}
	}
	return false
}

func matches(r *models.Record, columns []string, filters map[string][]string) bool {
	for _, c := range columns {
		v, ok := r.Value(c)
		if !ok || !slices.Contains(filters[c], v) {
			return false
		}
	}
	return true
}
