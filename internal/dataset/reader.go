package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/DanLeiria/cribs/internal/models"
)

var ErrMissingColumn = errors.New("required column missing from input")

// ParseError reports a cell that could not be converted to its column type.
type ParseError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: column %s: invalid value %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ReadCSV loads a delimited file into a table. Record IDs come from the ID column when
// present (cleaned files) and from the 1-based data row number otherwise (raw files).
// Every column in required must be present in the header.
func ReadCSV(path string, required ...string) (*models.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return Decode(f, required...)
}

// Decode reads CSV data from r. See ReadCSV.
func Decode(r io.Reader, required ...string) (*models.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = normalizeHeader(header)

	present := make(map[string]bool, len(header))
	for _, col := range header {
		present[col] = true
	}
	for _, col := range required {
		if !present[col] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	// A leading unnamed column is the index written by dataframe tools
	skip := make(map[int]bool)
	for i, col := range header {
		if col == "" {
			skip[i] = true
		}
	}

	table := &models.Table{}
	for i, col := range header {
		if !skip[i] {
			table.Columns = append(table.Columns, col)
		}
	}
	hasID := present[models.ColID]

	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if len(fields) != len(header) {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", line, len(header), len(fields))
		}

		rec := models.Record{ID: line - 1}
		for i, col := range header {
			if skip[i] {
				continue
			}
			if err := rec.SetValue(col, fields[i]); err != nil {
				return nil, &ParseError{Line: line, Column: col, Value: fields[i], Err: err}
			}
		}
		if hasID && rec.ID <= 0 {
			v, _ := rec.Value(models.ColID)
			return nil, &ParseError{Line: line, Column: models.ColID, Value: v, Err: errors.New("identifier must be positive")}
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = h
	}
	return out
}
