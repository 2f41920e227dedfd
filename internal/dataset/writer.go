package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/DanLeiria/cribs/internal/models"
)

// outputColumns puts the record identifier first.
func outputColumns(t *models.Table) []string {
	cols := []string{models.ColID}
	for _, c := range t.Columns {
		if c != models.ColID {
			cols = append(cols, c)
		}
	}
	return cols
}

// WriteCSV writes the table with a header row, creating parent directories as needed.
func WriteCSV(path string, t *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if err := Encode(f, t); err != nil {
		return err
	}
	return f.Close()
}

// Encode writes the table as CSV to w.
func Encode(w io.Writer, t *models.Table) error {
	out := &models.Table{Columns: outputColumns(t)}

	writer := csv.NewWriter(w)
	if err := writer.Write(out.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range t.Records {
		if err := writer.Write(out.Row(&t.Records[i])); err != nil {
			return fmt.Errorf("failed to write record %d: %w", t.Records[i].ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteXLSX writes the table to a single-sheet workbook. Numeric columns are stored as
// numbers so spreadsheet formulas work on them.
func WriteXLSX(path, sheet string, t *models.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	cols := outputColumns(t)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i := range t.Records {
		r := &t.Records[i]
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = cellValue(r, c)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", r.ID, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

var numericColumns = []string{
	models.ColID,
	models.ColPrice,
	models.ColTotalArea,
	models.ColLivingArea,
	models.ColTotalRooms,
	models.ColNumberOfBedrooms,
	models.ColConstructionYear,
	models.ColNumberOfBathrooms,
	models.ColAreaAssigned,
	models.ColRoomsAssigned,
	models.ColPricePerSqm,
}

func cellValue(r *models.Record, col string) interface{} {
	v, ok := r.Value(col)
	if !ok {
		return nil
	}
	if !slices.Contains(numericColumns, col) {
		return v
	}
	switch col {
	case models.ColPrice:
		return *r.Price
	case models.ColTotalArea:
		return *r.TotalArea
	case models.ColLivingArea:
		return *r.LivingArea
	case models.ColAreaAssigned:
		return *r.AreaAssigned
	case models.ColPricePerSqm:
		return *r.PricePerSqm
	case models.ColID:
		return r.ID
	case models.ColTotalRooms:
		return *r.TotalRooms
	case models.ColNumberOfBedrooms:
		return *r.NumberOfBedrooms
	case models.ColConstructionYear:
		return *r.ConstructionYear
	case models.ColNumberOfBathrooms:
		return *r.NumberOfBathrooms
	case models.ColRoomsAssigned:
		return *r.RoomsAssigned
	}
	return v
}
