// Package export renders result sets as tabular output: CSV for quick
// inspection and XLSX for operator-facing reports.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

// Cell is one table value. Missing cells render as an explicit marker
// instead of a zero value, so absent telemetry is distinguishable from a
// measured zero.
type Cell struct {
	Value   any
	Missing bool
}

// Value wraps a present value.
func Value(v any) Cell { return Cell{Value: v} }

// Missing returns an absent cell.
func Missing() Cell { return Cell{Missing: true} }

// Table is a named, column-ordered result set.
type Table struct {
	Name    string
	Columns []string
	rows    [][]Cell
}

// NewTable creates an empty table with the given column headers.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AppendRow adds one row. The cell count must match the column count.
func (t *Table) AppendRow(cells ...Cell) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("export: row has %d cells, table %q has %d columns", len(cells), t.Name, len(t.Columns))
	}
	t.rows = append(t.rows, cells)
	return nil
}

// Rows returns the appended rows in insertion order.
func (t *Table) Rows() [][]Cell { return t.rows }

// Len returns the number of data rows.
func (t *Table) Len() int { return len(t.rows) }

// WriteCSV renders the table with a header line. Missing cells are written
// as the given marker.
func (t *Table) WriteCSV(w io.Writer, missingMarker string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("export: write header of %q: %w", t.Name, err)
	}
	record := make([]string, len(t.Columns))
	for i, row := range t.rows {
		for j, cell := range row {
			record[j] = formatCell(cell, missingMarker)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: write row %d of %q: %w", i, t.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the table as a single-sheet workbook named after the
// table. Missing cells are left empty.
func (t *Table) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Name
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("export: name sheet %q: %w", sheet, err)
		}
	}

	for j, col := range t.Columns {
		cellName, err := excelize.CoordinatesToCellName(j+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cellName, col); err != nil {
			return fmt.Errorf("export: write header %q: %w", col, err)
		}
	}
	for i, row := range t.rows {
		for j, cell := range row {
			if cell.Missing {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cellName, normalize(cell.Value)); err != nil {
				return fmt.Errorf("export: write row %d of %q: %w", i, t.Name, err)
			}
		}
	}
	return f.Write(w)
}

func formatCell(c Cell, missingMarker string) string {
	if c.Missing {
		return missingMarker
	}
	switch v := c.Value.(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	case float64:
		return fmt.Sprintf("%g", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// normalize converts types excelize does not handle natively.
func normalize(v any) any {
	if ts, ok := v.(time.Time); ok {
		return ts.UTC().Format(time.RFC3339Nano)
	}
	return v
}
