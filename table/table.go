// Package table reads and writes the single-sheet spreadsheets used for name
// lists and match exports.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheets is returned for a workbook without any sheet.
var ErrNoSheets = errors.New("table: workbook has no sheets")

// Table is the content of one sheet. Rows may be ragged; trailing empty
// cells are not stored.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]string
}

// Column returns the cells of column i, with "" for rows that are too short.
func (t *Table) Column(i int) []string {
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// Read loads the first sheet of the workbook at path. When headerRow is set
// the first row becomes the header instead of data.
func Read(path string, headerRow bool) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheets
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	t := &Table{Sheet: sheets[0]}
	if headerRow && len(rows) > 0 {
		t.Header = rows[0]
		rows = rows[1:]
	}
	t.Rows = rows
	return t, nil
}

// ReadNames returns the non-blank cells of the first column of the first
// sheet, trimmed, in sheet order.
func ReadNames(path string, headerRow bool) ([]string, error) {
	t, err := Read(path, headerRow)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, cell := range t.Column(0) {
		if s := strings.TrimSpace(cell); s != "" {
			names = append(names, s)
		}
	}
	return names, nil
}

// Write stores t as a new workbook at path, replacing any existing file.
func Write(path string, t *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if t.Sheet != "" && t.Sheet != sheet {
		if err := f.SetSheetName(sheet, t.Sheet); err != nil {
			return fmt.Errorf("naming sheet: %w", err)
		}
		sheet = t.Sheet
	}

	next := 1
	writeRow := func(row []string) error {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return err
		}
		next++
		values := make([]interface{}, len(row))
		for i, v := range row {
			values[i] = v
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if len(t.Header) > 0 {
		if err := writeRow(t.Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, row := range t.Rows {
		if err := writeRow(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving XLSX: %w", err)
	}
	return nil
}

// WriteColumn writes a single column table with the given header.
func WriteColumn(path, header string, values []string) error {
	t := &Table{Header: []string{header}, Rows: make([][]string, len(values))}
	for i, v := range values {
		t.Rows[i] = []string{v}
	}
	return Write(path, t)
}

// Filter returns the rows of t whose first cell is non-empty and contains
// substring, ignoring case. Order and header are preserved; t is unchanged.
func Filter(t *Table, substring string) *Table {
	needle := strings.ToLower(substring)
	out := &Table{Sheet: t.Sheet, Header: t.Header}
	for _, row := range t.Rows {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		if strings.Contains(strings.ToLower(row[0]), needle) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
