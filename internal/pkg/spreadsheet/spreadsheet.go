// Package spreadsheet reads and writes the single-sheet workbooks used for
// bulk imports.
package spreadsheet

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ContentType of generated workbooks
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet is the first worksheet of a workbook: a header row and data rows.
// Trailing empty rows are not included.
type Sheet struct {
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewSheet builds a Sheet from raw rows, the first being the header
func NewSheet(rows [][]string) *Sheet {
	s := &Sheet{index: map[string]int{}}
	if len(rows) == 0 {
		return s
	}

	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		s.Header = append(s.Header, h)
		if _, dup := s.index[h]; !dup && h != "" {
			s.index[h] = i
		}
	}
	s.Rows = rows[1:]

	for len(s.Rows) > 0 && blank(s.Rows[len(s.Rows)-1]) {
		s.Rows = s.Rows[:len(s.Rows)-1]
	}
	return s
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Missing returns the columns absent from the header, in the given order
func (s *Sheet) Missing(columns []string) []string {
	var missing []string
	for _, c := range columns {
		if _, ok := s.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Cell returns the trimmed value of column in data row i, "" when absent
func (s *Sheet) Cell(i int, column string) string {
	col, ok := s.index[column]
	if !ok || i < 0 || i >= len(s.Rows) {
		return ""
	}
	row := s.Rows[i]
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Read parses the first worksheet of an xlsx workbook
func Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return NewSheet(rows), nil
}

// Template returns a workbook whose only content is a bold header row
func Template(columns []string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	endCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := f.SetColWidth(sheet, "A", endCol, 20); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Build returns a workbook holding header and rows, mostly for tests and fixtures
func Build(header []string, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	all := make([][]interface{}, 0, len(rows)+1)
	h := make([]interface{}, len(header))
	for i, c := range header {
		h[i] = c
	}
	all = append(all, h)
	all = append(all, rows...)

	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
