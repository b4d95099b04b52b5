package spreadsheet

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewSheet(t *testing.T) {
	s := NewSheet([][]string{
		{" Name ", "Year", ""},
		{"  Ann ", "2024"},
		{"Ben"},
		{"", ""},
		{},
	})

	assert.Equal(t, []string{"Name", "Year", ""}, s.Header)
	assert.Len(t, s.Rows, 2, "trailing blank rows are dropped")
	assert.Equal(t, "Ann", s.Cell(0, "Name"))
	assert.Equal(t, "", s.Cell(1, "Year"), "short rows read as blank")
	assert.Equal(t, "", s.Cell(0, "Nope"))
	assert.Equal(t, "", s.Cell(9, "Name"))
	assert.Equal(t, []string{"Class"}, s.Missing([]string{"Name", "Class", "Year"}))
	assert.Empty(t, NewSheet(nil).Rows)
}

func TestBuildAndRead(t *testing.T) {
	data, err := Build([]string{"FullName", "AdmissionYear"}, [][]interface{}{
		{"Ann Mwangi", 2024},
		{"Ben Kamau", "2025.0"},
	})
	require.NoError(t, err)

	s, err := Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"FullName", "AdmissionYear"}, s.Header)
	require.Len(t, s.Rows, 2)
	assert.Equal(t, "2024", s.Cell(0, "AdmissionYear"))
	assert.Equal(t, "2025.0", s.Cell(1, "AdmissionYear"))
}

func TestTemplateHeaderIsBold(t *testing.T) {
	data, err := Template([]string{"SchoolName", "SchoolCode"})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheet := f.GetSheetName(0)
	v, err := f.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, "SchoolCode", v)

	styleID, err := f.GetCellStyle(sheet, "A1")
	require.NoError(t, err)
	style, err := f.GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)
}

func TestReadRejectsGarbage(t *testing.T) {
	_, err := Read(strings.NewReader("name,year\nann,2024\n"))
	assert.Error(t, err)
}
