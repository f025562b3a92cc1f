package parser

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "Availability.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	return path
}

func TestReadTableStringifiesAndFillsMissing(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"SKU", "Qty"},
		{"A1", 5},
		{"A2", nil},
	})

	rows, err := ReadTable(path)

	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"SKU", "Qty"},
		{"A1", "5"},
		{"A2", ""},
	}, rows)
}

func TestReadTableHeaderOnly(t *testing.T) {
	path := writeWorkbook(t, [][]interface{}{
		{"SKU", "Qty", "Warehouse"},
	})

	rows, err := ReadTable(path)

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"SKU", "Qty", "Warehouse"}}, rows)
}

func TestReadTableMissingFile(t *testing.T) {
	_, err := ReadTable(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    [][]string
		expected [][]string
	}{
		{
			name:     "ragged rows padded to widest",
			input:    [][]string{{"A", "B", "C"}, {"1"}, {"2", "3"}},
			expected: [][]string{{"A", "B", "C"}, {"1", "", ""}, {"2", "3", ""}},
		},
		{
			name:     "data row wider than header",
			input:    [][]string{{"A"}, {"1", "2"}},
			expected: [][]string{{"A", ""}, {"1", "2"}},
		},
		{
			name:     "already rectangular",
			input:    [][]string{{"A", "B"}, {"1", "2"}},
			expected: [][]string{{"A", "B"}, {"1", "2"}},
		},
		{
			name:     "empty",
			input:    [][]string{},
			expected: [][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
