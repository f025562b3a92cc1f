// Package parser turns a downloaded availability workbook into the row table
// pushed to the spreadsheet.
package parser

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ReadTable reads the first worksheet of the workbook at path into rows. The
// first row is the column header; every cell comes back as text and all rows
// are padded with empty strings to a uniform width, so missing trailing cells
// become "".
func ReadTable(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, fmt.Errorf("workbook %s has no worksheets", path)
	}

	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", sheetList[0], err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s has no header row", path)
	}

	return Normalize(rows), nil
}

// Normalize pads every row with empty strings to the width of the widest row,
// so the table is rectangular and absent cells are explicit "".
func Normalize(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		out[i] = padded
	}

	return out
}
