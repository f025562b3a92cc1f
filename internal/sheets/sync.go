package sheets

import (
	"context"
	"fmt"
	"log/slog"
)

// Worksheet size floor. Every sync leaves the sheet at least this large, and
// a worksheet created for a missing tab starts at exactly this size.
const (
	MinRows = 100
	MinCols = 26
)

// api is the slice of the Sheets API the sync needs, separated so the
// overwrite sequence can be exercised against a fake.
type api interface {
	SheetID(ctx context.Context, spreadsheetID, title string) (int64, bool, error)
	AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error
	Clear(ctx context.Context, spreadsheetID, title string) error
	Resize(ctx context.Context, spreadsheetID string, sheetID, rows, cols int64) error
	Update(ctx context.Context, spreadsheetID, title string, values [][]interface{}) error
}

type Sync struct {
	api    api
	logger *slog.Logger
}

func NewSync(a api) *Sync {
	return &Sync{
		api:    a,
		logger: slog.Default().With("component", "sheets"),
	}
}

// Overwrite replaces the full contents of the named worksheet with rows,
// creating the worksheet when absent. Clear, resize to the data (with the
// floor), then write everything at A1 as literal values. No diffing: the
// final state depends only on rows.
func (s *Sync) Overwrite(ctx context.Context, spreadsheetID, tab string, rows [][]string) error {
	sheetID, found, err := s.api.SheetID(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}

	if !found {
		s.logger.Info("worksheet missing, creating", "tab", tab)
		if err := s.api.AddSheet(ctx, spreadsheetID, tab, MinRows, MinCols); err != nil {
			return err
		}
		sheetID, found, err = s.api.SheetID(ctx, spreadsheetID, tab)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("worksheet %s still missing after creation", tab)
		}
	}

	if err := s.api.Clear(ctx, spreadsheetID, tab); err != nil {
		return err
	}

	gridRows, gridCols := gridSize(rows)
	if err := s.api.Resize(ctx, spreadsheetID, sheetID, gridRows, gridCols); err != nil {
		return err
	}

	if err := s.api.Update(ctx, spreadsheetID, tab, toValues(rows)); err != nil {
		return err
	}

	s.logger.Info("worksheet overwritten", "tab", tab, "rows", len(rows), "grid_rows", gridRows, "grid_cols", gridCols)
	return nil
}

// gridSize is the worksheet size for a row table: the data size with the
// 100×26 floor applied per dimension.
func gridSize(rows [][]string) (int64, int64) {
	gridRows := int64(len(rows))
	if gridRows < MinRows {
		gridRows = MinRows
	}

	var width int64
	for _, row := range rows {
		if int64(len(row)) > width {
			width = int64(len(row))
		}
	}
	if width < MinCols {
		width = MinCols
	}

	return gridRows, width
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, cell := range row {
			cells[j] = cell
		}
		values[i] = cells
	}
	return values
}
