// Package sheets overwrites a Google Sheets worksheet with the exported row
// table, authenticating with a service account.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// WriteServiceAccountFile materializes the service-account JSON document to a
// local file for the API client to read. Mode 0600: the document holds a
// private key.
func WriteServiceAccountFile(path, jsonDoc string) error {
	if err := os.WriteFile(path, []byte(jsonDoc), 0o600); err != nil {
		return fmt.Errorf("failed to write service account file: %w", err)
	}
	return nil
}

// NewClient builds a Sync backed by the real Sheets API.
func NewClient(ctx context.Context, credFile string) (*Sync, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return NewSync(&googleAPI{svc: svc}), nil
}

// googleAPI adapts the generated Sheets client to the api interface.
type googleAPI struct {
	svc *sheets.Service
}

func (g *googleAPI) SheetID(ctx context.Context, spreadsheetID, title string) (int64, bool, error) {
	ss, err := g.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true, nil
		}
	}

	return 0, false, nil
}

func (g *googleAPI) AddSheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: title,
					GridProperties: &sheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
				},
			},
		}},
	}

	if _, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to add worksheet %s: %w", title, err)
	}
	return nil
}

// quoteTitle wraps a worksheet title for use in an A1 range. Embedded single
// quotes are legal in titles and must be doubled.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func (g *googleAPI) Clear(ctx context.Context, spreadsheetID, title string) error {
	rng := quoteTitle(title)
	if _, err := g.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to clear worksheet %s: %w", title, err)
	}
	return nil
}

func (g *googleAPI) Resize(ctx context.Context, spreadsheetID string, sheetID, rows, cols int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: sheetID,
					GridProperties: &sheets.GridProperties{
						RowCount:    rows,
						ColumnCount: cols,
					},
				},
				Fields: "gridProperties.rowCount,gridProperties.columnCount",
			},
		}},
	}

	if _, err := g.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to resize worksheet: %w", err)
	}
	return nil
}

func (g *googleAPI) Update(ctx context.Context, spreadsheetID, title string, values [][]interface{}) error {
	rng := quoteTitle(title) + "!A1"
	vr := &sheets.ValueRange{Values: values}

	_, err := g.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update worksheet %s: %w", title, err)
	}
	return nil
}
