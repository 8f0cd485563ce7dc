package export

import (
	"context"
	"fmt"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

const (
	dailySheet   = "LP_DAILY"
	historySheet = "LP_HISTORY"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
// LP_DAILY is rewritten on every export; LP_HISTORY accumulates rows.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(ctx, []byte(credentialsJSON), sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

func (w *SheetsWriter) Write(ctx context.Context, rows []Row) error {
	ids, err := w.ensureSheets(ctx, dailySheet, historySheet)
	if err != nil {
		return err
	}

	table := buildTable(rows)
	_, err = w.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID, dailySheet+"!A:K", &sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing %s: %w", dailySheet, err)
	}
	_, err = w.svc.Spreadsheets.Values.Update(
		w.spreadsheetID, dailySheet+"!A1", &sheets.ValueRange{Values: table},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s: %w", dailySheet, err)
	}

	if err := w.appendHistory(ctx, table); err != nil {
		return err
	}

	return w.freezeHeaders(ctx, ids[dailySheet], ids[historySheet])
}

// appendHistory writes the header once, then appends the data rows.
func (w *SheetsWriter) appendHistory(ctx context.Context, table [][]any) error {
	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, historySheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", historySheet, err)
	}
	values := table[1:]
	if len(existing.Values) == 0 {
		values = table
	}
	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID, historySheet+"!A:K", &sheets.ValueRange{Values: values},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s rows: %w", historySheet, err)
	}
	return nil
}

func (w *SheetsWriter) freezeHeaders(ctx context.Context, sheetIDs ...int64) error {
	reqs := make([]*sheets.Request, 0, 2*len(sheetIDs))
	for _, id := range sheetIDs {
		reqs = append(reqs,
			&sheets.Request{
				UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
					Properties: &sheets.SheetProperties{
						SheetId:        id,
						GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
					},
					Fields: "gridProperties.frozenRowCount",
				},
			},
			&sheets.Request{
				RepeatCell: &sheets.RepeatCellRequest{
					Range: &sheets.GridRange{SheetId: id, StartRowIndex: 0, EndRowIndex: 1},
					Cell: &sheets.CellData{UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					}},
					Fields: "userEnteredFormat.textFormat.bold",
				},
			},
		)
	}
	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatting sheets: %w", err)
	}
	return nil
}

// ensureSheets creates any missing named sheets and returns every sheet ID by title.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]int64, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	ids := make(map[string]int64, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}
	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}
	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
		}
	}
	return ids, nil
}
