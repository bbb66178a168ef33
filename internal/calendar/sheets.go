package calendar

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/persona-agent/internal/config"
	"github.com/persona-agent/pkg/logger"
	"github.com/persona-agent/pkg/ratelimit"
)

// SheetsExporter appends calendar rows to a Google Sheet
type SheetsExporter struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	rateLimiter   *ratelimit.MultiLimiter
	log           *logger.Logger
}

// NewSheetsExporter creates an exporter from config. Extra client options
// are appended after the credentials.
func NewSheetsExporter(ctx context.Context, cfg config.SheetsConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger, opts ...option.ClientOption) (*SheetsExporter, error) {
	var creds option.ClientOption
	switch {
	case cfg.ServiceAccountJSON != "":
		creds = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	case cfg.CredentialsFile != "":
		creds = option.WithCredentialsFile(cfg.CredentialsFile)
	case len(opts) > 0:
		// caller supplies its own transport, e.g. WithoutAuthentication
	default:
		return nil, fmt.Errorf("no Google credentials provided: set sheets.credentials_file or sheets.service_account_json")
	}
	if creds != nil {
		opts = append([]option.ClientOption{creds}, opts...)
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	sheetName := cfg.SheetName
	if sheetName == "" {
		sheetName = "Calendar"
	}

	return &SheetsExporter{
		service:       srv,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     sheetName,
		rateLimiter:   limiter,
		log:           log.WithComponent("sheets-export"),
	}, nil
}

func (e *SheetsExporter) wait(ctx context.Context) error {
	if e.rateLimiter == nil {
		return nil
	}
	return e.rateLimiter.Wait(ctx, ratelimit.LimiterSheets)
}

// EnsureSheet creates the sheet and header row if missing
func (e *SheetsExporter) EnsureSheet(ctx context.Context) error {
	if err := e.wait(ctx); err != nil {
		return err
	}
	spreadsheet, err := e.service.Spreadsheets.Get(e.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == e.sheetName {
			exists = true
			break
		}
	}

	if !exists {
		e.log.Info().Str("sheet", e.sheetName).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					AddSheet: &sheets.AddSheetRequest{
						Properties: &sheets.SheetProperties{Title: e.sheetName},
					},
				},
			},
		}
		if err := e.wait(ctx); err != nil {
			return err
		}
		if _, err := e.service.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	if err := e.wait(ctx); err != nil {
		return err
	}
	readRange := fmt.Sprintf("%s!A1:C1", e.sheetName)
	resp, err := e.service.Spreadsheets.Values.Get(e.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read sheet header: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := e.wait(ctx); err != nil {
		return err
	}
	_, err = e.service.Spreadsheets.Values.Update(e.spreadsheetID, readRange, &sheets.ValueRange{
		Values: [][]interface{}{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Append adds entries below the existing rows and returns the updated row
// count. Values are stored as typed, so generated text is never read as a formula.
func (e *SheetsExporter) Append(ctx context.Context, entries []Entry) (int64, error) {
	if len(entries) == 0 {
		return 0, nil
	}
	if err := e.EnsureSheet(ctx); err != nil {
		return 0, err
	}

	values := make([][]interface{}, 0, len(entries))
	for _, entry := range entries {
		values = append(values, []interface{}{entry.Date.Format(DateLayout), entry.Topic, entry.Platform})
	}

	if err := e.wait(ctx); err != nil {
		return 0, err
	}
	resp, err := e.service.Spreadsheets.Values.Append(e.spreadsheetID, fmt.Sprintf("%s!A:C", e.sheetName), &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to append calendar rows: %w", err)
	}

	var updated int64
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRows
	}
	e.log.Info().Int64("rows", updated).Str("sheet", e.sheetName).Msg("Appended calendar to Google Sheets")
	return updated, nil
}
