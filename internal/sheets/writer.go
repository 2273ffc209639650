package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/lifesort/internal/common"
	"github.com/Veraticus/lifesort/internal/googleauth"
	"github.com/Veraticus/lifesort/internal/model"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// LedgerWriter appends expense rows to a Google Sheets ledger.
type LedgerWriter struct {
	service       *sheets.Service
	logger        *slog.Logger
	config        Config
	spreadsheetID string
	mu            sync.Mutex
}

// NewLedgerWriter creates a ledger writer authenticated with the configured
// credentials.
func NewLedgerWriter(ctx context.Context, config Config, logger *slog.Logger, opts ...option.ClientOption) (*LedgerWriter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	httpClient, err := googleauth.HTTPClient(ctx, config.Credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newLedgerWriter(srv, config, logger), nil
}

func newLedgerWriter(srv *sheets.Service, config Config, logger *slog.Logger) *LedgerWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultConfig().BatchSize
	}
	return &LedgerWriter{
		service:       srv,
		logger:        logger,
		config:        config,
		spreadsheetID: config.SpreadsheetID,
	}
}

// SpreadsheetID returns the ledger's spreadsheet id, which is empty until
// the first append when none was configured.
func (w *LedgerWriter) SpreadsheetID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.spreadsheetID
}

// AppendExpenses appends one row per finance record and returns how many rows
// were written. Records of other routes are ignored.
func (w *LedgerWriter) AppendExpenses(ctx context.Context, records []model.StoredRecord) (int, error) {
	rows := expenseRows(records)
	if len(rows) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	spreadsheetID, err := w.ensureLedger(ctx)
	if err != nil {
		return 0, err
	}

	appendRange := w.config.sheetTitle() + "!A:F"
	written := 0
	for start := 0; start < len(rows); start += w.config.BatchSize {
		end := min(start+w.config.BatchSize, len(rows))
		batch := rows[start:end]

		err := w.withRetry(ctx, func() error {
			_, err := w.service.Spreadsheets.Values.Append(spreadsheetID, appendRange, &sheets.ValueRange{Values: batch}).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return written, fmt.Errorf("failed to append expenses: %w", err)
		}
		written += len(batch)
		w.logger.Debug("appended expense batch", "spreadsheet_id", spreadsheetID, "rows", len(batch))
	}

	w.logger.Info("exported expenses", "spreadsheet_id", spreadsheetID, "rows", written)
	return written, nil
}

// ensureLedger returns the ledger spreadsheet id, creating the spreadsheet or
// the expense tab with a header row when either is missing.
func (w *LedgerWriter) ensureLedger(ctx context.Context) (string, error) {
	title := w.config.sheetTitle()

	if w.spreadsheetID == "" {
		spreadsheet := &sheets.Spreadsheet{
			Properties: &sheets.SpreadsheetProperties{
				Title:    w.config.SpreadsheetName,
				TimeZone: w.config.TimeZone,
			},
			Sheets: []*sheets.Sheet{
				{Properties: &sheets.SheetProperties{Title: title}},
			},
		}

		var created *sheets.Spreadsheet
		err := w.withRetry(ctx, func() error {
			var err error
			created, err = w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
			return err
		})
		if err != nil {
			return "", fmt.Errorf("unable to create spreadsheet: %w", err)
		}

		w.logger.Info("created new spreadsheet",
			"id", created.SpreadsheetId,
			"url", created.SpreadsheetUrl)

		var sheetID int64
		if len(created.Sheets) > 0 && created.Sheets[0].Properties != nil {
			sheetID = created.Sheets[0].Properties.SheetId
		}
		if err := w.initializeTab(ctx, created.SpreadsheetId, sheetID); err != nil {
			return "", err
		}
		w.spreadsheetID = created.SpreadsheetId
		return w.spreadsheetID, nil
	}

	var existing *sheets.Spreadsheet
	err := w.withRetry(ctx, func() error {
		var err error
		existing, err = w.service.Spreadsheets.Get(w.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.spreadsheetID, err)
	}
	for _, sheet := range existing.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return w.spreadsheetID, nil
		}
	}

	var reply *sheets.BatchUpdateSpreadsheetResponse
	err = w.withRetry(ctx, func() error {
		var err error
		reply, err = w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}}},
			},
		}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to add sheet %q: %w", title, err)
	}

	var sheetID int64
	if len(reply.Replies) > 0 && reply.Replies[0].AddSheet != nil && reply.Replies[0].AddSheet.Properties != nil {
		sheetID = reply.Replies[0].AddSheet.Properties.SheetId
	}
	w.logger.Info("added ledger tab", "spreadsheet_id", w.spreadsheetID, "title", title)

	if err := w.initializeTab(ctx, w.spreadsheetID, sheetID); err != nil {
		return "", err
	}
	return w.spreadsheetID, nil
}

// initializeTab writes the header row and, when enabled, formats it.
func (w *LedgerWriter) initializeTab(ctx context.Context, spreadsheetID string, sheetID int64) error {
	headerRange := w.config.sheetTitle() + "!A1:F1"
	err := w.withRetry(ctx, func() error {
		_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, headerRange, &sheets.ValueRange{Values: [][]any{ledgerHeader}}).
			ValueInputOption("RAW").
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if !w.config.EnableFormatting {
		return nil
	}
	if err := w.applyFormatting(ctx, spreadsheetID, sheetID); err != nil {
		w.logger.Warn("failed to apply formatting", "error", err)
	}
	return nil
}

func (w *LedgerWriter) applyFormatting(ctx context.Context, spreadsheetID string, sheetID int64) error {
	requests := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:       sheetID,
					StartRowIndex: 0,
					EndRowIndex:   1,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    1,
					StartColumnIndex: 1,
					EndColumnIndex:   2,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						NumberFormat: &sheets.NumberFormat{
							Type:    "CURRENCY",
							Pattern: "¥#,##0.00",
						},
					},
				},
				Fields: "userEnteredFormat.numberFormat",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}

func (w *LedgerWriter) withRetry(ctx context.Context, operation func() error) error {
	return common.WithRetry(ctx, func() error {
		return googleauth.ClassifyError(operation())
	}, common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
	})
}
