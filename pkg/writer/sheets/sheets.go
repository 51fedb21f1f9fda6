// Package sheets implements a Writer that appends expenses to a Google Sheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

// Scope is the OAuth scope the writer needs.
const Scope = sheets.SpreadsheetsScope

// DefaultRetryDelay is the wait before retrying a rate-limited append.
const DefaultRetryDelay = 60 * time.Second

// Writer writes expenses to a Google Sheet with buffered batching.
type Writer struct {
	client        *sheets.Service
	spreadsheetID string
	sheetName     string
	retryDelay    time.Duration
	logger        *slog.Logger
	buffered      *buffered.Writer
}

// Config holds configuration for the Sheets writer.
type Config struct {
	// SheetTitle is the title for a new spreadsheet (if SheetID is empty).
	SheetTitle string
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string
	// SheetName is the name of the sheet within the spreadsheet.
	SheetName string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	// RetryDelay defaults to DefaultRetryDelay.
	RetryDelay time.Duration
	Metrics    *metrics.Metrics
	// Options are passed to sheets.NewService after the HTTP client.
	Options []option.ClientOption
}

// New creates a new Sheets writer, creating the spreadsheet when SheetID is
// empty or unreachable.
func New(ctx context.Context, httpClient *http.Client, cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)

	opts := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, cfg.Options...)
	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	w := &Writer{
		client:     client,
		sheetName:  cfg.SheetName,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
	}
	if w.retryDelay <= 0 {
		w.retryDelay = DefaultRetryDelay
	}

	if w.spreadsheetID, err = w.initSpreadsheet(ctx, cfg); err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		Name:          "sheets",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "sheets_buffer"))

	logger.Info("sheets writer initialized", "spreadsheet_id", w.spreadsheetID)
	return w, nil
}

func (w *Writer) initSpreadsheet(ctx context.Context, cfg Config) (string, error) {
	if cfg.SheetID != "" {
		spreadsheet, err := w.client.Spreadsheets.Get(cfg.SheetID).Context(ctx).Do()
		if err == nil {
			w.logger.Info("using existing spreadsheet", "title", spreadsheet.Properties.Title, "id", cfg.SheetID)
			return spreadsheet.SpreadsheetId, nil
		}
		w.logger.Warn("failed to get spreadsheet, will create new one", "id", cfg.SheetID, "error", err)
	}

	spreadsheet, err := w.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: cfg.SheetTitle},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: cfg.SheetName}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("creating spreadsheet: %w", err)
	}
	w.logger.Info("created new spreadsheet", "title", cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)

	if err := w.writeHeaders(ctx, spreadsheet.SpreadsheetId); err != nil {
		return "", fmt.Errorf("writing headers: %w", err)
	}
	return spreadsheet.SpreadsheetId, nil
}

func (w *Writer) writeHeaders(ctx context.Context, spreadsheetID string) error {
	header := make([]any, len(api.Columns))
	for i, c := range api.Columns {
		header[i] = c
	}

	_, err := w.client.Spreadsheets.Values.Update(spreadsheetID, w.sheetName+"!A1", &sheets.ValueRange{
		Values: [][]any{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("updating headers: %w", err)
	}
	return nil
}

// Write consumes expenses from the input channel and writes them to Google Sheets.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	w.logger.Info("sheets writer started")
	return w.buffered.Write(ctx, in, ackChan)
}

// flushBatch appends a batch in a single API call, retrying while rate limited.
func (w *Writer) flushBatch(ctx context.Context, expenses []*api.Expense) error {
	values := make([][]any, 0, len(expenses))
	for _, e := range expenses {
		row := e.Row()
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		values = append(values, cells)
	}

	err := retry.Do(
		func() error {
			_, err := w.client.Spreadsheets.Values.Append(w.spreadsheetID, w.sheetName+"!A2", &sheets.ValueRange{Values: values}).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				w.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(w.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("appending batch to sheet: %w", err)
	}

	w.logger.Info("wrote expense batch", "count", len(expenses))
	return nil
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (w *Writer) SpreadsheetID() string {
	return w.spreadsheetID
}
