// Package xlsx implements a Writer that keeps expenses in an Excel workbook.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

// DefaultSheetName is used when Config.SheetName is empty.
const DefaultSheetName = "Expenses"

// Config holds configuration for the workbook writer.
type Config struct {
	// FilePath is the .xlsx file. It is created on the first flush.
	FilePath string
	// SheetName is the worksheet holding the expense table.
	SheetName string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	Metrics       *metrics.Metrics
}

// Writer writes expenses to a worksheet, one row per expense. A row whose ID
// is already present is overwritten in place.
type Writer struct {
	filePath  string
	sheetName string
	mu        sync.Mutex
	buffered  *buffered.Writer
	logger    *slog.Logger
}

// New creates a new workbook writer.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)
	if cfg.FilePath == "" {
		return nil, errors.New("xlsx: file path is required")
	}
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}

	w := &Writer{
		filePath:  cfg.FilePath,
		sheetName: cfg.SheetName,
		logger:    logger,
	}
	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		Name:          "xlsx",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "xlsx_buffer"))

	logger.Info("xlsx writer initialized", "file", cfg.FilePath, "sheet", cfg.SheetName)
	return w, nil
}

// Write consumes expenses from the input channel and writes them to the workbook.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

func (w *Writer) flushBatch(_ context.Context, expenses []*api.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := w.open()
	if err != nil {
		return err
	}
	defer func() {
		if err := f.Close(); err != nil {
			w.logger.Error("closing workbook", "error", err)
		}
	}()

	rows, err := f.GetRows(w.sheetName)
	if err != nil {
		return fmt.Errorf("reading rows: %w", err)
	}
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		if i > 0 && len(row) > 0 {
			index[row[0]] = i + 1
		}
	}
	next := max(len(rows), 1) + 1

	for _, e := range expenses {
		rowNum, ok := index[e.ID.String()]
		if !ok {
			rowNum = next
			index[e.ID.String()] = rowNum
			next++
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(w.sheetName, cell, cellValues(e)); err != nil {
			return fmt.Errorf("writing row %d: %w", rowNum, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.filePath), 0o750); err != nil {
		return fmt.Errorf("creating workbook directory: %w", err)
	}
	if err := f.SaveAs(w.filePath); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}

	w.logger.Debug("wrote expenses to workbook", "count", len(expenses))
	return nil
}

// open loads the workbook, creating it and the header row when absent.
func (w *Writer) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(w.filePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", w.sheetName); err != nil {
			return nil, fmt.Errorf("naming sheet: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("opening workbook: %w", err)
	}

	idx, err := f.GetSheetIndex(w.sheetName)
	if err != nil {
		return nil, err
	}
	if idx == -1 {
		if idx, err = f.NewSheet(w.sheetName); err != nil {
			return nil, fmt.Errorf("creating sheet: %w", err)
		}
		f.SetActiveSheet(idx)
	}

	rows, err := f.GetRows(w.sheetName)
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}
	if len(rows) == 0 {
		if err := w.writeHeader(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (w *Writer) writeHeader(f *excelize.File) error {
	header := make([]any, len(api.Columns))
	for i, c := range api.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(w.sheetName, "A1", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	return f.SetRowStyle(w.sheetName, 1, 1, style)
}

// cellValues keeps amount and confidence numeric so the sheet can sum them.
func cellValues(e *api.Expense) *[]any {
	row := []any{
		e.ID.String(),
		e.Date.Format(api.DateLayout),
		e.Amount.InexactFloat64(),
		e.Currency,
		e.Category,
		e.Merchant,
		e.Confidence,
		e.NeedsConfirmation,
		e.Source,
		e.Transcript,
	}
	return &row
}
