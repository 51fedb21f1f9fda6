// Package csv implements a Writer that appends expenses to a CSV file.
package csv

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

// Writer writes expenses to a CSV file with buffered batching.
type Writer struct {
	filePath string
	file     *os.File
	writer   *csv.Writer
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the CSV writer.
type Config struct {
	// FilePath is the path to the CSV output file.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	Metrics       *metrics.Metrics
}

// New creates a new CSV writer, writing the header row to a new file.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o750); err != nil {
		return nil, fmt.Errorf("creating csv directory: %w", err)
	}
	file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("opening csv file: %w", err)
	}

	w := &Writer{
		filePath: cfg.FilePath,
		file:     file,
		writer:   csv.NewWriter(file),
		logger:   logger,
	}

	stat, err := file.Stat()
	if err != nil {
		if closeErr := file.Close(); closeErr != nil {
			return nil, fmt.Errorf("stat csv file: %w (close error: %w)", err, closeErr)
		}
		return nil, fmt.Errorf("stat csv file: %w", err)
	}
	if stat.Size() == 0 {
		if err := w.writeHeaders(); err != nil {
			if closeErr := file.Close(); closeErr != nil {
				return nil, fmt.Errorf("writing headers: %w (close error: %w)", err, closeErr)
			}
			return nil, fmt.Errorf("writing headers: %w", err)
		}
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		Name:          "csv",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "csv_buffer"))

	logger.Info("csv writer initialized", "file", cfg.FilePath)
	return w, nil
}

func (w *Writer) writeHeaders() error {
	if err := w.writer.Write(api.Columns); err != nil {
		return err
	}
	w.writer.Flush()
	return w.writer.Error()
}

// Write consumes expenses from the input channel and writes them to CSV.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	defer w.Close()
	return w.buffered.Write(ctx, in, ackChan)
}

func (w *Writer) flushBatch(_ context.Context, expenses []*api.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range expenses {
		if err := w.writer.Write(e.Row()); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	w.logger.Debug("wrote expenses to csv", "count", len(expenses))
	return nil
}

// Close closes the CSV file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.writer.Flush()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("closing csv file: %w", err)
	}

	w.logger.Info("csv writer closed", "file", w.filePath)
	return nil
}
