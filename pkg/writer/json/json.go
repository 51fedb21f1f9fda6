// Package json implements a Writer that keeps expenses in a JSON array file.
package json

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

// Writer writes expenses to a JSON file with buffered batching. Expenses are
// keyed by ID, so writing the same expense twice replaces it.
type Writer struct {
	filePath string
	expenses []*api.Expense
	index    map[uuid.UUID]int
	mu       sync.Mutex
	buffered *buffered.Writer
	logger   *slog.Logger
}

// Config holds configuration for the JSON writer.
type Config struct {
	// FilePath is the path to the JSON output file.
	FilePath string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	FlushInterval time.Duration
	Metrics       *metrics.Metrics
}

// New creates a new JSON writer, loading any expenses already in the file.
func New(cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)

	w := &Writer{
		filePath: cfg.FilePath,
		index:    make(map[uuid.UUID]int),
		logger:   logger,
	}

	if err := w.loadExisting(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", cfg.FilePath, err)
	}

	w.buffered = buffered.New(w.flushBatch, buffered.Config{
		Name:          "json",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "json_buffer"))

	logger.Info("json writer initialized", "file", cfg.FilePath, "existing_count", len(w.expenses))
	return w, nil
}

func (w *Writer) loadExisting() error {
	data, err := os.ReadFile(w.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, &w.expenses); err != nil {
		return err
	}
	for i, e := range w.expenses {
		w.index[e.ID] = i
	}
	return nil
}

// Write consumes expenses from the input channel and writes them to JSON.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	return w.buffered.Write(ctx, in, ackChan)
}

// flushBatch merges a batch and rewrites the whole file, since a JSON array
// cannot be appended to.
func (w *Writer) flushBatch(_ context.Context, expenses []*api.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, e := range expenses {
		if i, ok := w.index[e.ID]; ok {
			w.expenses[i] = e
			continue
		}
		w.index[e.ID] = len(w.expenses)
		w.expenses = append(w.expenses, e)
	}

	data, err := json.MarshalIndent(w.expenses, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling json: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.filePath), 0o750); err != nil {
		return fmt.Errorf("creating json directory: %w", err)
	}
	// Write-then-rename so a crash never leaves a truncated file.
	tmp := w.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing json file: %w", err)
	}
	if err := os.Rename(tmp, w.filePath); err != nil {
		return fmt.Errorf("replacing json file: %w", err)
	}

	w.logger.Debug("wrote expenses to json",
		"batch_count", len(expenses),
		"total_count", len(w.expenses),
	)
	return nil
}

// ExpenseCount returns the total number of expenses in the file.
func (w *Writer) ExpenseCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.expenses)
}
