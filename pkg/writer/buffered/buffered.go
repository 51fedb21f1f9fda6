// Package buffered provides a buffered writer base for batch writes.
package buffered

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
)

// DefaultBatchSize is the default number of expenses to buffer before flushing.
const DefaultBatchSize = 10

// DefaultFlushInterval is the default interval between automatic flushes.
const DefaultFlushInterval = 30 * time.Second

// Flusher persists one batch. The batch is acknowledged only when it returns nil.
type Flusher func(ctx context.Context, expenses []*api.Expense) error

// Config holds configuration for buffered writing.
type Config struct {
	// Name labels the written-expenses metric, e.g. "csv".
	Name string
	// BatchSize is the number of expenses to buffer before flushing.
	// Defaults to DefaultBatchSize.
	BatchSize int
	// FlushInterval is the interval between automatic flushes.
	// Defaults to DefaultFlushInterval.
	FlushInterval time.Duration
	// Metrics is optional.
	Metrics *metrics.Metrics
}

// Writer buffers expenses and flushes them in batches.
type Writer struct {
	buffer  []*api.Expense
	mu      sync.Mutex
	flusher Flusher
	config  Config
	logger  *slog.Logger
}

// New creates a new buffered writer with the given flusher function.
func New(flusher Flusher, cfg Config, logger *slog.Logger) *Writer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultFlushInterval
	}

	return &Writer{
		buffer:  make([]*api.Expense, 0, cfg.BatchSize),
		flusher: flusher,
		config:  cfg,
		logger:  logging.OrDefault(logger),
	}
}

// Write consumes expenses from the input channel and buffers them for batch
// writes. After each successful flush the Ack of every written expense is sent
// on ackChan, which may be nil.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	ticker := time.NewTicker(w.config.FlushInterval)
	defer ticker.Stop()

	w.logger.Info("buffered writer started",
		"batch_size", w.config.BatchSize,
		"flush_interval", w.config.FlushInterval,
	)

	for {
		select {
		case <-ctx.Done():
			return w.handleShutdown(ackChan)
		case <-ticker.C:
			w.handleTimerFlush(ctx, ackChan)
		case expense, ok := <-in:
			if done, err := w.handleExpense(ctx, expense, ok, ackChan); done {
				return err
			}
		}
	}
}

func (w *Writer) handleShutdown(ackChan chan<- string) error {
	w.logger.Info("buffered writer stopping, flushing remaining buffer")
	// The run context is gone; give the final flush its own deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.flush(ctx, ackChan); err != nil {
		w.logger.Error("failed to flush on shutdown", "error", err)
	}
	return context.Canceled
}

func (w *Writer) handleTimerFlush(ctx context.Context, ackChan chan<- string) {
	if err := w.flush(ctx, ackChan); err != nil {
		w.logger.Error("failed to flush on interval", "error", err)
	}
}

func (w *Writer) handleExpense(ctx context.Context, expense *api.Expense, ok bool, ackChan chan<- string) (bool, error) {
	if !ok {
		w.logger.Info("input channel closed, flushing remaining buffer")
		if err := w.flush(ctx, ackChan); err != nil {
			w.logger.Error("failed to flush on close", "error", err)
			return true, err
		}
		return true, nil
	}
	if expense == nil {
		return false, nil
	}

	w.mu.Lock()
	w.buffer = append(w.buffer, expense)
	shouldFlush := len(w.buffer) >= w.config.BatchSize
	w.mu.Unlock()

	if shouldFlush {
		if err := w.flush(ctx, ackChan); err != nil {
			w.logger.Error("failed to flush on batch size", "error", err)
		}
	}
	return false, nil
}

// flush writes all buffered expenses using the flusher function. A failed
// batch is dropped unacknowledged so the reader can offer it again.
func (w *Writer) flush(ctx context.Context, ackChan chan<- string) error {
	w.mu.Lock()
	if len(w.buffer) == 0 {
		w.mu.Unlock()
		return nil
	}

	toFlush := make([]*api.Expense, len(w.buffer))
	copy(toFlush, w.buffer)
	w.buffer = w.buffer[:0]
	w.mu.Unlock()

	w.logger.Debug("flushing buffer", "count", len(toFlush))

	if err := w.flusher(ctx, toFlush); err != nil {
		return err
	}

	w.config.Metrics.ObserveWritten(w.config.Name, len(toFlush))
	w.logger.Info("flushed expenses", "count", len(toFlush))
	w.ack(ctx, toFlush, ackChan)
	return nil
}

func (w *Writer) ack(ctx context.Context, expenses []*api.Expense, ackChan chan<- string) {
	if ackChan == nil {
		return
	}
	for _, e := range expenses {
		if e.Ack == "" {
			continue
		}
		select {
		case ackChan <- e.Ack:
		case <-ctx.Done():
			w.logger.Warn("dropping acknowledgements, context done", "remaining", len(expenses))
			return
		}
	}
}

// BufferLen returns the current number of buffered expenses.
func (w *Writer) BufferLen() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buffer)
}
