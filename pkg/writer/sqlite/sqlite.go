// Package sqlite provides a local SQLite writer for expense storage.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

// Amounts are stored as decimal text so no precision is lost.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS expenses (
	id                 TEXT PRIMARY KEY,
	amount             TEXT NOT NULL,
	currency           TEXT NOT NULL,
	category           TEXT NOT NULL,
	merchant           TEXT NOT NULL DEFAULT '',
	spent_on           TEXT NOT NULL,
	confidence         REAL NOT NULL,
	needs_confirmation INTEGER NOT NULL DEFAULT 0,
	transcript         TEXT NOT NULL DEFAULT '',
	source             TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at         TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_expenses_spent_on ON expenses (spent_on);`

const upsertSQL = `
INSERT INTO expenses (
	id, amount, currency, category, merchant, spent_on,
	confidence, needs_confirmation, transcript, source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	amount = excluded.amount,
	currency = excluded.currency,
	category = excluded.category,
	merchant = excluded.merchant,
	spent_on = excluded.spent_on,
	confidence = excluded.confidence,
	needs_confirmation = excluded.needs_confirmation,
	transcript = excluded.transcript,
	source = excluded.source,
	updated_at = CURRENT_TIMESTAMP`

// Config holds the SQLite writer configuration.
type Config struct {
	// Path is the database file. It is created if missing.
	Path string
	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration
	Metrics       *metrics.Metrics
}

// Writer writes expenses to a SQLite database.
type Writer struct {
	db       *sql.DB
	logger   *slog.Logger
	buffered *buffered.Writer
}

// New opens the database and applies the schema.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", cfg.Path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	w := &Writer{db: db, logger: logger}
	w.buffered = buffered.New(w.writeBatch, buffered.Config{
		Name:          "sqlite",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "sqlite_buffer"))

	logger.Info("sqlite writer initialized", "path", cfg.Path)
	return w, nil
}

// Write consumes expenses from the channel and writes them to SQLite.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	defer w.Close()
	return w.buffered.Write(ctx, in, ackChan)
}

func (w *Writer) writeBatch(ctx context.Context, expenses []*api.Expense) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, upsertSQL)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range expenses {
		if _, err := stmt.ExecContext(ctx,
			e.ID.String(),
			e.Amount.String(),
			e.Currency,
			e.Category,
			e.Merchant,
			e.Date.Format(api.DateLayout),
			e.Confidence,
			e.NeedsConfirmation,
			e.Transcript,
			e.Source,
		); err != nil {
			return fmt.Errorf("upserting expense %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	w.logger.Debug("wrote expenses to sqlite", "count", len(expenses))
	return nil
}

// Close closes the database.
func (w *Writer) Close() {
	if err := w.db.Close(); err != nil {
		w.logger.Error("closing sqlite database", "error", err)
	}
}
