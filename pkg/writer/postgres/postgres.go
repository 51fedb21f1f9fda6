// Package postgres provides a PostgreSQL writer for expense storage.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
)

//go:embed 001_create_expenses.sql
var migrationSQL string

const upsertSQL = `
	INSERT INTO expenses (
		id, amount, currency, category, merchant, spent_on,
		confidence, needs_confirmation, transcript, source
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		amount = EXCLUDED.amount,
		currency = EXCLUDED.currency,
		category = EXCLUDED.category,
		merchant = EXCLUDED.merchant,
		spent_on = EXCLUDED.spent_on,
		confidence = EXCLUDED.confidence,
		needs_confirmation = EXCLUDED.needs_confirmation,
		transcript = EXCLUDED.transcript,
		source = EXCLUDED.source,
		updated_at = NOW()`

// Config holds the PostgreSQL writer configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// BatchSize is the number of expenses to buffer before writing.
	BatchSize int
	// FlushInterval is the time between automatic flushes.
	FlushInterval time.Duration

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
	// ConnectAttempts bounds the startup ping retries. Defaults to 5.
	ConnectAttempts uint
	// ConnectDelay is the initial backoff between pings. Defaults to 1s.
	ConnectDelay time.Duration

	Metrics *metrics.Metrics
}

// pool is the subset of *pgxpool.Pool the writer uses.
type pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Writer writes expenses to a PostgreSQL database.
type Writer struct {
	pool     pool
	logger   *slog.Logger
	buffered *buffered.Writer
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = 10
	}
	if c.ConnectAttempts == 0 {
		c.ConnectAttempts = 5
	}
	if c.ConnectDelay == 0 {
		c.ConnectDelay = time.Second
	}
}

// ConnString renders the keyword/value connection string for cfg.
func (c Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// New connects to PostgreSQL, retrying the first ping, and applies the schema.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Writer, error) {
	logger = logging.OrDefault(logger)
	cfg.setDefaults()

	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	p, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	w, err := newWithPool(ctx, p, cfg, logger)
	if err != nil {
		p.Close()
		return nil, err
	}

	logger.Info("connected to PostgreSQL",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.Database,
	)
	return w, nil
}

func newWithPool(ctx context.Context, p pool, cfg Config, logger *slog.Logger) (*Writer, error) {
	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return p.Ping(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(cfg.ConnectAttempts),
		retry.Delay(cfg.ConnectDelay),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn("database not ready, retrying", "attempt", n+1, "error", err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	w := &Writer{pool: p, logger: logger}
	if err := w.runMigrations(ctx); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	w.buffered = buffered.New(w.writeBatch, buffered.Config{
		Name:          "postgres",
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		Metrics:       cfg.Metrics,
	}, logger.With("component", "postgres_buffer"))
	return w, nil
}

func (w *Writer) runMigrations(ctx context.Context) error {
	w.logger.Info("running database migrations")
	if _, err := w.pool.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	w.logger.Info("migrations completed successfully")
	return nil
}

// Write consumes expenses from the channel and writes them to PostgreSQL.
func (w *Writer) Write(ctx context.Context, in <-chan *api.Expense, ackChan chan<- string) error {
	defer w.Close()
	return w.buffered.Write(ctx, in, ackChan)
}

// writeBatch upserts a batch by expense ID in one transaction.
func (w *Writer) writeBatch(ctx context.Context, expenses []*api.Expense) error {
	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	for _, e := range expenses {
		if _, err := tx.Exec(ctx, upsertSQL,
			e.ID,
			e.Amount,
			e.Currency,
			e.Category,
			e.Merchant,
			e.Date,
			e.Confidence,
			e.NeedsConfirmation,
			e.Transcript,
			e.Source,
		); err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				w.logger.Error("rollback failed", "error", rbErr)
			}
			return fmt.Errorf("upserting expense %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Close closes the database connection pool.
func (w *Writer) Close() {
	if w.pool != nil {
		w.pool.Close()
		w.logger.Info("closed PostgreSQL connection pool")
	}
}
