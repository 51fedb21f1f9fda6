// Package daemon provides the core daemon runner for voxpense.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ArionMiles/voxpense/internal/plugins"
	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/config"
	"github.com/ArionMiles/voxpense/pkg/logging"
)

// channelSize bounds both the expense and the acknowledgment channels.
const channelSize = 100

// Runner manages the voxpense daemon lifecycle.
type Runner struct {
	registry *plugins.Registry
	env      api.Env
	logger   *slog.Logger
}

// New creates a new daemon runner. env is handed to every plugin, each with
// its own child logger.
func New(registry *plugins.Registry, env api.Env) *Runner {
	env.Logger = logging.OrDefault(env.Logger)
	return &Runner{
		registry: registry,
		env:      env,
		logger:   env.Logger,
	}
}

// Run starts the daemon with the given configuration. It blocks until the
// context is canceled, the reader finishes, or the writer fails.
func (r *Runner) Run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	r.logger.Info("starting voxpense daemon",
		"reader", cfg.ReaderPlugin,
		"writer", cfg.WriterPlugin,
		"default_currency", r.env.VoiceParser().DefaultCurrency(),
		"confidence_threshold", r.env.Threshold(),
	)

	readerEnv := r.env
	readerEnv.Logger = r.logger.With("component", "reader", "plugin", cfg.ReaderPlugin)
	reader, err := r.registry.CreateReader(ctx, cfg.ReaderPlugin, readerEnv, cfg.ReaderConfig)
	if err != nil {
		return fmt.Errorf("creating reader: %w", err)
	}

	writerEnv := r.env
	writerEnv.Logger = r.logger.With("component", "writer", "plugin", cfg.WriterPlugin)
	writer, err := r.registry.CreateWriter(ctx, cfg.WriterPlugin, writerEnv, cfg.WriterConfig)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	expenses := make(chan *api.Expense, channelSize)
	ackChan := make(chan string, channelSize)

	// A failed writer stops the reader; nothing else would drain expenses.
	writerDone := make(chan error, 1)
	go func() {
		err := writer.Write(ctx, expenses, ackChan)
		if err != nil && !errors.Is(err, context.Canceled) {
			cancel()
		}
		writerDone <- err
	}()

	r.logger.Info("daemon started")
	var errs []error
	if err := reader.Read(ctx, expenses, ackChan); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("reader error", "error", err)
		errs = append(errs, fmt.Errorf("reader: %w", err))
	}

	if err := <-writerDone; err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Error("writer error", "error", err)
		errs = append(errs, fmt.Errorf("writer: %w", err))
	}

	r.logger.Info("daemon stopped")
	return errors.Join(errs...)
}
