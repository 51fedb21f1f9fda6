package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArionMiles/voxpense/internal/daemon"
	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/client"
	"github.com/ArionMiles/voxpense/pkg/config"
	"github.com/ArionMiles/voxpense/pkg/logging"
	"github.com/ArionMiles/voxpense/pkg/metrics"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

// runCommand starts the daemon and blocks until SIGINT or SIGTERM.
func runCommand(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, stderr)

	registry, err := newRegistry()
	if err != nil {
		return err
	}
	logger.Info("plugins registered",
		"readers", len(registry.ListReaders()),
		"writers", len(registry.ListWriters()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	env, err := buildEnv(ctx, cfg, registry.GetAllScopes, logger)
	if err != nil {
		return err
	}

	if err := daemon.New(registry, env).Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("daemon failed", "error", err)
		return err
	}
	return nil
}

type scopesFunc func(readerName, writerName string) ([]string, error)

// buildEnv assembles the dependencies shared by the configured plugins. An
// OAuth client is only loaded when a plugin asks for scopes.
func buildEnv(ctx context.Context, cfg config.Config, scopes scopesFunc, logger *slog.Logger) (api.Env, error) {
	env := api.Env{
		Parser:              newParser(cfg),
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Metrics:             metrics.Default(),
		Logger:              logger,
	}

	needed, err := scopes(cfg.ReaderPlugin, cfg.WriterPlugin)
	if err != nil {
		return api.Env{}, fmt.Errorf("resolving oauth scopes: %w", err)
	}
	if len(needed) == 0 {
		return env, nil
	}

	logger.Info("OAuth scopes required", "scopes", needed)
	creds := cfg.Credentials(needed...)
	creds.Logger = logger
	httpClient, err := client.Load(ctx, creds)
	if err != nil {
		return api.Env{}, fmt.Errorf("creating http client: %w", err)
	}
	env.HTTPClient = httpClient
	return env, nil
}

func newParser(cfg config.Config) *voice.Parser {
	return voice.New(voice.WithDefaultCurrency(cfg.Currency()))
}

func setupLogger(cfg config.Config, out io.Writer) *slog.Logger {
	return logging.Setup(logging.Config{
		Level:  logging.ParseLevel(cfg.LogLevel),
		JSON:   cfg.LogJSON,
		Output: out,
	})
}
