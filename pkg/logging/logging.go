// Package logging builds the slog loggers used across voxpense.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the handler and level of a logger.
type Config struct {
	Level slog.Level
	// JSON selects slog.JSONHandler; otherwise logs are text.
	JSON bool
	// Output defaults to os.Stderr.
	Output io.Writer
}

// ParseLevel reads a LOG_LEVEL value. It accepts the slog names in any case,
// offsets such as "info+2", and "warning". Anything else is INFO.
func ParseLevel(s string) slog.Level {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "warning") {
		return slog.LevelWarn
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// New returns a logger for cfg without touching the default logger.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.JSON {
		return slog.New(slog.NewJSONHandler(out, opts))
	}
	return slog.New(slog.NewTextHandler(out, opts))
}

// Setup builds a logger with New and installs it as the slog default, so
// components handed a nil logger still log through it.
func Setup(cfg Config) *slog.Logger {
	logger := New(cfg)
	slog.SetDefault(logger)
	return logger
}

// OrDefault returns logger, or slog.Default when logger is nil.
func OrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
