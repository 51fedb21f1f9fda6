// Package sqlite provides a plugin wrapper for the SQLite writer.
package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	sqlitewriter "github.com/ArionMiles/voxpense/pkg/writer/sqlite"
)

// DefaultPath is used when no path is configured.
const DefaultPath = "data/voxpense.db"

// Plugin implements the WriterPlugin interface for a local SQLite database.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string { return "sqlite" }

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Store expenses in a local SQLite database"
}

// RequiredScopes returns nil.
func (p *Plugin) RequiredScopes() []string { return nil }

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return buffered.Schema(map[string]any{
		"path": map[string]any{
			"type":        "string",
			"description": "Database file, created with its directory when missing",
			"default":     DefaultPath,
		},
	})
}

// Config is the sqlite plugin's JSON configuration.
type Config struct {
	Path string `json:"path,omitempty"`
	buffered.Settings
}

// NewWriter opens the database and creates a writer instance.
func (p *Plugin) NewWriter(ctx context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sqlite config: %w", err)
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	return sqlitewriter.New(ctx, sqlitewriter.Config{
		Path:          cfg.Path,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.Interval(),
		Metrics:       env.Metrics,
	}, env.Logger)
}
