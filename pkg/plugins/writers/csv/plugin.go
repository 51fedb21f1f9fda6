// Package csv provides a plugin wrapper for the CSV writer.
package csv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	csvwriter "github.com/ArionMiles/voxpense/pkg/writer/csv"
)

// DefaultFilePath is used when no filePath is configured.
const DefaultFilePath = "data/expenses.csv"

// Plugin implements the WriterPlugin interface for CSV files.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string { return "csv" }

// Description returns a human-readable description.
func (p *Plugin) Description() string { return "Append expenses to a CSV file" }

// RequiredScopes returns nil; local files need no OAuth.
func (p *Plugin) RequiredScopes() []string { return nil }

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return buffered.Schema(map[string]any{
		"filePath": map[string]any{
			"type":        "string",
			"description": "CSV file to append to; the header is written when the file is new",
			"default":     DefaultFilePath,
		},
	})
}

// Config is the csv plugin's JSON configuration.
type Config struct {
	FilePath string `json:"filePath,omitempty"`
	buffered.Settings
}

// NewWriter creates a new CSV writer instance.
func (p *Plugin) NewWriter(_ context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling csv config: %w", err)
	}
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultFilePath
	}

	return csvwriter.New(csvwriter.Config{
		FilePath:      cfg.FilePath,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.Interval(),
		Metrics:       env.Metrics,
	}, env.Logger)
}
