// Package json provides a plugin wrapper for the JSON writer.
package json

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	jsonwriter "github.com/ArionMiles/voxpense/pkg/writer/json"
)

// DefaultFilePath is used when no filePath is configured.
const DefaultFilePath = "data/expenses.json"

// Plugin implements the WriterPlugin interface for JSON files.
type Plugin struct{}

func (p *Plugin) Name() string { return "json" }

func (p *Plugin) Description() string {
	return "Keep expenses in a JSON file, replacing entries by ID"
}

func (p *Plugin) RequiredScopes() []string { return nil }

func (p *Plugin) ConfigSchema() map[string]any {
	return buffered.Schema(map[string]any{
		"filePath": map[string]any{
			"type":        "string",
			"description": "JSON file holding an array of expenses",
			"default":     DefaultFilePath,
		},
	})
}

// Config is the json plugin's JSON configuration.
type Config struct {
	FilePath string `json:"filePath,omitempty"`
	buffered.Settings
}

// NewWriter creates a new JSON writer instance.
func (p *Plugin) NewWriter(_ context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling json config: %w", err)
	}
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultFilePath
	}

	return jsonwriter.New(jsonwriter.Config{
		FilePath:      cfg.FilePath,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.Interval(),
		Metrics:       env.Metrics,
	}, env.Logger)
}
