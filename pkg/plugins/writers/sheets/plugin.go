// Package sheets provides a plugin wrapper for the Google Sheets writer.
package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	sheetswriter "github.com/ArionMiles/voxpense/pkg/writer/sheets"
)

// ErrNoClient is returned when the daemon has no authorized HTTP client.
var ErrNoClient = errors.New("sheets writer needs an authorized http client, run `voxpense setup` first")

// Plugin implements the WriterPlugin interface for Google Sheets.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string { return "sheets" }

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Append expenses to a Google Sheets spreadsheet"
}

// RequiredScopes returns the spreadsheet read/write scope.
func (p *Plugin) RequiredScopes() []string {
	return []string{sheetswriter.Scope}
}

// ConfigSchema requires sheetName and one of sheetId or sheetTitle.
func (p *Plugin) ConfigSchema() map[string]any {
	schema := buffered.Schema(map[string]any{
		"sheetTitle": map[string]any{
			"type":        "string",
			"description": "Title for a new spreadsheet (used if sheetId is not provided)",
		},
		"sheetId": map[string]any{
			"type":        "string",
			"description": "ID of an existing spreadsheet to use",
		},
		"sheetName": map[string]any{
			"type":        "string",
			"description": "Name of the sheet/tab within the spreadsheet",
		},
	}, "sheetName")
	schema["anyOf"] = []any{
		map[string]any{"required": []string{"sheetId"}},
		map[string]any{"required": []string{"sheetTitle"}},
	}
	return schema
}

// Config is the sheets plugin's JSON configuration.
type Config struct {
	SheetTitle string `json:"sheetTitle,omitempty"`
	SheetID    string `json:"sheetId,omitempty"`
	SheetName  string `json:"sheetName"`
	buffered.Settings
}

// NewWriter creates a new Sheets writer instance.
func (p *Plugin) NewWriter(ctx context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling sheets config: %w", err)
	}
	if env.HTTPClient == nil {
		return nil, ErrNoClient
	}

	return sheetswriter.New(ctx, env.HTTPClient, sheetswriter.Config{
		SheetTitle:    cfg.SheetTitle,
		SheetID:       cfg.SheetID,
		SheetName:     cfg.SheetName,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.Interval(),
		Metrics:       env.Metrics,
	}, env.Logger)
}
