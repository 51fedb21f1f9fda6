// Package xlsx provides a plugin wrapper for the Excel workbook writer.
package xlsx

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	xlsxwriter "github.com/ArionMiles/voxpense/pkg/writer/xlsx"
)

// DefaultFilePath is used when no filePath is configured.
const DefaultFilePath = "data/expenses.xlsx"

// Plugin implements the WriterPlugin interface for Excel workbooks.
type Plugin struct{}

func (p *Plugin) Name() string { return "xlsx" }

func (p *Plugin) Description() string { return "Keep expenses in an Excel workbook" }

func (p *Plugin) RequiredScopes() []string { return nil }

func (p *Plugin) ConfigSchema() map[string]any {
	return buffered.Schema(map[string]any{
		"filePath": map[string]any{
			"type":        "string",
			"description": "Path to the .xlsx workbook",
			"default":     DefaultFilePath,
		},
		"sheetName": map[string]any{
			"type":        "string",
			"description": "Worksheet holding the expenses; rows are replaced by ID",
			"default":     xlsxwriter.DefaultSheetName,
		},
	})
}

// Config is the xlsx plugin's JSON configuration.
type Config struct {
	FilePath  string `json:"filePath,omitempty"`
	SheetName string `json:"sheetName,omitempty"`
	buffered.Settings
}

// NewWriter creates a new workbook writer instance.
func (p *Plugin) NewWriter(_ context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling xlsx config: %w", err)
	}
	if cfg.FilePath == "" {
		cfg.FilePath = DefaultFilePath
	}

	return xlsxwriter.New(xlsxwriter.Config{
		FilePath:      cfg.FilePath,
		SheetName:     cfg.SheetName,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.Interval(),
		Metrics:       env.Metrics,
	}, env.Logger)
}
