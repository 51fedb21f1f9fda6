// Package inbox provides a plugin wrapper for the inbox directory reader.
package inbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArionMiles/voxpense/pkg/api"
	inboxreader "github.com/ArionMiles/voxpense/pkg/reader/inbox"
)

// DefaultDir is used when no dir is configured.
const DefaultDir = "data/inbox"

// Plugin implements the ReaderPlugin interface for the inbox directory.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return inboxreader.Name
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Parse voice transcripts (*.txt) and sessions (*.json) dropped into a directory"
}

// RequiredScopes returns the OAuth scopes needed by this plugin.
func (p *Plugin) RequiredScopes() []string {
	return nil
}

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"dir": map[string]any{
				"type":        "string",
				"description": "Directory to watch for voice sessions",
				"default":     DefaultDir,
			},
			"interval": map[string]any{
				"type":        "integer",
				"description": "Interval in seconds between directory scans (default: 5)",
				"default":     5,
				"minimum":     1,
			},
			"pendingTimeout": map[string]any{
				"type":        "integer",
				"description": "Seconds to wait for a write before offering a session again (default: 300)",
				"default":     300,
				"minimum":     1,
			},
		},
		"additionalProperties": false,
	}
}

// Config represents the inbox reader configuration.
type Config struct {
	Dir            string `json:"dir,omitempty"`
	Interval       int    `json:"interval,omitempty"`       // in seconds
	PendingTimeout int    `json:"pendingTimeout,omitempty"` // in seconds
}

// NewReader creates a new inbox reader instance.
func (p *Plugin) NewReader(_ context.Context, env api.Env, configData json.RawMessage) (api.Reader, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling inbox config: %w", err)
	}
	if cfg.Dir == "" {
		cfg.Dir = DefaultDir
	}

	return inboxreader.New(env.VoiceParser(), inboxreader.Config{
		Dir:            cfg.Dir,
		Interval:       time.Duration(cfg.Interval) * time.Second,
		PendingTimeout: time.Duration(cfg.PendingTimeout) * time.Second,
		Threshold:      env.Threshold(),
		Metrics:        env.Metrics,
	}, env.Logger)
}
