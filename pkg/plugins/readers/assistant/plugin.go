// Package assistant provides a plugin wrapper for the HTTP assistant reader.
package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ArionMiles/voxpense/pkg/api"
	assistantreader "github.com/ArionMiles/voxpense/pkg/reader/assistant"
)

// Plugin implements the ReaderPlugin interface for assistant deep links.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return assistantreader.Name
}

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Receive transcripts and intents from Siri Shortcuts or Google App Actions over HTTP"
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
			"addr": map[string]any{
				"type":        "string",
				"description": "Listen address",
				"default":     assistantreader.DefaultAddr,
			},
			"token": map[string]any{
				"type":        "string",
				"description": "Bearer token required on /v1 requests (empty disables auth)",
			},
			"pendingTTL": map[string]any{
				"type":        "integer",
				"description": "Seconds an unconfirmed expense is kept (default: 900)",
				"default":     900,
				"minimum":     1,
			},
		},
		"additionalProperties": false,
	}
}

// Config represents the assistant reader configuration.
type Config struct {
	Addr       string `json:"addr,omitempty"`
	Token      string `json:"token,omitempty"`
	PendingTTL int    `json:"pendingTTL,omitempty"` // in seconds
}

// NewReader creates a new assistant reader instance.
func (p *Plugin) NewReader(_ context.Context, env api.Env, configData json.RawMessage) (api.Reader, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling assistant config: %w", err)
	}

	return assistantreader.New(env.VoiceParser(), assistantreader.Config{
		Addr:       cfg.Addr,
		Token:      cfg.Token,
		PendingTTL: time.Duration(cfg.PendingTTL) * time.Second,
		Threshold:  env.Threshold(),
		Metrics:    env.Metrics,
	}, env.Logger)
}
