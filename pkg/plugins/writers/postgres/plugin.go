// Package postgres provides a plugin wrapper for the PostgreSQL writer.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/writer/buffered"
	pgwriter "github.com/ArionMiles/voxpense/pkg/writer/postgres"
)

// Plugin implements the WriterPlugin interface for PostgreSQL.
type Plugin struct{}

// Name returns the plugin name.
func (p *Plugin) Name() string { return "postgres" }

// Description returns a human-readable description.
func (p *Plugin) Description() string {
	return "Upsert expenses into a PostgreSQL database"
}

// RequiredScopes returns nil; the database uses its own credentials.
func (p *Plugin) RequiredScopes() []string { return nil }

// ConfigSchema returns a JSON schema describing the plugin's configuration.
func (p *Plugin) ConfigSchema() map[string]any {
	return buffered.Schema(map[string]any{
		"host": map[string]any{
			"type":        "string",
			"description": "PostgreSQL host address",
			"default":     "localhost",
		},
		"port": map[string]any{
			"type":        "integer",
			"description": "PostgreSQL port",
			"default":     5432,
			"minimum":     1,
			"maximum":     65535,
		},
		"database": map[string]any{
			"type":        "string",
			"description": "Database name",
			"default":     "voxpense",
		},
		"user":     map[string]any{"type": "string"},
		"password": map[string]any{"type": "string"},
		"sslmode": map[string]any{
			"type":    "string",
			"default": "disable",
			"enum":    []string{"disable", "require", "verify-ca", "verify-full"},
		},
		"maxPoolSize": map[string]any{
			"type":        "integer",
			"description": "Maximum number of connections in the pool",
			"default":     10,
			"minimum":     1,
		},
		"connectAttempts": map[string]any{
			"type":        "integer",
			"description": "Startup connection attempts before giving up",
			"default":     5,
			"minimum":     1,
		},
	}, "host", "database", "user", "password")
}

// Config is the postgres plugin's JSON configuration.
type Config struct {
	Host            string `json:"host"`
	Port            int    `json:"port,omitempty"`
	Database        string `json:"database"`
	User            string `json:"user"`
	Password        string `json:"password"`
	SSLMode         string `json:"sslmode,omitempty"`
	MaxPoolSize     int    `json:"maxPoolSize,omitempty"`
	ConnectAttempts uint   `json:"connectAttempts,omitempty"`
	buffered.Settings
}

// NewWriter connects to PostgreSQL, runs the migration and creates a writer.
func (p *Plugin) NewWriter(ctx context.Context, env api.Env, configData json.RawMessage) (api.Writer, error) {
	var cfg Config
	if err := json.Unmarshal(configData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling postgres config: %w", err)
	}

	return pgwriter.New(ctx, pgwriter.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Database:        cfg.Database,
		User:            cfg.User,
		Password:        cfg.Password,
		SSLMode:         cfg.SSLMode,
		BatchSize:       cfg.BatchSize,
		FlushInterval:   cfg.Interval(),
		MaxPoolSize:     cfg.MaxPoolSize,
		ConnectAttempts: cfg.ConnectAttempts,
		Metrics:         env.Metrics,
	}, env.Logger)
}
