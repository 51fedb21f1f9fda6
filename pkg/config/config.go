// Package config loads voxpense settings from an optional JSON file and the
// environment. Environment variables take precedence over the file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/ArionMiles/voxpense/pkg/client"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

// Defaults applied when a setting is absent.
const (
	DefaultReader = "inbox"
	DefaultWriter = "csv"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

const (
	readerConfigKey = "VOXPENSE_READER_CONFIG"
	writerConfigKey = "VOXPENSE_WRITER_CONFIG"
)

// Config holds the application configuration.
type Config struct {
	// ReaderPlugin is the name of the reader plugin to use.
	// Environment variable: VOXPENSE_READER
	ReaderPlugin string `koanf:"VOXPENSE_READER"`

	// WriterPlugin is the name of the writer plugin to use.
	// Environment variable: VOXPENSE_WRITER
	WriterPlugin string `koanf:"VOXPENSE_WRITER"`

	// ReaderConfig is the JSON configuration for the reader plugin. In the
	// config file it may be an object; in the environment it is a JSON string.
	// Environment variable: VOXPENSE_READER_CONFIG
	ReaderConfig json.RawMessage `koanf:"-"`

	// WriterConfig is the JSON configuration for the writer plugin.
	// Environment variable: VOXPENSE_WRITER_CONFIG
	WriterConfig json.RawMessage `koanf:"-"`

	// DefaultCurrency is used when a transcript names no currency.
	// Environment variable: VOXPENSE_DEFAULT_CURRENCY
	DefaultCurrency string `koanf:"VOXPENSE_DEFAULT_CURRENCY"`

	// ConfidenceThreshold is the score at or above which expenses are saved
	// without confirmation.
	// Environment variable: VOXPENSE_CONFIDENCE_THRESHOLD
	ConfidenceThreshold float64 `koanf:"VOXPENSE_CONFIDENCE_THRESHOLD"`

	// ClientSecretFile and TokenFile locate the Google OAuth credentials.
	// Environment variables: VOXPENSE_CLIENT_SECRET, VOXPENSE_TOKEN_FILE
	ClientSecretFile string `koanf:"VOXPENSE_CLIENT_SECRET"`
	TokenFile        string `koanf:"VOXPENSE_TOKEN_FILE"`

	// LogLevel and LogJSON configure pkg/logging.
	LogLevel string `koanf:"LOG_LEVEL"`
	LogJSON  bool   `koanf:"LOG_JSON"`
}

// Load reads path (when not empty) and then the environment.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kjson.Parser()); err != nil {
			return Config{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", nil), nil); err != nil {
		return Config{}, fmt.Errorf("loading environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	var err error
	if cfg.ReaderConfig, err = rawJSON(k, readerConfigKey); err != nil {
		return Config{}, err
	}
	if cfg.WriterConfig, err = rawJSON(k, writerConfigKey); err != nil {
		return Config{}, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// rawJSON returns the plugin config under key as JSON, whether it was loaded
// as a nested object from the file or as a string from the environment.
func rawJSON(k *koanf.Koanf, key string) (json.RawMessage, error) {
	switch v := k.Get(key).(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		if !json.Valid([]byte(v)) {
			return nil, fmt.Errorf("%w: %s is not valid JSON", ErrInvalidConfig, key)
		}
		return json.RawMessage(v), nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", key, err)
		}
		return b, nil
	}
}

func (c *Config) applyDefaults() {
	if c.ReaderPlugin == "" {
		c.ReaderPlugin = DefaultReader
	}
	if c.WriterPlugin == "" {
		c.WriterPlugin = DefaultWriter
	}
	if len(c.ReaderConfig) == 0 {
		c.ReaderConfig = json.RawMessage("{}")
	}
	if len(c.WriterConfig) == 0 {
		c.WriterConfig = json.RawMessage("{}")
	}
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = string(voice.SystemDefaultCurrency)
	}
	c.DefaultCurrency = strings.ToUpper(strings.TrimSpace(c.DefaultCurrency))
	if c.ConfidenceThreshold == 0 {
		c.ConfidenceThreshold = voice.DefaultConfidenceThreshold
	}
	if c.ClientSecretFile == "" {
		c.ClientSecretFile = client.DefaultSecretFile
	}
	if c.TokenFile == "" {
		c.TokenFile = client.DefaultTokenFile
	}
}

// Validate reports settings that would make the daemon misbehave.
func (c Config) Validate() error {
	if c.ReaderPlugin == "" {
		return fmt.Errorf("%w: VOXPENSE_READER is required", ErrInvalidConfig)
	}
	if c.WriterPlugin == "" {
		return fmt.Errorf("%w: VOXPENSE_WRITER is required", ErrInvalidConfig)
	}
	if _, ok := voice.LookupCurrency(c.DefaultCurrency); !ok {
		return fmt.Errorf("%w: unknown currency %q in VOXPENSE_DEFAULT_CURRENCY", ErrInvalidConfig, c.DefaultCurrency)
	}
	if c.ConfidenceThreshold <= 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("%w: VOXPENSE_CONFIDENCE_THRESHOLD must be in (0, 1], got %v", ErrInvalidConfig, c.ConfidenceThreshold)
	}
	return nil
}

// Currency returns the configured default currency code.
func (c Config) Currency() voice.CurrencyCode {
	return voice.CurrencyCode(c.DefaultCurrency)
}

// Credentials returns the OAuth credential locations for scopes.
func (c Config) Credentials(scopes ...string) client.Credentials {
	return client.Credentials{
		SecretFile: c.ClientSecretFile,
		TokenFile:  c.TokenFile,
		Scopes:     scopes,
	}
}
