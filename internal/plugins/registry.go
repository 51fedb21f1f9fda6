// Package plugins provides a plugin registry for readers and writers.
package plugins

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ArionMiles/voxpense/pkg/api"
)

var (
	// ErrNotFound is returned for a plugin name that was never registered.
	ErrNotFound = errors.New("plugin not found")
	// ErrAlreadyRegistered is returned when two plugins share a name.
	ErrAlreadyRegistered = errors.New("plugin already registered")
	// ErrInvalidConfig is returned when a config does not match the plugin's schema.
	ErrInvalidConfig = errors.New("invalid plugin config")
)

// Plugin is the metadata every reader and writer plugin exposes.
type Plugin interface {
	// Name returns the plugin name (e.g., "inbox", "csv").
	Name() string
	// Description returns a human-readable description.
	Description() string
	// RequiredScopes returns the OAuth scopes needed by this plugin.
	RequiredScopes() []string
	// ConfigSchema returns a JSON schema describing the plugin's configuration.
	ConfigSchema() map[string]any
}

// ReaderPlugin defines the interface for voice intake plugins.
type ReaderPlugin interface {
	Plugin
	// NewReader creates a new reader instance with the given config.
	NewReader(ctx context.Context, env api.Env, config json.RawMessage) (api.Reader, error)
}

// WriterPlugin defines the interface for expense writer plugins.
type WriterPlugin interface {
	Plugin
	// NewWriter creates a new writer instance with the given config.
	NewWriter(ctx context.Context, env api.Env, config json.RawMessage) (api.Writer, error)
}

// Registry manages available reader and writer plugins.
type Registry struct {
	readers map[string]ReaderPlugin
	writers map[string]WriterPlugin
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		readers: make(map[string]ReaderPlugin),
		writers: make(map[string]WriterPlugin),
	}
}

// RegisterReader registers a reader plugin.
func (r *Registry) RegisterReader(plugin ReaderPlugin) error {
	name := plugin.Name()
	if _, exists := r.readers[name]; exists {
		return fmt.Errorf("reader %q: %w", name, ErrAlreadyRegistered)
	}
	r.readers[name] = plugin
	return nil
}

// RegisterWriter registers a writer plugin.
func (r *Registry) RegisterWriter(plugin WriterPlugin) error {
	name := plugin.Name()
	if _, exists := r.writers[name]; exists {
		return fmt.Errorf("writer %q: %w", name, ErrAlreadyRegistered)
	}
	r.writers[name] = plugin
	return nil
}

// GetReader returns a reader plugin by name.
func (r *Registry) GetReader(name string) (ReaderPlugin, error) {
	plugin, exists := r.readers[name]
	if !exists {
		return nil, fmt.Errorf("reader %q: %w", name, ErrNotFound)
	}
	return plugin, nil
}

// GetWriter returns a writer plugin by name.
func (r *Registry) GetWriter(name string) (WriterPlugin, error) {
	plugin, exists := r.writers[name]
	if !exists {
		return nil, fmt.Errorf("writer %q: %w", name, ErrNotFound)
	}
	return plugin, nil
}

// ListReaders returns all registered reader plugins sorted by name.
func (r *Registry) ListReaders() []ReaderPlugin {
	return sortedByName(r.readers)
}

// ListWriters returns all registered writer plugins sorted by name.
func (r *Registry) ListWriters() []WriterPlugin {
	return sortedByName(r.writers)
}

func sortedByName[P Plugin](m map[string]P) []P {
	plugins := make([]P, 0, len(m))
	for _, plugin := range m {
		plugins = append(plugins, plugin)
	}
	slices.SortFunc(plugins, func(a, b P) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return plugins
}

// GetAllScopes returns all OAuth scopes required by the given reader and writer names.
func (r *Registry) GetAllScopes(readerName, writerName string) ([]string, error) {
	reader, err := r.GetReader(readerName)
	if err != nil {
		return nil, err
	}

	writer, err := r.GetWriter(writerName)
	if err != nil {
		return nil, err
	}

	scopes := slices.Concat(reader.RequiredScopes(), writer.RequiredScopes())
	slices.Sort(scopes)
	return slices.Compact(scopes), nil
}

// CreateReader validates config against the plugin's schema and creates a
// reader instance.
func (r *Registry) CreateReader(ctx context.Context, name string, env api.Env, config json.RawMessage) (api.Reader, error) {
	plugin, err := r.GetReader(name)
	if err != nil {
		return nil, err
	}
	config, err = Validate(plugin, config)
	if err != nil {
		return nil, err
	}
	return plugin.NewReader(ctx, env, config)
}

// CreateWriter validates config against the plugin's schema and creates a
// writer instance.
func (r *Registry) CreateWriter(ctx context.Context, name string, env api.Env, config json.RawMessage) (api.Writer, error) {
	plugin, err := r.GetWriter(name)
	if err != nil {
		return nil, err
	}
	config, err = Validate(plugin, config)
	if err != nil {
		return nil, err
	}
	return plugin.NewWriter(ctx, env, config)
}

// Validate checks config against the plugin's ConfigSchema. An empty config
// is treated as {} and returned that way.
func Validate(plugin Plugin, config json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(config)) == 0 {
		config = json.RawMessage("{}")
	}

	schema, err := compile(plugin)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(config))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %s: decoding config: %w", ErrInvalidConfig, plugin.Name(), err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, plugin.Name(), err)
	}
	return config, nil
}

func compile(plugin Plugin) (*jsonschema.Schema, error) {
	raw, err := json.Marshal(plugin.ConfigSchema())
	if err != nil {
		return nil, fmt.Errorf("encoding %s schema: %w", plugin.Name(), err)
	}

	url := "mem://plugins/" + plugin.Name() + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("loading %s schema: %w", plugin.Name(), err)
	}
	schema, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", plugin.Name(), err)
	}
	return schema, nil
}
