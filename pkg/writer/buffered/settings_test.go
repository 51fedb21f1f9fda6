package buffered

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings(t *testing.T) {
	var cfg struct {
		Path string `json:"path"`
		Settings
	}
	require.NoError(t, json.Unmarshal([]byte(`{"path":"x","batchSize":5,"flushInterval":30}`), &cfg))

	assert.Equal(t, "x", cfg.Path)
	assert.Equal(t, 5, cfg.BatchSize)
	assert.Equal(t, 30*time.Second, cfg.Interval())
	assert.Zero(t, Settings{}.Interval())
}

func TestSchema(t *testing.T) {
	schema := Schema(map[string]any{"path": map[string]any{"type": "string"}}, "path")

	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "path")
	assert.Contains(t, props, "batchSize")
	assert.Contains(t, props, "flushInterval")
	assert.Equal(t, false, schema["additionalProperties"])
	assert.Equal(t, []string{"path"}, schema["required"])

	assert.NotContains(t, Schema(nil), "required")
}
