package buffered

import (
	"maps"
	"time"
)

// Settings are the batching options shared by every writer plugin config.
type Settings struct {
	BatchSize     int `json:"batchSize,omitempty"`
	FlushInterval int `json:"flushInterval,omitempty"` // in seconds
}

// Interval returns FlushInterval as a duration. Zero means DefaultFlushInterval.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.FlushInterval) * time.Second
}

// Schema returns a closed object schema with props plus the Settings
// properties.
func Schema(props map[string]any, required ...string) map[string]any {
	all := map[string]any{
		"batchSize": map[string]any{
			"type":        "integer",
			"description": "Number of expenses to buffer before writing",
			"default":     DefaultBatchSize,
			"minimum":     1,
		},
		"flushInterval": map[string]any{
			"type":        "integer",
			"description": "Seconds between automatic flushes",
			"default":     int(DefaultFlushInterval / time.Second),
			"minimum":     1,
		},
	}
	maps.Copy(all, props)

	schema := map[string]any{
		"type":                 "object",
		"properties":           all,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
