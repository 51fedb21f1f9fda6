package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry, err := newRegistry()
	require.NoError(t, err)

	var readers, writers []string
	for _, p := range registry.ListReaders() {
		readers = append(readers, p.Name())
	}
	for _, p := range registry.ListWriters() {
		writers = append(writers, p.Name())
	}
	assert.Equal(t, []string{"assistant", "inbox"}, readers)
	assert.Equal(t, []string{"csv", "json", "postgres", "sheets", "sqlite", "xlsx"}, writers)
}

func TestDispatch_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	assert.ErrorIs(t, dispatch(nil, &stdout, &stderr), errUsage)
	assert.Contains(t, stderr.String(), "Usage: voxpense")

	stderr.Reset()
	assert.ErrorIs(t, dispatch([]string{"fly"}, &stdout, &stderr), errUsage)
	assert.Contains(t, stderr.String(), `unknown command "fly"`)

	require.NoError(t, dispatch([]string{"help"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), "plugins")
}

func TestParse(t *testing.T) {
	t.Setenv("VOXPENSE_DEFAULT_CURRENCY", "INR")

	tests := []struct {
		name         string
		args         []string
		stdin        string
		wantAmount   any
		wantCurrency string
		wantDate     string
		wantExpense  bool
	}{
		{
			name:         "arguments",
			args:         []string{"-at", "2024-03-13", "I", "spent", "two", "thousand", "dirhams", "on", "groceries", "yesterday"},
			wantAmount:   "2000",
			wantCurrency: "AED",
			wantDate:     "2024-03-12",
			wantExpense:  true,
		},
		{
			name:         "stdin with configured currency",
			stdin:        "I spent 50 for shopping\n",
			wantAmount:   "50",
			wantCurrency: "INR",
			wantExpense:  true,
		},
		{
			name:         "currency flag",
			args:         []string{"-currency", "usd", "I spent 50 for shopping"},
			wantAmount:   "50",
			wantCurrency: "USD",
			wantExpense:  true,
		},
		{
			name:         "no amount",
			args:         []string{"remind me to buy milk"},
			wantAmount:   nil,
			wantCurrency: "INR",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			require.NoError(t, parseFrom(tc.args, strings.NewReader(tc.stdin), &stdout, &stderr))

			var got struct {
				Decision string                     `json:"decision"`
				Parsed   map[string]any             `json:"parsed"`
				Expense  map[string]json.RawMessage `json:"expense"`
			}
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &got))
			assert.Equal(t, tc.wantAmount, got.Parsed["amount"])
			assert.Equal(t, tc.wantCurrency, got.Parsed["currency"])
			assert.NotEmpty(t, got.Decision)
			assert.Equal(t, tc.wantExpense, got.Expense != nil)
			if tc.wantDate != "" {
				assert.True(t, strings.HasPrefix(got.Parsed["date"].(string), tc.wantDate))
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "empty transcript", args: nil},
		{name: "bad time", args: []string{"-at", "tomorrow", "I spent 5"}},
		{name: "bad threshold", args: []string{"-threshold", "2", "I spent 5"}},
		{name: "unknown currency", args: []string{"-currency", "XYZ", "I spent 5"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			assert.Error(t, parseFrom(tc.args, strings.NewReader(""), &stdout, &stderr))
			assert.Empty(t, stdout.String())
		})
	}
}

func TestPlugins(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, pluginsCommand([]string{"-schema"}, &stdout, &stderr))

	out := stdout.String()
	for _, name := range []string{"inbox", "assistant", "csv", "json", "sqlite", "xlsx", "postgres", "sheets"} {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "scopes: https://www.googleapis.com/auth/spreadsheets")
	assert.Contains(t, out, `"additionalProperties": false`)
}

func TestStatus(t *testing.T) {
	t.Run("defaults are ready", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.NoError(t, statusCommand(nil, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "Reader inbox: ✓")
		assert.Contains(t, stdout.String(), "Writer csv: ✓")
		assert.Contains(t, stdout.String(), "Ready to run")
	})

	t.Run("unknown writer", func(t *testing.T) {
		t.Setenv("VOXPENSE_WRITER", "fax")
		var stdout, stderr bytes.Buffer
		assert.Error(t, statusCommand(nil, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "Writer: ✗")
	})

	t.Run("invalid writer config", func(t *testing.T) {
		t.Setenv("VOXPENSE_WRITER_CONFIG", `{"batchSize": 0}`)
		var stdout, stderr bytes.Buffer
		assert.Error(t, statusCommand(nil, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "Writer csv: ✗")
	})

	t.Run("sheets needs a token", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("VOXPENSE_WRITER", "sheets")
		t.Setenv("VOXPENSE_WRITER_CONFIG", `{"sheetTitle": "Expenses", "sheetName": "Sheet1"}`)
		t.Setenv("VOXPENSE_CLIENT_SECRET", dir+"/secret.json")
		t.Setenv("VOXPENSE_TOKEN_FILE", dir+"/token.json")
		var stdout, stderr bytes.Buffer
		assert.Error(t, statusCommand(nil, &stdout, &stderr))
		assert.Contains(t, stdout.String(), "voxpense setup")
	})
}
