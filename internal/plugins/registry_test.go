package plugins

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voxpense/pkg/api"
	inboxplugin "github.com/ArionMiles/voxpense/pkg/plugins/readers/inbox"
	csvplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/csv"
	postgresplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/postgres"
	sheetsplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/sheets"
)

type scopedReader struct {
	inboxplugin.Plugin
	name   string
	scopes []string
}

func (s *scopedReader) Name() string             { return s.name }
func (s *scopedReader) RequiredScopes() []string { return s.scopes }

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	require.NoError(t, r.RegisterReader(&inboxplugin.Plugin{}))
	require.NoError(t, r.RegisterReader(&scopedReader{name: "scoped", scopes: []string{"b", "a"}}))
	require.NoError(t, r.RegisterWriter(&csvplugin.Plugin{}))
	require.NoError(t, r.RegisterWriter(&postgresplugin.Plugin{}))
	require.NoError(t, r.RegisterWriter(&sheetsplugin.Plugin{}))
	return r
}

func TestRegistry_Lookup(t *testing.T) {
	r := newTestRegistry(t)

	assert.ErrorIs(t, r.RegisterWriter(&csvplugin.Plugin{}), ErrAlreadyRegistered)

	_, err := r.GetReader("gmail")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetWriter("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	var names []string
	for _, p := range r.ListWriters() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"csv", "postgres", "sheets"}, names)
	assert.Equal(t, "inbox", r.ListReaders()[0].Name())
}

func TestRegistry_GetAllScopes(t *testing.T) {
	r := newTestRegistry(t)

	scopes, err := r.GetAllScopes("inbox", "csv")
	require.NoError(t, err)
	assert.Empty(t, scopes)

	scopes, err = r.GetAllScopes("scoped", "sheets")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "https://www.googleapis.com/auth/spreadsheets"}, scopes)

	_, err = r.GetAllScopes("scoped", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		plugin  Plugin
		config  string
		wantErr bool
	}{
		{name: "empty config", plugin: &csvplugin.Plugin{}, config: ""},
		{name: "defaults", plugin: &csvplugin.Plugin{}, config: `{}`},
		{name: "full csv", plugin: &csvplugin.Plugin{}, config: `{"filePath":"out.csv","batchSize":5,"flushInterval":10}`},
		{name: "unknown property", plugin: &csvplugin.Plugin{}, config: `{"path":"out.csv"}`, wantErr: true},
		{name: "wrong type", plugin: &csvplugin.Plugin{}, config: `{"batchSize":"ten"}`, wantErr: true},
		{name: "below minimum", plugin: &csvplugin.Plugin{}, config: `{"batchSize":0}`, wantErr: true},
		{name: "not an object", plugin: &csvplugin.Plugin{}, config: `[1]`, wantErr: true},
		{name: "malformed", plugin: &csvplugin.Plugin{}, config: `{`, wantErr: true},
		{name: "postgres missing password", plugin: &postgresplugin.Plugin{}, config: `{"host":"db","database":"v","user":"u"}`, wantErr: true},
		{name: "postgres bad sslmode", plugin: &postgresplugin.Plugin{}, config: `{"host":"db","database":"v","user":"u","password":"p","sslmode":"maybe"}`, wantErr: true},
		{name: "postgres unknown property", plugin: &postgresplugin.Plugin{}, config: `{"host":"db","database":"v","user":"u","password":"p","schema":"x"}`, wantErr: true},
		{name: "sheets needs id or title", plugin: &sheetsplugin.Plugin{}, config: `{"sheetName":"Expenses"}`, wantErr: true},
		{name: "sheets with title", plugin: &sheetsplugin.Plugin{}, config: `{"sheetName":"Expenses","sheetTitle":"Voice"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(tc.plugin, json.RawMessage(tc.config))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.True(t, json.Valid(got))
		})
	}
}

func TestRegistry_Create(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	ctx := context.Background()

	cfg, err := json.Marshal(map[string]any{"filePath": filepath.Join(dir, "out.csv")})
	require.NoError(t, err)
	w, err := r.CreateWriter(ctx, "csv", api.Env{}, cfg)
	require.NoError(t, err)
	assert.NotNil(t, w)

	_, err = r.CreateWriter(ctx, "csv", api.Env{}, json.RawMessage(`{"batchSize":-1}`))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg, err = json.Marshal(map[string]any{"dir": filepath.Join(dir, "inbox")})
	require.NoError(t, err)
	rd, err := r.CreateReader(ctx, "inbox", api.Env{}, cfg)
	require.NoError(t, err)
	assert.NotNil(t, rd)
	assert.DirExists(t, filepath.Join(dir, "inbox"))

	_, err = r.CreateWriter(ctx, "sheets", api.Env{}, json.RawMessage(`{"sheetName":"Expenses","sheetId":"abc"}`))
	assert.ErrorIs(t, err, sheetsplugin.ErrNoClient)

	_, err = r.CreateReader(ctx, "gmail", api.Env{}, nil)
	assert.ErrorIs(t, err, ErrNotFound)
}
