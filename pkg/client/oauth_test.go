package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testSecret = `{"installed":{"client_id":"id","client_secret":"secret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	want := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, SaveToken(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := TokenFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.Expiry.Equal(got.Expiry))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "client_secret.json")
	require.NoError(t, os.WriteFile(secret, []byte(testSecret), 0o600))
	creds := Credentials{SecretFile: secret, TokenFile: filepath.Join(dir, "token.json")}

	_, err := Load(context.Background(), creds)
	assert.ErrorIs(t, err, ErrNoToken)

	require.NoError(t, SaveToken(creds.TokenFile, &oauth2.Token{AccessToken: "access"}))
	c, err := Load(context.Background(), creds)
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(context.Background(), Credentials{SecretFile: filepath.Join(t.TempDir(), "missing.json")})
	assert.ErrorContains(t, err, "reading client secret file")
}

func TestCallbackHandler(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		status   int
		wantCode string
		wantErr  bool
	}{
		{name: "success", query: "?state=s&code=abc", status: http.StatusOK, wantCode: "abc"},
		{name: "bad state", query: "?state=x&code=abc", status: http.StatusBadRequest, wantErr: true},
		{name: "provider error", query: "?state=s&error=access_denied", status: http.StatusBadRequest, wantErr: true},
		{name: "missing code", query: "?state=s", status: http.StatusBadRequest, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			codeChan := make(chan string, 1)
			errChan := make(chan error, 1)
			rec := httptest.NewRecorder()

			callbackHandler("s", codeChan, errChan).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, callbackPath+tc.query, nil))

			assert.Equal(t, tc.status, rec.Code)
			if tc.wantErr {
				assert.Len(t, errChan, 1)
				assert.Empty(t, codeChan)
				return
			}
			assert.Equal(t, tc.wantCode, <-codeChan)
		})
	}
}
