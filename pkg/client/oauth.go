// Package client builds OAuth2 HTTP clients for the Google Sheets writer.
package client

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ArionMiles/voxpense/pkg/logging"
)

const (
	// DefaultSecretFile is the default path to the Google OAuth credentials JSON file.
	DefaultSecretFile = "data/client_secret.json"
	// DefaultTokenFile is the default path to the cached OAuth token.
	DefaultTokenFile = "data/token.json"

	callbackPort  = 8085
	callbackPath  = "/callback"
	serverTimeout = 5 * time.Minute
)

// ErrNoToken is returned by Load when no token has been saved yet.
var ErrNoToken = errors.New("no oauth token, run `voxpense setup`")

// Credentials locates the OAuth secret and token on disk.
type Credentials struct {
	SecretFile string
	TokenFile  string
	Scopes     []string
	Logger     *slog.Logger
}

func (c Credentials) withDefaults() Credentials {
	if c.SecretFile == "" {
		c.SecretFile = DefaultSecretFile
	}
	if c.TokenFile == "" {
		c.TokenFile = DefaultTokenFile
	}
	c.Logger = logging.OrDefault(c.Logger)
	return c
}

func (c Credentials) oauthConfig() (*oauth2.Config, error) {
	b, err := os.ReadFile(c.SecretFile)
	if err != nil {
		return nil, fmt.Errorf("reading client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(b, c.Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parsing client secret: %w", err)
	}
	return config, nil
}

// Load returns a client for a previously saved token. It never prompts, so
// the daemon fails fast with ErrNoToken instead of waiting on a browser.
func Load(ctx context.Context, creds Credentials) (*http.Client, error) {
	creds = creds.withDefaults()
	config, err := creds.oauthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := TokenFromFile(creds.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoToken
		}
		return nil, fmt.Errorf("loading token: %w", err)
	}
	return config.Client(ctx, tok), nil
}

// Authorize runs the browser consent flow, saves the token and returns a
// client for it.
func Authorize(ctx context.Context, creds Credentials) (*http.Client, error) {
	creds = creds.withDefaults()
	config, err := creds.oauthConfig()
	if err != nil {
		return nil, err
	}
	tok, err := tokenFromWeb(ctx, config, creds.Logger)
	if err != nil {
		return nil, err
	}
	if err := SaveToken(creds.TokenFile, tok); err != nil {
		return nil, err
	}
	creds.Logger.Info("saved oauth token", "path", creds.TokenFile)
	return config.Client(ctx, tok), nil
}

func tokenFromWeb(ctx context.Context, config *oauth2.Config, logger *slog.Logger) (*oauth2.Token, error) {
	config.RedirectURL = fmt.Sprintf("http://localhost:%d%s", callbackPort, callbackPath)

	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generating state token: %w", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Addr:              fmt.Sprintf("localhost:%d", callbackPort),
		Handler:           callbackHandler(state, codeChan, errChan),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", server.Addr)
	if err != nil {
		return nil, fmt.Errorf("port %d unavailable: %w", callbackPort, err)
	}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down callback server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline)
	fmt.Printf("\nOpen this URL to grant access to Google Sheets:\n%s\n\n", authURL)
	if err := openBrowser(ctx, authURL); err != nil {
		logger.Warn("failed to open browser automatically", "error", err)
	}

	select {
	case code := <-codeChan:
		tok, err := config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("exchanging authorization code for token: %w", err)
		}
		return tok, nil
	case err := <-errChan:
		return nil, fmt.Errorf("oauth callback error: %w", err)
	case <-time.After(serverTimeout):
		return nil, fmt.Errorf("oauth flow timed out after %v", serverTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// callbackHandler accepts one redirect from the consent screen.
func callbackHandler(expectedState string, codeChan chan<- string, errChan chan<- error) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != expectedState {
			sendErr(errChan, errors.New("invalid state parameter"))
			http.Error(w, "Invalid state parameter", http.StatusBadRequest)
			return
		}
		if errMsg := q.Get("error"); errMsg != "" {
			sendErr(errChan, fmt.Errorf("%s: %s", errMsg, q.Get("error_description")))
			http.Error(w, "Authentication failed: "+errMsg, http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			sendErr(errChan, errors.New("no authorization code received"))
			http.Error(w, "No authorization code received", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, "voxpense is authorized. You can close this window.")
		select {
		case codeChan <- code:
		default:
		}
	})
	return mux
}

func sendErr(errChan chan<- error, err error) {
	select {
	case errChan <- err:
	default:
	}
}

func openBrowser(ctx context.Context, url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", url)
	case "linux":
		cmd = exec.CommandContext(ctx, "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(ctx, "cmd", "/c", "start", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// TokenFromFile reads a saved OAuth token.
func TokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, fmt.Errorf("decoding token: %w", err)
	}
	return tok, nil
}

// SaveToken writes token to path with owner-only permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating token file: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("encoding token: %w", err)
	}
	return nil
}
