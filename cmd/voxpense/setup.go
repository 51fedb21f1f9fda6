package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArionMiles/voxpense/pkg/client"
	"github.com/ArionMiles/voxpense/pkg/config"
	sheetswriter "github.com/ArionMiles/voxpense/pkg/writer/sheets"
)

// setupCommand handles the OAuth setup flow for the Google Sheets writer.
func setupCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("setup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := configFlag(fs)
	force := fs.Bool("force", false, "re-authenticate even if a token exists")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := setupLogger(cfg, stderr)

	fmt.Fprintln(stdout, "=== Voxpense Setup ===")
	fmt.Fprintln(stdout)

	if _, err := os.Stat(cfg.ClientSecretFile); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials file not found: %s\n\nTo get your credentials:\n"+
			"1. Go to https://console.cloud.google.com/apis/credentials\n"+
			"2. Create an OAuth 2.0 Client ID (Desktop application)\n"+
			"3. Download the JSON file and save it as '%s'", cfg.ClientSecretFile, cfg.ClientSecretFile)
	}

	if !*force {
		if _, err := os.Stat(cfg.TokenFile); err == nil {
			fmt.Fprintf(stdout, "Already authenticated! Token file exists: %s\n\n", cfg.TokenFile)
			fmt.Fprintln(stdout, "To re-authenticate, run: voxpense setup -force")
			return nil
		}
	} else {
		if err := os.Remove(cfg.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("failed to remove existing token", "error", err)
		}
		fmt.Fprintln(stdout, "Forcing re-authentication...")
		fmt.Fprintln(stdout)
	}

	fmt.Fprintln(stdout, "Required permissions:")
	fmt.Fprintln(stdout, "  - Sheets: Read and write spreadsheets")
	fmt.Fprintln(stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	creds := cfg.Credentials(sheetswriter.Scope)
	creds.Logger = logger
	if _, err := client.Authorize(ctx, creds); err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "=== Setup Complete ===")
	fmt.Fprintf(stdout, "Token saved to: %s\n\n", cfg.TokenFile)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  1. Set VOXPENSE_WRITER=sheets and VOXPENSE_WRITER_CONFIG (see 'voxpense plugins')")
	fmt.Fprintln(stdout, "  2. Run 'voxpense run' to start recording expenses")
	return nil
}
