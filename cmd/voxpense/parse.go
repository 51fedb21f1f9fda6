package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ArionMiles/voxpense/pkg/api"
	"github.com/ArionMiles/voxpense/pkg/config"
	"github.com/ArionMiles/voxpense/pkg/voice"
)

type parseOutput struct {
	Decision voice.Decision      `json:"decision"`
	Parsed   voice.ParsedExpense `json:"parsed"`
	Expense  *api.Expense        `json:"expense,omitempty"`
}

// parseCommand parses one transcript, taken from the arguments or from stdin
// when none are given, and prints the result.
func parseCommand(args []string, stdout, stderr io.Writer) error {
	return parseFrom(args, os.Stdin, stdout, stderr)
}

func parseFrom(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("parse", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := configFlag(fs)
	currency := fs.String("currency", "", "default currency `code` when none is spoken")
	threshold := fs.Float64("threshold", 0, "auto-save confidence threshold (0 uses the configured one)")
	recordedAt := fs.String("at", "", "recording `time` (RFC 3339 or YYYY-MM-DD) that relative dates resolve against")
	if err := fs.Parse(args); err != nil {
		return err
	}

	transcript := strings.Join(fs.Args(), " ")
	if transcript == "" {
		b, err := io.ReadAll(bufio.NewReader(stdin))
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
		transcript = string(b)
	}
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return errors.New("no transcript given")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *threshold != 0 {
		cfg.ConfidenceThreshold = *threshold
	}
	if *currency != "" {
		cfg.DefaultCurrency = strings.ToUpper(*currency)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	now, err := parseRecordedAt(*recordedAt)
	if err != nil {
		return err
	}

	parsed := newParser(cfg).ParseRequest(voice.Request{Transcript: transcript, Now: now})
	out := parseOutput{
		Decision: parsed.Decide(cfg.ConfidenceThreshold),
		Parsed:   parsed,
	}
	if expense, err := api.FromParsed(parsed, cfg.ConfidenceThreshold, "cli"); err == nil {
		out.Expense = expense
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func parseRecordedAt(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(api.DateLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid -at %q, want RFC 3339 or YYYY-MM-DD", s)
	}
	return t, nil
}
