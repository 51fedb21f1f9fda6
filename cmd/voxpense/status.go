package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ArionMiles/voxpense/internal/plugins"
	"github.com/ArionMiles/voxpense/pkg/client"
	"github.com/ArionMiles/voxpense/pkg/config"
)

// statusCommand checks the configuration, plugin configs and credentials.
// It returns an error when anything would stop 'voxpense run'.
func statusCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := configFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "=== Voxpense Status ===")
	fmt.Fprintln(stdout)

	s := &statusReport{out: stdout, ok: true}
	s.check(*configPath, registry)
	s.printFinal()
	if !s.ok {
		return errors.New("configuration issues detected")
	}
	return nil
}

type statusReport struct {
	out io.Writer
	ok  bool
}

func (s *statusReport) pass(label, format string, args ...any) {
	fmt.Fprintf(s.out, "%s: ✓ %s\n", label, fmt.Sprintf(format, args...))
}

func (s *statusReport) fail(label string, err error) {
	fmt.Fprintf(s.out, "%s: ✗ %v\n", label, err)
	s.ok = false
}

func (s *statusReport) check(configPath string, registry *plugins.Registry) {
	source := "environment"
	if configPath != "" {
		source = configPath
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		s.fail("Config ("+source+")", err)
		return
	}
	s.pass("Config ("+source+")", "loaded (currency %s, threshold %.2f)", cfg.DefaultCurrency, cfg.ConfidenceThreshold)

	if reader, err := registry.GetReader(cfg.ReaderPlugin); err != nil {
		s.fail("Reader", err)
	} else if _, err := plugins.Validate(reader, cfg.ReaderConfig); err != nil {
		s.fail("Reader "+cfg.ReaderPlugin, err)
	} else {
		s.pass("Reader "+cfg.ReaderPlugin, "config valid")
	}

	if writer, err := registry.GetWriter(cfg.WriterPlugin); err != nil {
		s.fail("Writer", err)
	} else if _, err := plugins.Validate(writer, cfg.WriterConfig); err != nil {
		s.fail("Writer "+cfg.WriterPlugin, err)
	} else {
		s.pass("Writer "+cfg.WriterPlugin, "config valid")
	}

	scopes, err := registry.GetAllScopes(cfg.ReaderPlugin, cfg.WriterPlugin)
	if err != nil || len(scopes) == 0 {
		return
	}
	s.checkCredentials(cfg)
}

func (s *statusReport) checkCredentials(cfg config.Config) {
	label := fmt.Sprintf("Credentials file (%s)", cfg.ClientSecretFile)
	if _, err := os.Stat(cfg.ClientSecretFile); err != nil {
		s.fail(label, errors.New("not found"))
	} else {
		s.pass(label, "found")
	}

	label = fmt.Sprintf("OAuth token (%s)", cfg.TokenFile)
	token, err := client.TokenFromFile(cfg.TokenFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.fail(label, errors.New("not found (run 'voxpense setup')"))
	case err != nil:
		s.fail(label, err)
	case !token.Expiry.IsZero() && token.Expiry.Before(time.Now()):
		fmt.Fprintf(s.out, "%s: ⚠ expired (will refresh on next run)\n", label)
	default:
		s.pass(label, "valid")
	}
}

func (s *statusReport) printFinal() {
	fmt.Fprintln(s.out)
	if s.ok {
		fmt.Fprintln(s.out, "Status: ✓ Ready to run")
		fmt.Fprintln(s.out, "Run 'voxpense run' to start recording expenses.")
		return
	}
	fmt.Fprintln(s.out, "Status: ✗ Configuration issues detected")
	fmt.Fprintln(s.out, "Fix the issues above, then run 'voxpense status' again.")
}
