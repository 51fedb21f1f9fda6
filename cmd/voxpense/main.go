// Command voxpense turns spoken expense commands into saved expenses.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ArionMiles/voxpense/internal/plugins"
	assistantplugin "github.com/ArionMiles/voxpense/pkg/plugins/readers/assistant"
	inboxplugin "github.com/ArionMiles/voxpense/pkg/plugins/readers/inbox"
	csvplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/csv"
	jsonplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/json"
	postgresplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/postgres"
	sheetsplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/sheets"
	sqliteplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/sqlite"
	xlsxplugin "github.com/ArionMiles/voxpense/pkg/plugins/writers/xlsx"
)

const usage = `Usage: voxpense <command> [flags]

Commands:
  run       Start the daemon (reader -> parser -> writer)
  parse     Parse a single transcript and print the result as JSON
  setup     Authorize access to Google Sheets
  status    Check configuration and credentials
  plugins   List available readers and writers

Run 'voxpense <command> -h' for command flags.
`

var errUsage = errors.New("usage")

func main() {
	if err := dispatch(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) && !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "voxpense: %v\n", err)
		}
		os.Exit(1)
	}
}

func dispatch(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "run":
		return runCommand(rest, stderr)
	case "parse":
		return parseCommand(rest, stdout, stderr)
	case "setup":
		return setupCommand(rest, stdout, stderr)
	case "status":
		return statusCommand(rest, stdout, stderr)
	case "plugins":
		return pluginsCommand(rest, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return errUsage
	}
}

// newRegistry registers every built-in reader and writer.
func newRegistry() (*plugins.Registry, error) {
	registry := plugins.NewRegistry()

	readers := []plugins.ReaderPlugin{
		&inboxplugin.Plugin{},
		&assistantplugin.Plugin{},
	}
	for _, p := range readers {
		if err := registry.RegisterReader(p); err != nil {
			return nil, fmt.Errorf("registering %s reader: %w", p.Name(), err)
		}
	}

	writers := []plugins.WriterPlugin{
		&csvplugin.Plugin{},
		&jsonplugin.Plugin{},
		&sqliteplugin.Plugin{},
		&xlsxplugin.Plugin{},
		&postgresplugin.Plugin{},
		&sheetsplugin.Plugin{},
	}
	for _, p := range writers {
		if err := registry.RegisterWriter(p); err != nil {
			return nil, fmt.Errorf("registering %s writer: %w", p.Name(), err)
		}
	}
	return registry, nil
}

// configFlag registers the shared -config flag. VOXPENSE_CONFIG supplies the
// default.
func configFlag(fs *flag.FlagSet) *string {
	return fs.String("config", os.Getenv("VOXPENSE_CONFIG"), "path to a JSON config `file` (environment variables override it)")
}
