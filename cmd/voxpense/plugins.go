package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/ArionMiles/voxpense/internal/plugins"
)

// pluginsCommand lists registered readers and writers, with their config
// schemas when -schema is set.
func pluginsCommand(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("plugins", flag.ContinueOnError)
	fs.SetOutput(stderr)
	schema := fs.Bool("schema", false, "print each plugin's config schema")
	if err := fs.Parse(args); err != nil {
		return err
	}

	registry, err := newRegistry()
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Readers:")
	for _, p := range registry.ListReaders() {
		if err := printPlugin(stdout, p, *schema); err != nil {
			return err
		}
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Writers:")
	for _, p := range registry.ListWriters() {
		if err := printPlugin(stdout, p, *schema); err != nil {
			return err
		}
	}
	return nil
}

func printPlugin(w io.Writer, p plugins.Plugin, withSchema bool) error {
	fmt.Fprintf(w, "  %-10s %s\n", p.Name(), p.Description())
	if scopes := p.RequiredScopes(); len(scopes) > 0 {
		fmt.Fprintf(w, "  %-10s scopes: %s\n", "", strings.Join(scopes, ", "))
	}
	if !withSchema {
		return nil
	}
	b, err := json.MarshalIndent(p.ConfigSchema(), "    ", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s schema: %w", p.Name(), err)
	}
	fmt.Fprintf(w, "    %s\n", b)
	return nil
}
