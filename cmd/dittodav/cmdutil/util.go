// Package cmdutil provides shared utilities for dittodav commands.
package cmdutil

import (
	"fmt"
	"io"
	"os"

	"github.com/marmos91/dittodav/internal/cli/output"
	"github.com/marmos91/dittodav/pkg/apiclient"
	"github.com/marmos91/dittodav/pkg/config"
)

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ConfigFile string
	ServerURL  string
	Token      string
	Output     string
	NoColor    bool
}

// GetClient returns an admin API client. --server and --token win; anything
// not given on the command line is taken from the admin section of the
// configuration file.
func GetClient() (*apiclient.Client, error) {
	url, token := Flags.ServerURL, Flags.Token
	if url == "" || token == "" {
		cfg, err := config.Load(Flags.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		if url == "" {
			url = AdminURL(cfg)
		}
		if token == "" {
			token = cfg.Admin.Token
		}
	}
	return apiclient.New(url).WithToken(token), nil
}

// AdminURL is the local admin API address for cfg.
func AdminURL(cfg *config.Config) string {
	return fmt.Sprintf("http://localhost:%d", cfg.Admin.Port)
}

// GetOutputFormatParsed returns the parsed output format.
func GetOutputFormatParsed() (output.Format, error) {
	return output.ParseFormat(Flags.Output)
}

// PrintOutput prints data in the selected format (JSON, YAML, or table).
// For table format, it displays emptyMsg if data is empty, otherwise uses the tableRenderer.
func PrintOutput(w io.Writer, data any, isEmpty bool, emptyMsg string, tableRenderer output.TableRenderer) error {
	format, err := GetOutputFormatParsed()
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(w, data)
	case output.FormatYAML:
		return output.PrintYAML(w, data)
	default:
		if isEmpty {
			_, _ = fmt.Fprintln(w, emptyMsg)
			return nil
		}
		return output.PrintTable(w, tableRenderer)
	}
}

// PrintSuccess prints a success message if the output format is table.
func PrintSuccess(msg string) {
	format, err := GetOutputFormatParsed()
	if err != nil || format != output.FormatTable {
		return
	}
	printer := output.NewPrinter(os.Stdout, format, !Flags.NoColor)
	printer.Success(msg)
}

// EmptyOr returns value, or fallback if value is empty.
func EmptyOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
