package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/internal/cli/output"
	"github.com/marmos91/dittodav/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective dittodav configuration: the file, environment
overrides and defaults merged together.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show the effective config as YAML
  dittodav config show

  # Show as JSON
  dittodav config show --output json`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(cmdutil.Flags.ConfigFile)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
