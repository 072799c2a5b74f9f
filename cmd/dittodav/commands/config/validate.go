package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the dittodav configuration file.

Checks for syntax errors, missing required fields, and invalid values.
The probe documents are loaded as well, so a broken capabilities or
config file is reported here rather than at startup.

Examples:
  # Validate default config
  dittodav config validate

  # Validate specific config file
  dittodav config validate --config /etc/dittodav/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath := cmdutil.Flags.ConfigFile

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}
	if _, err := cfg.Compat.Documents(cfg.Server.Root); err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := warningsFor(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  WebDAV port:     %d\n", cfg.Server.Port)
	_, _ = fmt.Fprintf(out, "  WebDAV root:     %s\n", cfg.Server.Root)
	_, _ = fmt.Fprintf(out, "  Identity:        %s\n", cfg.Identity.BaseURL)
	_, _ = fmt.Fprintf(out, "  Mounts:          %d\n", len(cfg.Mounts))
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}

func warningsFor(cfg *config.Config) []string {
	var warnings []string
	if cfg.Admin.IsEnabled() && cfg.Admin.Token == "" {
		warnings = append(warnings, "admin.token not set - the admin API accepts unauthenticated requests")
	}
	if cfg.Auth.TTL == 0 {
		warnings = append(warnings, "auth.ttl is 0 - cached logins are trusted until evicted or the gateway restarts")
	}
	if !cfg.Audit.IsEnabled() {
		warnings = append(warnings, "audit disabled - requests are not recorded")
	}
	return warnings
}
