// Package commands implements the dittodav command line.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/cmd/dittodav/commands/config"
	"github.com/marmos91/dittodav/cmd/dittodav/commands/users"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dittodav",
	Short: "dittodav - WebDAV gateway for school cloud storage",
	Long: `dittodav serves school cloud storage to desktop and mobile WebDAV
clients. Users log in with their school cloud credentials; the gateway
verifies them against the identity service, caches the result and exposes
the configured mounts under a single WebDAV root.

Use "dittodav [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cmdutil.Flags.ConfigFile, "config", "", "config file (default: $XDG_CONFIG_HOME/dittodav/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(users.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cmdutil.Flags.ConfigFile
}
