// Package users implements credential cache commands against a running
// gateway's admin API.
package users

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
)

// Cmd is the parent command for cached user management.
var Cmd = &cobra.Command{
	Use:   "users",
	Short: "Inspect and evict cached users",
	Long: `Inspect the gateway's credential cache.

A user is cached after their first successful login. Evicting a user
forces the next request to be verified against the identity service
again, e.g. after a password change or a role update.

The admin address and token default to the admin section of the
configuration file.

Examples:
  # List cached users
  dittodav users list

  # Evict one user
  dittodav users evict alice

  # Evict everybody
  dittodav users evict --all

  # Show cache counters of a remote gateway
  dittodav users stats --server http://gateway:8080 --token secret`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&cmdutil.Flags.ServerURL, "server", "", "Admin API URL (default: from configuration)")
	Cmd.PersistentFlags().StringVar(&cmdutil.Flags.Token, "token", "", "Admin API token (default: from configuration)")
	Cmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")
	Cmd.PersistentFlags().BoolVar(&cmdutil.Flags.NoColor, "no-color", false, "Disable colored output")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(evictCmd)
	Cmd.AddCommand(statsCmd)
}
