package users

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/pkg/apiclient"
)

var evictAll bool

var evictCmd = &cobra.Command{
	Use:   "evict [name]",
	Short: "Evict cached users",
	Long: `Drop users from the credential cache. Their next request is verified
against the identity service again.

Examples:
  # Evict one user
  dittodav users evict alice

  # Evict everybody
  dittodav users evict --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if evictAll {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(1)(cmd, args)
	},
	RunE: runEvict,
}

func init() {
	evictCmd.Flags().BoolVar(&evictAll, "all", false, "Evict every cached user")
}

func runEvict(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	if evictAll {
		n, err := client.EvictAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to evict users: %w", err)
		}
		cmdutil.PrintSuccess(fmt.Sprintf("Evicted %d cached user(s)", n))
		return nil
	}

	name := args[0]
	if err := client.EvictUser(cmd.Context(), name); err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("user %q is not cached", name)
		}
		return fmt.Errorf("failed to evict user: %w", err)
	}
	cmdutil.PrintSuccess(fmt.Sprintf("Evicted %s", name))
	return nil
}
