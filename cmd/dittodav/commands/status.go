package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a running gateway is ready",
	Long: `Query the admin API readiness probe of a running gateway.

The admin address defaults to localhost on the admin port from the
configuration file. Use --server to check a remote gateway.

Examples:
  # Check the local gateway
  dittodav status

  # Check a remote gateway
  dittodav status --server http://gateway:8080`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&cmdutil.Flags.ServerURL, "server", "", "Admin API URL (default: from configuration)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	if err := client.Health(ctx); err != nil {
		return fmt.Errorf("gateway not ready: %w", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Gateway is ready")
	return nil
}
