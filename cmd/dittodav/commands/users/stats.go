package users

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/internal/cli/output"
	"github.com/marmos91/dittodav/pkg/apiclient"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show credential cache counters",
	RunE:  runStats,
}

// statsView renders Stats as a single-row table.
type statsView apiclient.Stats

// Headers implements TableRenderer.
func (s statsView) Headers() []string {
	return []string{"SIZE", "HITS", "MISSES", "REJECTIONS", "REMOTE CALLS", "EVICTIONS", "EXPIRATIONS"}
}

// Rows implements TableRenderer.
func (s statsView) Rows() [][]string {
	u := func(n uint64) string { return strconv.FormatUint(n, 10) }
	return [][]string{{
		strconv.Itoa(s.Size), u(s.Hits), u(s.Misses), u(s.Rejections),
		u(s.RemoteCalls), u(s.Evictions), u(s.Expirations),
	}}
}

var _ output.TableRenderer = statsView{}

func runStats(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	stats, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), stats, false, "", statsView(*stats))
}
