package users

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/internal/cli/output"
	"github.com/marmos91/dittodav/pkg/apiclient"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached users",
	Long: `List the users currently held in the gateway's credential cache.

Examples:
  # List users as table
  dittodav users list

  # List as JSON
  dittodav users list -o json`,
	RunE: runList,
}

// now is replaced in tests.
var now = time.Now

// UserList is a list of cached users for table rendering.
type UserList []apiclient.User

// Headers implements TableRenderer.
func (ul UserList) Headers() []string {
	return []string{"NAME", "ID", "ROLES", "AUTHENTICATED"}
}

// Rows implements TableRenderer.
func (ul UserList) Rows() [][]string {
	t := now()
	rows := make([][]string, 0, len(ul))
	for _, u := range ul {
		rows = append(rows, []string{
			u.Name,
			cmdutil.EmptyOr(u.ID, "-"),
			cmdutil.EmptyOr(strings.Join(u.Roles, ", "), "-"),
			output.Age(u.AuthenticatedAt, t),
		})
	}
	return rows
}

func runList(cmd *cobra.Command, args []string) error {
	client, err := cmdutil.GetClient()
	if err != nil {
		return err
	}

	users, err := client.ListUsers(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	return cmdutil.PrintOutput(cmd.OutOrStdout(), users, len(users) == 0, "No cached users.", UserList(users))
}
