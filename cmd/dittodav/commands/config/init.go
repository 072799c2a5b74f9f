package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittodav/cmd/dittodav/cmdutil"
	"github.com/marmos91/dittodav/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to a file.

Without --config the file is created at $XDG_CONFIG_HOME/dittodav/config.yaml.
An existing file is kept unless --force is given.

Examples:
  # Create the default configuration
  dittodav config init

  # Create it somewhere else, replacing any existing file
  dittodav config init --config /etc/dittodav/config.yaml --force`,
	RunE: runConfigInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing configuration file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := cmdutil.Flags.ConfigFile
	if path == "" {
		var err error
		if path, err = config.InitConfig(initForce); err != nil {
			return err
		}
	} else if err := config.InitConfigToPath(path, initForce); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}
