// Package configcmder provides the config command for managing persistent
// docuwatch configuration stored in the .docuwatch/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent docuwatch configuration.

Configuration is stored as config.toml in the .docuwatch/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  server.target, server.timeout_seconds,
  stream.disable,
  poll.interval_seconds, poll.max_attempts,
  history.sqlite_path

Use subcommands to get, set, or list configuration values:
  docuwatch config set <key> <value>    Set a configuration value
  docuwatch config get <key>            Get a configuration value
  docuwatch config list                 List all configuration values

Examples:
  docuwatch config set server.target http://localhost:8000
  docuwatch config set poll.interval_seconds 5
  docuwatch config get server.target
  docuwatch config list`

const configShortDesc string = "Manage persistent docuwatch configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
