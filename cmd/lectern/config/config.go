// Package configcmder provides the config command for managing persistent
// lectern configuration stored in the .lectern/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent lectern configuration.

Configuration is stored as config.toml in the .lectern/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  client.api_target,
  chat.namespace, chat.agent, chat.mode, chat.k,
  eventstream.provider, eventstream.brokers, eventstream.topic,
  replay.listen, replay.delay_ms

Use subcommands to get, set, or list configuration values:
  lectern config set <key> <value>    Set a configuration value
  lectern config get <key>            Get a configuration value
  lectern config list                 List all configuration values

Examples:
  lectern config set client.api_target http://localhost:8000
  lectern config set chat.namespace biology-101
  lectern config get chat.k
  lectern config list`

const configShortDesc string = "Manage persistent lectern configuration"

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
