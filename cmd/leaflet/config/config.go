// Package configcmder provides the config command for managing persistent
// leaflet configuration stored in the .leaflet/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent leaflet configuration.

Configuration is stored as config.toml in the .leaflet/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values, as do LEAFLET_* environment variables.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.target,
  api.listen, client.api_target,
  vector_store.provider, vector_store.target, vector_store.api_key,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.target, llm.model, llm.api_key,
  events.provider, events.topic

Use subcommands to get, set, or list configuration values:
  leaflet config set <key> <value>    Set a configuration value
  leaflet config get <key>            Get a configuration value
  leaflet config list                 List all configuration values

Examples:
  leaflet config set llm.provider openai
  leaflet config set llm.model gpt-4o-mini
  leaflet config get embedding.model
  leaflet config list`

const configShortDesc string = "Manage persistent leaflet configuration"

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
