package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/nootmuskaat/pm/internal/config"
)

var configCmd = &cobra.Command{
	Use:     "config",
	GroupID: "setup",
	Short:   "Read and write configuration",
	Long: `Read and write pm configuration.

Values come from flags, PM_* environment variables, the nearest
.pm/config.yaml, and $XDG_CONFIG_HOME/pm/config.yaml, in that order.
'pm config set' writes to the project's .pm/config.yaml.`,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the resolved value of a key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		key := args[0]
		value := config.GetString(key)
		if jsonOutput {
			outputJSON(map[string]any{"key": key, "value": value, "set": config.IsSet(key)})
			return
		}
		fmt.Fprintln(stdout, value)
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Write a key to .pm/config.yaml",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		key, value := args[0], args[1]
		if !slices.Contains(config.AllKeys(), key) {
			WarnError("%q is not a known configuration key", key)
		}
		if err := config.SetYamlConfig(key, value); err != nil {
			FatalError("%v", err)
		}
		if jsonOutput {
			outputJSON(map[string]string{"key": key, "value": value})
			return
		}
		fmt.Fprintf(stdout, "Set %s = %s\n", key, value)
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every key with its resolved value",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(config.AllSettings())
			return
		}
		if used := config.ConfigFileUsed(); used != "" {
			fmt.Fprintf(stdout, "# %s\n", used)
		}
		for _, key := range config.AllKeys() {
			value := config.GetString(key)
			if key == "server.password" && value != "" {
				value = "********"
			}
			fmt.Fprintf(stdout, "%s = %s\n", key, value)
		}
	},
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configListCmd)
	rootCmd.AddCommand(configCmd)
}
