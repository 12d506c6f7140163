package cli

import (
	"os"

	"github.com/spf13/cobra"

	"walletstats/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "walletstats",
	Short: "Month-over-month spending and income statistics for wallet ledgers",
	Long: `walletstats compares a user's current calendar month with the previous one:
total spent, total income, net savings, transaction count and the top spending
categories. Configuration comes from the environment, an optional .env file and
an optional TOML file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			return os.Setenv(config.FileEnvVar, path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a TOML config file (overrides "+config.FileEnvVar+")")
}

// Execute runs the command named by the process arguments.
func Execute() error {
	return rootCmd.Execute()
}
