package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shockz09/uni-cli-sub002/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a default configuration file.

The file goes to the resolved config location, honoring --config and
UNICLI_CONFIG. An existing file is never overwritten; edit it in place
or move it aside first.`,
	Args: cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		path := getConfigPath(flagConfigPath)
		if path == "" {
			return fmt.Errorf("no config path available; pass one with --config")
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s", path)
		}

		if err := config.DefaultConfig().SaveConfig(path); err != nil {
			return fmt.Errorf("could not write config file: %w", err)
		}

		fmt.Printf("Wrote default configuration to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
}
