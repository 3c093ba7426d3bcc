package cli

import (
	"github.com/spf13/cobra"

	"mm-replacer/config"
)

// addGlobalFlags adds persistent flags shared by every subcommand.
func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().String("config", "mm-replacer.yaml", "Path to the YAML config file")
	cmd.PersistentFlags().String("data", "", "Path to the local state file (overrides config)")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

// loadConfig reads the config file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if data, _ := cmd.Root().PersistentFlags().GetString("data"); data != "" {
		cfg.DataFile = data
	}
	if lvl, _ := cmd.Root().PersistentFlags().GetString("log-level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, cfg.Validate()
}
