package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ninlil/pkg/config"
	"ninlil/pkg/ui"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage ninlil configuration files.

Configuration is loaded from, highest priority first:
  - Command line flags
  - Environment variables (TUMBLR_CONSUMER_KEY, TUMBLR_CONSUMER_SECRET, NINLIL_*)
  - .env files
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Writes every option with its default value to 'ninlil.yaml' in the current
directory, or to the path given with --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Shows the configuration merged from every source. The consumer secret is masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = "ninlil.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file %s already exists, remove it first to overwrite", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.DefaultConfig().Save(configPath); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("✓ Created %s", configPath))
	ui.PrintInfo("Next", "set tumblr.consumer_key and tumblr.consumer_secret, or export TUMBLR_CONSUMER_KEY and TUMBLR_CONSUMER_SECRET")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(masked(cfg))
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(ui.Out, string(out))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(nil)
	if err != nil {
		return err
	}

	if err := cfg.RequireConsumer(); err != nil {
		ui.PrintWarning(err.Error())
	}
	ui.PrintSuccess("✓ Configuration is valid")
	return nil
}

// masked returns a copy of cfg safe to print
func masked(cfg *config.Config) *config.Config {
	clone := *cfg
	if clone.Tumblr.ConsumerSecret != "" {
		clone.Tumblr.ConsumerSecret = "********"
	}
	return &clone
}
