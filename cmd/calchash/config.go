package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/calchash/pkg/calchash/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `Manage calchash configuration settings.

Configuration is loaded from:
  1. $XDG_CONFIG_HOME/calchash/config.yaml (if set)
  2. ~/.config/calchash/config.yaml

Environment variables can override config file settings using the CALCHASH_ prefix:
  CALCHASH_WORKERS=4
  CALCHASH_OUTPUT_FORMAT=json
  CALCHASH_EXCLUDE=/tmp,/var/cache`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration settings from all sources.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create default configuration file",
	Long:  `Create a default configuration file if one doesn't exist.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Long:  `Display the path to the configuration file.`,
	RunE:  runConfigPath,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// envOverrides lists the environment variables shown by config show.
var envOverrides = []string{
	"CALCHASH_DEFAULT_PATH",
	"CALCHASH_EXCLUDE",
	"CALCHASH_WORKERS",
	"CALCHASH_OPEN_VIEWER",
	"CALCHASH_OUTPUT_PATH",
	"CALCHASH_OUTPUT_FORMAT",
	"CALCHASH_OUTPUT_TEMPLATE",
	"CALCHASH_HISTORY_ENABLED",
	"CALCHASH_HISTORY_PATH",
	"CALCHASH_LOGGING_LEVEL",
	"CALCHASH_LOGGING_PATH",
}

// runConfigShow displays the current configuration.
func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	out := cmd.OutOrStdout()

	if configFile := viper.ConfigFileUsed(); configFile != "" {
		fmt.Fprintf(out, "Config file: %s\n\n", configFile)
	} else {
		fmt.Fprintln(out, "Config file: (using defaults, no file found)")
		fmt.Fprintln(out)
	}

	outPath, err := cfg.OutputPath()
	if err != nil {
		outPath = fmt.Sprintf("(unresolved: %v)", err)
	}

	fmt.Fprintln(out, "Current Configuration:")
	fmt.Fprintln(out, "----------------------")
	fmt.Fprintf(out, "default_path:         %s\n", cfg.DefaultPath)
	fmt.Fprintf(out, "exclude:              %v\n", cfg.Exclude)
	fmt.Fprintf(out, "workers:              %s\n", workersLabel(cfg.Workers))
	fmt.Fprintf(out, "open_viewer:          %t\n", cfg.OpenViewer)
	fmt.Fprintf(out, "output.path:          %s\n", outPath)
	fmt.Fprintf(out, "output.format:        %s\n", cfg.Output.Format)
	fmt.Fprintf(out, "output.template:      %s\n", cfg.Output.Template)
	fmt.Fprintf(out, "history.enabled:      %t\n", cfg.History.Enabled)
	fmt.Fprintf(out, "history.path:         %s\n", cfg.HistoryPath())
	fmt.Fprintf(out, "logging.level:        %s\n", cfg.Logging.Level)

	components := make([]string, 0, len(cfg.Logging.Components))
	for name := range cfg.Logging.Components {
		components = append(components, name)
	}
	sort.Strings(components)
	for _, name := range components {
		fmt.Fprintf(out, "logging.components.%-8s %s\n", name+":", cfg.Logging.Components[name])
	}

	fmt.Fprintln(out, "\nEnvironment Overrides:")
	fmt.Fprintln(out, "----------------------")
	anyOverrides := false
	for _, name := range envOverrides {
		if val := os.Getenv(name); val != "" {
			fmt.Fprintf(out, "%s=%s\n", name, val)
			anyOverrides = true
		}
	}
	if !anyOverrides {
		fmt.Fprintln(out, "(none)")
	}

	return nil
}

func workersLabel(n int) string {
	if n <= 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

// runConfigInit creates a default config file.
func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		printInfo("Config file already exists: %s", configPath)
		return nil
	}

	if _, err := config.WriteDefault(); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}

	printInfo("Created default config file: %s", configPath)
	return nil
}

// runConfigPath shows the config file path.
func runConfigPath(cmd *cobra.Command, args []string) error {
	configPath, err := config.ConfigFile()
	if err != nil {
		return fmt.Errorf("failed to get config file path: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), configPath)

	if _, err := os.Stat(configPath); err == nil {
		printVerbose("File exists")
	} else if os.IsNotExist(err) {
		printVerbose("File does not exist (will use defaults)")
	}

	return nil
}
