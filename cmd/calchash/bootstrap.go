package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/calchash/pkg/calchash/config"
	"github.com/jamesainslie/calchash/pkg/calchash/logging"
	"github.com/jamesainslie/calchash/pkg/calchash/types"
)

// initializeLogging creates the application directories and starts the
// file logger. It runs before every command.
func initializeLogging(_ *cobra.Command, _ []string) error {
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.EnsureDataDir(); err != nil {
		return err
	}
	if err := config.EnsureStateDir(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logging.Init(loggingConfig(cfg, getVerbose())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

// loggingConfig maps the application config onto the logging package.
// Verbose mode mirrors debug output to stderr.
func loggingConfig(cfg *config.Config, verbose bool) logging.Config {
	lc := logging.Config{
		Level:      cfg.Logging.Level,
		Path:       cfg.Logging.Path,
		Rotation:   parseRotationConfig(cfg.Logging.Rotation),
		Components: cfg.Logging.Components,
	}
	if lc.Level == "" {
		lc.Level = config.DefaultLogLevel
	}
	if lc.Path == "" {
		lc.Path = config.DefaultLogPath()
	}
	if verbose {
		lc.ConsoleLevel = "debug"
	}
	return lc
}

// parseRotationConfig converts the config file rotation settings. An empty
// or invalid max_size falls back to the default.
func parseRotationConfig(rc config.RotationConfig) logging.RotationConfig {
	out := logging.RotationConfig{
		MaxSize:    logging.DefaultRotationConfig().MaxSize,
		MaxAge:     rc.MaxAge,
		MaxBackups: rc.MaxBackups,
		Daily:      rc.Daily,
	}
	if rc.MaxSize != "" {
		if size, err := types.ParseSize(rc.MaxSize); err == nil && size > 0 {
			out.MaxSize = size
		}
	}
	return out
}
