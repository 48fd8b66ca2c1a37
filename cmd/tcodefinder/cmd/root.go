// Package cmd provides the CLI commands for tcodefinder.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/tcodefinder/internal/config"
	"github.com/Aman-CERP/tcodefinder/internal/errors"
	"github.com/Aman-CERP/tcodefinder/internal/logging"
	"github.com/Aman-CERP/tcodefinder/pkg/version"
)

var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
	rootLogger     *slog.Logger
)

// NewRootCmd creates the root command for the tcodefinder CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tcodefinder",
		Short: "Find ERP transaction codes from free-text queries",
		Long: `tcodefinder answers free-text questions like "create purchase order"
with ranked transaction codes, combining catalog search, vector similarity,
and an optional reasoning model for re-ranking and justification.

All model-backed stages degrade gracefully: with nothing but the catalog
configured you still get deterministic lexical ranking.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.SetVersionTemplate("tcodefinder version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.tcodefinder/config.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.tcodefinder/logs/")

	cmd.PersistentPreRunE = setupLogging
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		if loggingCleanup != nil {
			loggingCleanup()
		}
	}

	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCacheCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func setupLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if debugMode {
		logCfg.Level = "debug"
	}
	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		// Logging failure must not block the CLI.
		rootLogger = slog.Default()
		return nil
	}
	rootLogger = logger
	loggingCleanup = cleanup
	return nil
}

// loadConfig resolves the effective configuration for a command run.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.ConfigError("load configuration", err).WithDetail("path", path)
	}
	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
