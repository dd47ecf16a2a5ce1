// Package cli provides the pocket2drive command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/pocket2drive/internal/app"
	"github.com/MrSnakeDoc/pocket2drive/internal/config"
	"github.com/MrSnakeDoc/pocket2drive/internal/logger"
	"github.com/MrSnakeDoc/pocket2drive/internal/version"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "pocket2drive",
	Short: "Append new Pocket saves to a Markdown checklist on OneDrive",
	Long: "pocket2drive reads the items saved to Pocket over the last day, drops the ones it " +
		"already synced, and appends the rest as \"- [ ] <url>\" lines to a file on OneDrive.",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pocket2drive %s (commit=%s, built=%s, go=%s)\n",
			version.Version, version.Commit, version.BuildDate, version.GoVersion)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML file with P2D_* settings (environment wins)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override P2D_LOG_LEVEL")
	rootCmd.AddCommand(versionCmd, serveCmd, syncCmd, refreshCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// loadConfig turns the panics of config.Load into an error for the command.
func loadConfig() (cfg *config.Config, err error) {
	if configFile != "" {
		if err := os.Setenv("P2D_CONFIG_FILE", configFile); err != nil {
			return nil, fmt.Errorf("set config file: %w", err)
		}
	}
	if logLevel != "" {
		if err := os.Setenv("P2D_LOG_LEVEL", logLevel); err != nil {
			return nil, fmt.Errorf("set log level: %w", err)
		}
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("load config: %v", r)
		}
	}()
	return config.Load(), nil
}

// withApp loads the configuration, builds the application and hands it to fn.
func withApp(ctx context.Context, fn func(context.Context, *app.App, logger.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	return fn(ctx, a, log)
}
