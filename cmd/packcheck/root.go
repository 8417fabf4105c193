package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/app"
	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/logging"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	packFlag   string
	rootFlag   string
	configFlag string
	debugFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "packcheck",
	Short: "Inspect, verify and search fluorite knowledge packs",
	Long: `packcheck opens a fluorite SQLite knowledge pack read-only and reports on it.

It prints pack statistics, runs consistency checks, and answers hybrid
searches that fuse FTS5 BM25 ranking with embedding similarity using
Reciprocal Rank Fusion. The serve command exposes the same operations over
MCP (stdio) or a JSON HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&packFlag, "pack", "", "path to the pack (overrides FLUORITE_PACK_PATH and config)")
	flags.StringVar(&rootFlag, "root", "", "root directory for pack resolution (overrides FLUORITE_ROOT_DIR)")
	flags.StringVar(&configFlag, "config", "", "config file (default $PACKCHECK_CONFIG or ./packcheck.yaml)")
	flags.BoolVar(&debugFlag, "debug", false, "enable debug logging")
}

// loadConfig reads configuration and resolves the pack path from flags,
// environment and config in that order.
func loadConfig() (*config.Config, string, error) {
	cfg, err := config.LoadOrDefault(configFlag)
	if err != nil {
		return nil, "", err
	}
	if debugFlag {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config: %w", err)
	}
	packPath, err := config.ResolvePackPath(cfg.Pack, packFlag, rootFlag)
	if err != nil {
		return nil, "", err
	}
	return cfg, packPath, nil
}

// openApp loads configuration and opens the pack. Commands get a console
// logger; serve gets the structured server logger.
func openApp(ctx context.Context, serve bool) (*app.App, *config.Config, *zap.Logger, error) {
	cfg, packPath, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	newLogger := logging.NewLogger
	if serve {
		newLogger = logging.NewServerLogger
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	a, err := app.Open(ctx, cfg, packPath, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("failed to open pack %s: %w", packPath, err)
	}
	return a, cfg, logger, nil
}
