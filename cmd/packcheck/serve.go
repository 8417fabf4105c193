package main

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/packcheck/internal/config"
	"github.com/dshills/packcheck/internal/mcp"
	"github.com/dshills/packcheck/internal/packwatch"
	"github.com/dshills/packcheck/internal/server"
	"github.com/dshills/packcheck/internal/storage"
)

// httpFromConfig is the --http value when the flag is given without an address.
const httpFromConfig = "config"

const shutdownTimeout = 5 * time.Second

var (
	serveHTTP  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the pack over MCP or HTTP",
	Long: `Starts an MCP server on stdio exposing the pack_info, search_pack and
verify_pack tools. With --http, serves a JSON API instead:

  GET  /health
  GET  /api/v1/info
  POST /api/v1/search   {"query": "...", "top": 5, "fts_only": false}
  GET  /api/v1/verify

With --watch the pack is reopened whenever its file is rewritten.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "serve the JSON API on ADDR (host:port); bare --http uses the configured address")
	serveCmd.Flags().Lookup("http").NoOptDefVal = httpFromConfig
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the pack when the file changes")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, cfg, logger, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() {
		_ = a.Close()
		_ = logger.Sync()
	}()

	if serveWatch {
		w := packwatch.New(a.PackPath(), a.Reload, packwatch.WithLogger(logger))
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("failed to watch pack: %w", err)
		}
		defer w.Stop()
	}

	logger.Info("packcheck starting",
		zap.String("version", version),
		zap.String("pack", a.PackPath()),
		zap.String("provider", a.ProviderName()),
		zap.String("build_mode", storage.BuildMode))

	if serveHTTP == "" {
		return mcp.NewServer(a,
			mcp.WithLogger(logger),
			mcp.WithDefaultTop(cfg.Search.DefaultTop),
		).Serve(ctx)
	}

	srvCfg, err := httpConfig(cfg.Server, serveHTTP)
	if err != nil {
		return err
	}
	srv := server.NewServer(a, srvCfg, cfg.Search.DefaultTop, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

// httpConfig returns the listen address for --http: the configured one, or
// the host:port given on the command line.
func httpConfig(base config.ServerConfig, addr string) (config.ServerConfig, error) {
	if addr == httpFromConfig {
		return base, nil
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return config.ServerConfig{}, fmt.Errorf("invalid --http address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return config.ServerConfig{}, fmt.Errorf("invalid --http port %q", portStr)
	}
	return config.ServerConfig{Host: host, Port: port}, nil
}
