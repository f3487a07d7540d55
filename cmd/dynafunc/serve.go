package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"dynafunc/internal/bench"
	"dynafunc/internal/browser"
	"dynafunc/internal/config"
	"dynafunc/internal/metrics"
	"dynafunc/internal/protocol"
	"dynafunc/internal/tool"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve tools/list and tools/call over stdin/stdout",
		Long:  "Runs the JSON-RPC tool server on standard input/output. Tool audit rows are persisted to the bench database.",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := bench.NewSQLiteStore(cfg.Bench.DBPath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	manager := buildManager(cfg)
	manager.SetRecorder(store)

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr)
	}

	adapter := protocol.NewAdapter(manager, cfg.Tools.Dirs, nil, logger)
	server := protocol.NewServer(adapter, protocol.ServerInfo{Name: "dynafunc", Version: version},
		os.Stdin, os.Stdout, logger)

	logger.Info("serving tool protocol on stdio", "dirs", cfg.Tools.Dirs)
	return server.Run(ctx)
}

// buildManager registers the built-in tools and returns the manager.
// Manifest-directory discovery happens later, at adapter initialization.
func buildManager(cfg *config.Config) *tool.Manager {
	registry := tool.NewRegistry(logger)

	registry.Register(tool.NewShellTool(tool.ShellConfig{
		WorkingDir:     cfg.General.Workspace,
		TimeoutSeconds: cfg.Tools.Shell.Timeout,
		MaxOutputBytes: cfg.Tools.Shell.MaxOutputBytes,
	}))
	registry.Register(tool.NewReadFileTool(cfg.General.Workspace))
	registry.Register(tool.NewWriteFileTool(cfg.General.Workspace))
	registry.Register(tool.NewSysInfoTool())
	registry.Register(tool.NewWebSearchTool())

	if cfg.Tools.Render.Enabled {
		bridge := browser.NewBridge(browser.BridgeConfig{
			ProfileDir: cfg.Tools.Render.ProfileDir,
			Headless:   cfg.Tools.Render.Headless,
			Logger:     logger,
		})
		registry.Register(tool.NewRenderTool(bridge))
	}

	return tool.NewManager(registry, logger)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", metrics.Collector.Handler())
	logger.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", "err", err)
	}
}
