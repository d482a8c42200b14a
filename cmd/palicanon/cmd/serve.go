package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/palicanon/internal/async"
	"github.com/Aman-CERP/palicanon/internal/config"
	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/mcp"
	"github.com/Aman-CERP/palicanon/internal/resolver"
	"github.com/Aman-CERP/palicanon/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var (
		transport  string
		noPipeline bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP server over stdio. Stdout carries JSON-RPC only; logs go
to the log file.

The server answers resolve, translations and legacy queries from the data
directory and reloads whenever the index or the legacy map is rewritten.
pipeline_trigger starts 'palicanon pipeline run' as a child process and
pipeline_status reports its state and captured output.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), transport, !noPipeline)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio)")
	cmd.Flags().BoolVar(&noPipeline, "no-pipeline", false, "Disable the pipeline tools")

	return cmd
}

func runServe(ctx context.Context, transport string, withPipeline bool) error {
	root, err := resolveRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cfg, logging.ServeConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := resolver.OptionsFromConfig(cfg)
	opts.Logger = logger
	res, err := resolver.New(opts)
	if err != nil {
		return err
	}

	var controller *async.Controller
	if withPipeline {
		controller, err = newController(root, logger)
		if err != nil {
			return err
		}
	}

	w, err := watcher.New(cfg.Paths.DataDir, watcher.Options{
		DebounceWindow: cfg.WatchDebounce(),
		Names:          reloadNames(cfg),
		Logger:         logger,
	})
	if err != nil {
		return err
	}

	server, err := newMCPServer(res, controller, logger)
	if err != nil {
		_ = w.Stop()
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, watcher.ReloadOnChange(res, logger))
	})
	g.Go(func() error {
		defer stop()
		return server.Serve(gctx, transport)
	})

	err = g.Wait()
	if controller != nil && controller.Running() {
		logger.Info("waiting for pipeline run to finish")
		controller.Wait()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// newMCPServer keeps a nil controller from becoming a non-nil interface.
func newMCPServer(res *resolver.Resolver, controller *async.Controller, logger *slog.Logger) (*mcp.Server, error) {
	if controller == nil {
		return mcp.NewServer(res, nil, logger)
	}
	return mcp.NewServer(res, controller, logger)
}

func newController(root string, logger *slog.Logger) (*async.Controller, error) {
	launcher, err := async.SelfLauncher("pipeline", "run", "--dir", root)
	if err != nil {
		return nil, err
	}
	launcher.Dir = root
	return async.NewController(launcher, logger), nil
}

// reloadNames lists the data files whose replacement reloads the resolver.
func reloadNames(cfg *config.Config) []string {
	return []string{
		filepath.Base(cfg.IndexPath()),
		filepath.Base(cfg.LegacyMapPath()),
	}
}
