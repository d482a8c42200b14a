// Package cmd provides the CLI commands for palicanon.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/config"
	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/profiling"
	"github.com/Aman-CERP/palicanon/pkg/version"
)

// Persistent flags
var (
	projectDir string
	debugMode  bool
	profile    profiling.Options
	session    *profiling.Session
)

// NewRootCmd creates the root command for the palicanon CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "palicanon",
		Short: "Scripture corpus index builder and facet resolver",
		Long: `palicanon keeps a local copy of a segmented scripture corpus up to date,
indexes which documents exist in the original language and in which translations,
and resolves a document identifier to all of its facets.

Legacy translations missing from the corpus are backfilled from the remote
document service. The whole refresh runs as a single pipeline that can also be
triggered from the MCP server.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("palicanon version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&projectDir, "dir", "", "Project root (default: nearest directory with .palicanon.yaml)")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfiling
	cmd.PersistentPostRunE = stopProfiling

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newBackfillCmd())
	cmd.AddCommand(newPipelineCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func startProfiling(_ *cobra.Command, _ []string) error {
	if !profile.Enabled() {
		return nil
	}
	s, err := profiling.Start(profile)
	if err != nil {
		return err
	}
	session = s
	return nil
}

func stopProfiling(_ *cobra.Command, _ []string) error {
	if session == nil {
		return nil
	}
	err := session.Stop()
	session = nil
	return err
}

// Execute runs the root command and prints coded errors for the terminal.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprint(os.Stderr, pcerrors.FormatForCLI(err))
	}
	return err
}

// resolveRoot returns --dir or the nearest project root above the working directory.
func resolveRoot() (string, error) {
	if projectDir != "" {
		return projectDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	root, err := config.FindProjectRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// loadConfig loads the merged configuration for the project root.
func loadConfig() (*config.Config, error) {
	root, err := resolveRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if err != nil {
		return nil, pcerrors.ConfigError("failed to load configuration", err).
			WithSuggestion("Run 'palicanon config show' to inspect the merged settings")
	}
	return cfg, nil
}

// setupLogger builds the command logger from the logging config that forCfg
// returns for the effective level, and installs it as slog's default.
func setupLogger(cfg *config.Config, forCfg func(level string) logging.Config) (*slog.Logger, func(), error) {
	level := cfg.Server.LogLevel
	if debugMode {
		level = "debug"
	}

	logger, cleanup, err := logging.Setup(forCfg(level))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	slog.SetDefault(logger)
	return logger, cleanup, nil
}
