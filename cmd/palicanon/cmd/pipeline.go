package cmd

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/async"
	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/pipeline"
	"github.com/Aman-CERP/palicanon/internal/ui"
)

func newPipelineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pipeline",
		Short: "Run the data refresh pipeline",
		Long: `The pipeline refreshes all derived data in one pass:

  sync      pull (or clone) the corpus repository
  commit    record the corpus revision
  menus     refresh the navigation menus
  prune     drop locales and files that are not served
  index     rebuild the document index
  backfill  fetch legacy translations missing from the corpus
  bundle    archive the corpus as tar+zstd
  stamp     write version.json

When the corpus is unchanged and an index already exists, the run stops after
the sync stage.`,
	}

	cmd.AddCommand(newPipelineRunCmd())

	return cmd
}

func newPipelineRunCmd() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every pipeline stage in order",
		Long: `Run the pipeline in the foreground. Only one run may mutate the corpus at a
time; a second run fails while the lock in the data directory is held.

The command exits non-zero when any stage fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the run result as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runPipeline(cmd *cobra.Command, jsonOutput, noColor bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	runID := os.Getenv(async.RunIDEnv)
	logger, cleanup, err := setupLogger(cfg, func(level string) logging.Config {
		return logging.WorkerConfig(level, runID != "")
	})
	if err != nil {
		return err
	}
	defer cleanup()

	var opts []pipeline.Option
	if runID != "" {
		id, err := uuid.Parse(runID)
		if err != nil {
			logger.Warn("ignoring malformed run id", slog.String("value", runID))
		} else {
			opts = append(opts, pipeline.WithRunID(id))
		}
	}

	orch, err := pipeline.NewFromConfig(cfg, logger, opts...)
	if err != nil {
		return err
	}

	res, runErr := orch.Run(cmd.Context())
	if jsonOutput {
		if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
			return err
		}
	} else {
		ui.NewRunRenderer(cmd.OutOrStdout(), ui.NoColorFor(cmd.OutOrStdout(), noColor)).Render(res)
	}
	return runErr
}
