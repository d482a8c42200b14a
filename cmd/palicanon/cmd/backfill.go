package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/legacy"
	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/menu"
	"github.com/Aman-CERP/palicanon/internal/output"
	"github.com/Aman-CERP/palicanon/internal/remote"
)

func newBackfillCmd() *cobra.Command {
	var (
		refreshMenus bool
		retry        []string
	)

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Fetch legacy translations missing from the corpus",
		Long: `Compare the leaves of the navigation menus with the index and the legacy
map, and fetch every document that neither covers from the remote service.

Progress is flushed to legacy_map.json every few documents, so an interrupted
backfill resumes where it stopped. Requests are paced by remote.polite_delay.`,
		Example: `  # Backfill using the menus already on disk
  palicanon backfill

  # Refresh the navigation menus first
  palicanon backfill --refresh-menus

  # Refetch specific identifiers, replacing their entries
  palicanon backfill --retry pli-tv-kd1,pli-tv-kd2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackfill(cmd, refreshMenus, retry)
		},
	}

	cmd.Flags().BoolVar(&refreshMenus, "refresh-menus", false, "Refresh navigation menus before backfilling")
	cmd.Flags().StringSliceVar(&retry, "retry", nil, "Refetch these identifiers even if already mapped")

	return cmd
}

func runBackfill(cmd *cobra.Command, refreshMenus bool, retry []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cfg, logging.CommandConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	client, err := remote.NewClientFromConfig(cfg)
	if err != nil {
		return err
	}
	out := output.New(cmd.OutOrStdout())

	if refreshMenus {
		n, err := menu.NewFetcher(client, cfg.MenusDir(), cfg.Remote.MenuDepth).Refresh(cmd.Context())
		if err != nil {
			return err
		}
		out.Successf("Refreshed %d menus", n)
	}

	opts := legacy.OptionsFromConfig(cfg)
	opts.Logger = logger
	b := legacy.NewBackfiller(client, opts)

	var added int
	if len(retry) > 0 {
		added, err = b.Retry(cmd.Context(), retry)
	} else {
		added, err = b.Run(cmd.Context())
	}
	if err != nil {
		if added > 0 {
			out.Warningf("Stopped after %d documents", added)
		}
		return err
	}

	out.Successf("Backfilled %d legacy documents", added)
	out.Statusf("📁", "Legacy map: %s", cfg.LegacyMapPath())
	return nil
}
