package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/config"
	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/legacy"
	"github.com/Aman-CERP/palicanon/internal/pipeline"
	"github.com/Aman-CERP/palicanon/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var (
		jsonOutput bool
		noColor    bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of the derived data",
		Long: `Display information about the data directory:
  - Whether a pipeline run currently holds the lock
  - Corpus revision and when the data was produced
  - Index counts
  - Legacy map and menu counts
  - Bundle size`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput, noColor)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput, noColor bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := collectStatus(cfg)
	if err != nil {
		return err
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.NoColorFor(cmd.OutOrStdout(), noColor))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

// collectStatus reads the data directory. Missing files leave their fields
// empty; files that exist but do not parse are errors.
func collectStatus(cfg *config.Config) (ui.StatusInfo, error) {
	info := ui.StatusInfo{DataDir: cfg.Paths.DataDir}

	if _, err := os.Stat(cfg.Paths.DataDir); err == nil {
		held, err := pipeline.NewFileLock(cfg.Paths.DataDir).Held()
		if err != nil {
			return info, err
		}
		info.PipelineRunning = held
	}

	v, err := pipeline.ReadVersion(cfg.VersionPath())
	switch {
	case err == nil:
		info.Version = v
	case !errors.Is(err, fs.ErrNotExist):
		return info, err
	}

	idx, err := index.Load(cfg.IndexPath())
	switch {
	case err == nil:
		stats := idx.Stats()
		info.Index = &stats
	case !errors.Is(err, fs.ErrNotExist):
		return info, err
	}

	m, err := legacy.LoadMap(cfg.LegacyMapPath())
	if err != nil {
		return info, err
	}
	info.LegacyEntries = len(m)

	entries, err := os.ReadDir(cfg.MenusDir())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return info, err
	}
	for _, e := range entries {
		if !e.IsDir() {
			info.Menus++
		}
	}

	if st, err := os.Stat(cfg.BundlePath()); err == nil {
		info.BundleSize = st.Size()
	}

	return info, nil
}
