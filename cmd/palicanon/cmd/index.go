package cmd

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/facet"
	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/output"
)

func newIndexCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the document index from the corpus",
		Long: `Walk the root and translation trees of the corpus working tree and
write a fresh index.json to the data directory.

The index is rebuilt from scratch on every run; the previous file is replaced
atomically, so readers never observe a partial index.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output build statistics as JSON")

	return cmd
}

func runIndex(cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cfg, logging.CommandConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	builder := index.NewBuilder(facet.NewLayout(cfg),
		index.WithLogger(logger),
		index.WithSampleID(cfg.Corpus.SampleID))

	res, err := builder.BuildAndSave(cmd.Context(), cfg.IndexPath())
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Stats)
	}

	out := output.New(cmd.OutOrStdout())
	out.Successf("Indexed %d documents in %s", res.Stats.Entries, res.Duration.Round(time.Millisecond))
	out.Counts(map[string]int{
		"with root":        res.Stats.WithRoot,
		"translation only": res.Stats.TranslationOnly,
		"translations":     res.Stats.Translations,
		"authors":          res.Stats.DistinctAuthors,
	})
	if len(res.Skipped) > 0 {
		out.Warningf("%d tree roots were absent", len(res.Skipped))
		out.List("Skipped:", res.Skipped)
	}
	out.Statusf("📁", "Wrote %s", cfg.IndexPath())
	return nil
}
