package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/palicanon/internal/logging"
	"github.com/Aman-CERP/palicanon/internal/resolver"
)

func newResolveCmd() *cobra.Command {
	var (
		author       string
		legacy       bool
		translations bool
	)

	cmd := &cobra.Command{
		Use:   "resolve <id>",
		Short: "Resolve a document identifier to its facets",
		Long: `Resolve a document identifier against the built index and print the
facet bundle as JSON: root text, the selected translation, HTML template,
comments, variants and references, plus author and publication metadata.

Without --author the primary author is preferred, then the secondary author,
then the first available translation.`,
		Example: `  palicanon resolve dn1
  palicanon resolve mn10 --author brahmali
  palicanon resolve dn1 --translations
  palicanon resolve pli-tv-kd1 --legacy`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, args[0], author, legacy, translations)
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Preferred translation author")
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Resolve the legacy fallback document instead")
	cmd.Flags().BoolVar(&translations, "translations", false, "List available translation authors")
	cmd.MarkFlagsMutuallyExclusive("legacy", "translations")

	return cmd
}

func runResolve(cmd *cobra.Command, id, author string, legacy, translations bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, cleanup, err := setupLogger(cfg, logging.CommandConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	opts := resolver.OptionsFromConfig(cfg)
	opts.Logger = logger
	res, err := resolver.New(opts)
	if err != nil {
		return err
	}

	var v any
	switch {
	case legacy:
		v, err = res.ResolveLegacy(cmd.Context(), id)
	case translations:
		v, err = res.Translations(id)
	default:
		v, err = res.Resolve(cmd.Context(), id, author)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), v)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
