package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Aman-CERP/palicanon/internal/facet"
	"github.com/Aman-CERP/palicanon/internal/scanner"
)

// Builder walks the root and translation trees and produces a fresh Index.
type Builder struct {
	layout   facet.Layout
	scanner  *scanner.Scanner
	logger   *slog.Logger
	sampleID string
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// WithSampleID logs the entry for id after each build.
func WithSampleID(id string) BuilderOption {
	return func(b *Builder) { b.sampleID = id }
}

// NewBuilder creates a Builder over layout.
func NewBuilder(layout facet.Layout, opts ...BuilderOption) *Builder {
	b := &Builder{
		layout:  layout,
		scanner: scanner.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result summarizes a build.
type Result struct {
	Index    Index
	Stats    Stats
	Skipped  []string // Tree roots that were absent
	Duration time.Duration
}

// Build walks both trees and returns the new index. An absent tree root is
// skipped with a warning; any other walk failure is returned.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	idx := Index{}
	res := &Result{}

	rootDir := b.layout.RootDir()
	if err := b.walkRoots(ctx, rootDir, idx); err != nil {
		if !errors.Is(err, scanner.ErrRootMissing) {
			return nil, err
		}
		b.logger.Warn("root tree missing, skipping", slog.String("dir", rootDir))
		res.Skipped = append(res.Skipped, rootDir)
	}

	langDir := b.layout.TranslationLangDir()
	authors, err := listAuthors(langDir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		b.logger.Warn("translation tree missing, skipping", slog.String("dir", langDir))
		res.Skipped = append(res.Skipped, langDir)
	case err != nil:
		return nil, fmt.Errorf("failed to list translation authors: %w", err)
	}
	for _, author := range authors {
		if err := b.walkTranslations(ctx, author, idx); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("index build interrupted: %w", err)
	}

	idx.prune()
	res.Index = idx
	res.Stats = idx.Stats()
	res.Duration = time.Since(start)

	b.logger.Info("index built",
		slog.Int("entries", res.Stats.Entries),
		slog.Int("with_root", res.Stats.WithRoot),
		slog.Int("translation_only", res.Stats.TranslationOnly),
		slog.Int("authors", res.Stats.DistinctAuthors),
		slog.Duration("duration", res.Duration))
	b.logSample(idx)

	return res, nil
}

func (b *Builder) walkRoots(ctx context.Context, dir string, idx Index) error {
	files, err := scanner.Collect(ctx, b.scanner, scanner.ScanOptions{
		RootDir: dir,
		Match:   isRootFile,
	})
	if err != nil {
		return fmt.Errorf("root walk: %w", err)
	}
	for _, f := range files {
		rp, _ := facet.ParseRoot(f.Path)
		idx.entry(rp.ID).Root = rp.String()
	}
	return nil
}

func (b *Builder) walkTranslations(ctx context.Context, author string, idx Index) error {
	files, err := scanner.Collect(ctx, b.scanner, scanner.ScanOptions{
		RootDir: b.layout.TranslationDir(author),
		Match:   isTranslationFile,
	})
	if err != nil {
		return fmt.Errorf("translation walk for %s: %w", author, err)
	}
	for _, f := range files {
		tp, _ := facet.ParseTranslation(f.Path)
		// Translation-only identifiers get a partial entry rather than being dropped.
		idx.entry(tp.ID).Translations[author] = tp.String()
	}
	return nil
}

func (b *Builder) logSample(idx Index) {
	if b.sampleID == "" {
		return
	}
	e, ok := idx.Get(b.sampleID)
	if !ok {
		b.logger.Debug("index sample absent", slog.String("id", b.sampleID))
		return
	}
	b.logger.Debug("index sample",
		slog.String("id", b.sampleID),
		slog.String("root", e.Root),
		slog.Any("translations", e.Translations))
}

func isRootFile(rel string) bool {
	_, ok := facet.ParseRoot(rel)
	return ok
}

func isTranslationFile(rel string) bool {
	_, ok := facet.ParseTranslation(rel)
	return ok
}

// listAuthors returns the visible subdirectories of the translation language dir.
func listAuthors(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var authors []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			authors = append(authors, e.Name())
		}
	}
	return authors, nil
}

// BuildAndSave builds the index and writes it to path.
func (b *Builder) BuildAndSave(ctx context.Context, path string) (*Result, error) {
	res, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := Save(path, res.Index); err != nil {
		return nil, err
	}
	return res, nil
}
