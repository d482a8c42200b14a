// Package prune trims a corpus working tree down to the locales that are served.
package prune

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/palicanon/internal/config"
)

// Options configures a Pruner.
type Options struct {
	CorpusDir string
	// LocaleTrees maps a top-level tree to the locale directories kept under it.
	LocaleTrees map[string][]string
	// RemovePaths are corpus-relative, slash-separated paths deleted outright.
	RemovePaths []string
	Logger      *slog.Logger
}

// OptionsFromConfig derives pruning rules from the configured facet trees.
// Translation and comment trees keep the served locales; every other facet tree
// keeps the root languages.
func OptionsFromConfig(cfg *config.Config) Options {
	trees := map[string][]string{}
	add := func(tree string, keep []string) {
		top := topSegment(tree)
		if top == "" {
			return
		}
		trees[top] = appendUnique(trees[top], keep...)
	}
	add(cfg.Corpus.TranslationTree, cfg.Pipeline.ServedLocales)
	add(cfg.Corpus.CommentTree, cfg.Pipeline.ServedLocales)
	for _, t := range []string{cfg.Corpus.RootTree, cfg.Corpus.HTMLTree, cfg.Corpus.VariantTree, cfg.Corpus.ReferenceTree} {
		add(t, cfg.Pipeline.RootLanguages)
	}
	return Options{
		CorpusDir:   cfg.Paths.CorpusDir,
		LocaleTrees: trees,
		RemovePaths: cfg.Pipeline.RemovePaths,
	}
}

// Pruner removes unserved locale directories and auxiliary paths.
type Pruner struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Pruner.
func New(opts Options) *Pruner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pruner{opts: opts, logger: logger}
}

// Prune deletes everything the rules exclude and returns the removed paths,
// relative to the corpus and sorted. Trees that do not exist are ignored.
func (p *Pruner) Prune() ([]string, error) {
	var removed []string

	trees := make([]string, 0, len(p.opts.LocaleTrees))
	for t := range p.opts.LocaleTrees {
		trees = append(trees, t)
	}
	sort.Strings(trees)

	for _, tree := range trees {
		keep := map[string]bool{}
		for _, l := range p.opts.LocaleTrees[tree] {
			keep[l] = true
		}
		dir := filepath.Join(p.opts.CorpusDir, tree)
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("read %s: %w", tree, err)
		}
		for _, e := range entries {
			if !e.IsDir() || keep[e.Name()] {
				continue
			}
			if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
				return removed, fmt.Errorf("remove %s/%s: %w", tree, e.Name(), err)
			}
			removed = append(removed, path.Join(tree, e.Name()))
		}
	}

	for _, rel := range p.opts.RemovePaths {
		clean := path.Clean(rel)
		if path.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
			p.logger.Warn("ignoring unsafe remove path", slog.String("path", rel))
			continue
		}
		abs := filepath.Join(p.opts.CorpusDir, filepath.FromSlash(clean))
		if _, err := os.Lstat(abs); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := os.RemoveAll(abs); err != nil {
			return removed, fmt.Errorf("remove %s: %w", clean, err)
		}
		removed = append(removed, clean)
	}

	sort.Strings(removed)
	p.logger.Info("corpus pruned", slog.Int("removed", len(removed)))
	return removed, nil
}

func topSegment(tree string) string {
	tree = strings.Trim(path.Clean(filepath.ToSlash(tree)), "/")
	if tree == "." || tree == "" {
		return ""
	}
	if i := strings.IndexByte(tree, '/'); i >= 0 {
		return tree[:i]
	}
	return tree
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		found := false
		for _, d := range dst {
			if d == v {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, v)
		}
	}
	return dst
}
