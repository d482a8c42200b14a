// Package menu maintains the local copy of the navigation tree: one JSON document
// per collection, stored flat in a single directory.
package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Aman-CERP/palicanon/internal/scanner"
)

// LeafType is the node_type value of an addressable document.
const LeafType = "leaf"

// Source fetches navigation documents.
type Source interface {
	MenuRoots(ctx context.Context) ([]json.RawMessage, error)
	Menu(ctx context.Context, uid string) (json.RawMessage, error)
}

type node struct {
	UID      string            `json:"uid"`
	NodeType string            `json:"node_type"`
	Children []json.RawMessage `json:"children"`
}

// Fetcher refreshes the menus directory from a Source.
type Fetcher struct {
	source Source
	dir    string
	depth  int
	logger *slog.Logger
}

// NewFetcher creates a Fetcher writing into dir. depth bounds how many levels of
// branch nodes without inline children are fetched individually.
func NewFetcher(source Source, dir string, depth int) *Fetcher {
	if depth < 1 {
		depth = 1
	}
	return &Fetcher{source: source, dir: dir, depth: depth, logger: slog.Default()}
}

// Refresh downloads the navigation tree into a staging directory, flattens it
// and swaps it in place of dir. On any failure dir is left untouched.
func (f *Fetcher) Refresh(ctx context.Context) (int, error) {
	parent := filepath.Dir(f.dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create menus parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".menus-")
	if err != nil {
		return 0, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	roots, err := f.source.MenuRoots(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch menu roots: %w", err)
	}

	count := 0
	for _, raw := range roots {
		var n node
		if err := json.Unmarshal(raw, &n); err != nil || n.UID == "" {
			f.logger.Warn("skipping menu root without uid")
			continue
		}
		written, err := f.fetch(ctx, staging, n.UID, n.UID, 1)
		if err != nil {
			return 0, err
		}
		count += written
	}

	if err := Flatten(staging); err != nil {
		return 0, err
	}

	backup := f.dir + ".old"
	_ = os.RemoveAll(backup)
	if err := os.Rename(f.dir, backup); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("failed to move old menus aside: %w", err)
	}
	if err := os.Rename(staging, f.dir); err != nil {
		_ = os.Rename(backup, f.dir)
		return 0, fmt.Errorf("failed to install menus: %w", err)
	}
	_ = os.RemoveAll(backup)

	f.logger.Info("menus refreshed", slog.Int("documents", count), slog.String("dir", f.dir))
	return count, nil
}

// fetch writes the document for uid under staging/<rel> and descends into branch
// children that the document does not inline.
func (f *Fetcher) fetch(ctx context.Context, staging, rel, uid string, level int) (int, error) {
	doc, err := f.source.Menu(ctx, uid)
	if err != nil {
		return 0, fmt.Errorf("fetch menu %s: %w", uid, err)
	}

	path := filepath.Join(staging, filepath.FromSlash(rel), uid+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return 0, fmt.Errorf("write menu %s: %w", uid, err)
	}
	written := 1

	if level >= f.depth {
		return written, nil
	}
	var n node
	if err := json.Unmarshal(doc, &n); err != nil {
		return written, nil
	}
	for _, raw := range n.Children {
		var child node
		if err := json.Unmarshal(raw, &child); err != nil || child.UID == "" {
			continue
		}
		if child.NodeType == LeafType || len(child.Children) > 0 {
			continue
		}
		sub, err := f.fetch(ctx, staging, rel+"/"+child.UID, child.UID, level+1)
		if err != nil {
			return 0, err
		}
		written += sub
	}
	return written, nil
}

// Flatten moves every JSON document under dir directly into dir and removes the
// directories left empty, deepest first. A name collision keeps the later file.
func Flatten(dir string) error {
	files, err := scanner.Collect(context.Background(), scanner.New(), scanner.ScanOptions{RootDir: dir})
	if err != nil {
		return fmt.Errorf("flatten %s: %w", dir, err)
	}

	for _, file := range files {
		if !strings.Contains(file.Path, "/") {
			continue
		}
		dst := filepath.Join(dir, filepath.Base(file.AbsPath))
		if _, err := os.Stat(dst); err == nil {
			slog.Warn("menu name collision, overwriting", slog.String("file", file.Path))
		}
		if err := os.Rename(file.AbsPath, dst); err != nil {
			return fmt.Errorf("flatten %s: %w", file.Path, err)
		}
	}

	return pruneEmptyDirs(dir)
}

// pruneEmptyDirs removes empty subdirectories of root, deepest first.
func pruneEmptyDirs(root string) error {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != root {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("prune %s: %w", root, err)
	}

	sort.Slice(dirs, func(i, j int) bool {
		return strings.Count(dirs[i], string(filepath.Separator)) > strings.Count(dirs[j], string(filepath.Separator))
	})
	for _, d := range dirs {
		entries, err := os.ReadDir(d)
		if err == nil && len(entries) == 0 {
			_ = os.Remove(d)
		}
	}
	return nil
}

// Leaves returns the sorted union of leaf identifiers across every menu document
// under dir. Documents that do not parse are logged and skipped.
func Leaves(dir string) ([]string, error) {
	files, err := scanner.Collect(context.Background(), scanner.New(), scanner.ScanOptions{RootDir: dir})
	if errors.Is(err, scanner.ErrRootMissing) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, file := range files {
		data, err := os.ReadFile(file.AbsPath)
		if err != nil {
			slog.Warn("menu unreadable", slog.String("file", file.Path), slog.String("error", err.Error()))
			continue
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			slog.Warn("menu malformed", slog.String("file", file.Path), slog.String("error", err.Error()))
			continue
		}
		collectLeaves(doc, seen)
	}

	leaves := make([]string, 0, len(seen))
	for uid := range seen {
		leaves = append(leaves, uid)
	}
	sort.Strings(leaves)
	return leaves, nil
}

func collectLeaves(v any, seen map[string]bool) {
	switch t := v.(type) {
	case map[string]any:
		if nt, _ := t["node_type"].(string); nt == LeafType {
			if uid, _ := t["uid"].(string); uid != "" {
				seen[uid] = true
			}
		}
		for _, child := range t {
			collectLeaves(child, seen)
		}
	case []any:
		for _, child := range t {
			collectLeaves(child, seen)
		}
	}
}
