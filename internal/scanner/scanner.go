package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Scanner discovers documents in a facet tree.
type Scanner struct{}

// New creates a new Scanner.
func New() *Scanner {
	return &Scanner{}
}

// Scan walks opts.RootDir and streams matching files. The channel is closed when
// the walk completes; a walk error is delivered as the final result.
func (s *Scanner) Scan(ctx context.Context, opts ScanOptions) (<-chan ScanResult, error) {
	absRoot, err := filepath.Abs(opts.RootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrRootMissing, absRoot)
		}
		return nil, fmt.Errorf("failed to stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path is not a directory: %s", absRoot)
	}

	match := opts.Match
	if match == nil {
		match = func(rel string) bool { return strings.HasSuffix(rel, ".json") }
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 64
	}

	results := make(chan ScanResult, buffer)
	go func() {
		defer close(results)
		s.walk(ctx, absRoot, opts.IncludeHidden, match, results)
	}()

	return results, nil
}

func (s *Scanner) walk(ctx context.Context, absRoot string, includeHidden bool, match func(string) bool, results chan<- ScanResult) {
	err := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		relPath, err := filepath.Rel(absRoot, path)
		if err != nil || relPath == "." {
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if !includeHidden && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !match(relPath) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		file := &FileInfo{
			Path:    relPath,
			AbsPath: path,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
		select {
		case results <- ScanResult{File: file}:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// Collect drains a scan into a slice, returning the first walk error. A
// cancelled context is reported even when the walk itself swallowed it.
func Collect(ctx context.Context, s *Scanner, opts ScanOptions) ([]*FileInfo, error) {
	ch, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}
	var files []*FileInfo
	var firstErr error
	for r := range ch {
		if r.Error != nil {
			if firstErr == nil {
				firstErr = r.Error
			}
			continue
		}
		files = append(files, r.File)
	}
	if firstErr == nil && ctx.Err() != nil {
		// The walk stopped early; the partial listing must not pass as complete.
		return files, ctx.Err()
	}
	return files, firstErr
}
