// Package scanner walks a facet tree and streams the documents that match its
// filename convention.
package scanner

import (
	"errors"
	"time"
)

// ErrRootMissing is returned by Scan when the tree root does not exist.
var ErrRootMissing = errors.New("scan root does not exist")

// FileInfo describes one discovered document.
type FileInfo struct {
	Path    string // Slash-separated path relative to the scan root
	AbsPath string
	Size    int64
	ModTime time.Time
}

// ScanOptions configures a walk.
type ScanOptions struct {
	// RootDir is the directory to walk.
	RootDir string

	// Match selects files by relative slash path. Nil matches every .json file.
	Match func(relPath string) bool

	// IncludeHidden walks dot-directories such as .git (default: skipped).
	IncludeHidden bool

	// Buffer is the result channel capacity (0 = 64).
	Buffer int
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}
