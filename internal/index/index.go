// Package index builds and persists the corpus index: identifier -> root path plus
// one translation path per author.
//
// The index is a derived artifact. Every build walks the corpus from scratch and
// replaces the file wholesale; nothing merges into an existing index.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/renameio"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// Entry locates the documents of one identifier. Root is relative to the root
// tree; translation paths are relative to each author's translation directory.
type Entry struct {
	Root         string            `json:"root,omitempty"`
	Translations map[string]string `json:"translations"`
}

// HasRoot reports whether a root document was discovered.
func (e *Entry) HasRoot() bool {
	return e != nil && e.Root != ""
}

// Authors returns the translation authors in index order (sorted by identifier).
func (e *Entry) Authors() []string {
	if e == nil {
		return nil
	}
	authors := make([]string, 0, len(e.Translations))
	for a := range e.Translations {
		authors = append(authors, a)
	}
	sort.Strings(authors)
	return authors
}

// Index maps document identifiers to their entries.
type Index map[string]*Entry

// Get returns the entry for id.
func (idx Index) Get(id string) (*Entry, bool) {
	e, ok := idx[id]
	return e, ok
}

// Has reports whether id is indexed.
func (idx Index) Has(id string) bool {
	_, ok := idx[id]
	return ok
}

// IDs returns all identifiers, sorted.
func (idx Index) IDs() []string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Authors lists the translation authors of id, or nil if id is not indexed.
func (idx Index) Authors(id string) []string {
	return idx[id].Authors()
}

// entry returns the entry for id, creating an empty one if needed.
func (idx Index) entry(id string) *Entry {
	e, ok := idx[id]
	if !ok {
		e = &Entry{Translations: map[string]string{}}
		idx[id] = e
	}
	return e
}

// prune drops entries that carry neither a root nor a translation.
func (idx Index) prune() {
	for id, e := range idx {
		if e == nil || (!e.HasRoot() && len(e.Translations) == 0) {
			delete(idx, id)
		}
	}
}

// Stats summarizes an index.
type Stats struct {
	Entries         int `json:"entries"`
	WithRoot        int `json:"with_root"`
	TranslationOnly int `json:"translation_only"`
	Translations    int `json:"translations"`
	DistinctAuthors int `json:"distinct_authors"`
}

// Stats computes summary counts.
func (idx Index) Stats() Stats {
	s := Stats{Entries: len(idx)}
	authors := map[string]bool{}
	for _, e := range idx {
		if e.HasRoot() {
			s.WithRoot++
		} else {
			s.TranslationOnly++
		}
		s.Translations += len(e.Translations)
		for a := range e.Translations {
			authors[a] = true
		}
	}
	s.DistinctAuthors = len(authors)
	return s
}

// Marshal encodes the index deterministically: identifiers and authors sorted.
func (idx Index) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}
	return append(data, '\n'), nil
}

// Save replaces the index file at path atomically.
func Save(path string, idx Index) error {
	data, err := idx.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// Load reads the index at path. A missing file wraps fs.ErrNotExist; a file that
// does not parse is reported as a corrupt index.
func Load(path string) (Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, pcerrors.New(pcerrors.ErrCodeCorruptIndex, "index file does not parse", err).
			WithDetail("path", path).
			WithSuggestion("Rebuild it with 'palicanon index'")
	}
	if idx == nil {
		idx = Index{}
	}
	for _, e := range idx {
		if e != nil && e.Translations == nil {
			e.Translations = map[string]string{}
		}
	}
	idx.prune()
	return idx, nil
}

// Exists reports whether an index file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
