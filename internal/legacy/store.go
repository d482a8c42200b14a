package legacy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/google/renameio"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// MapEntry records which author's content backfilled an identifier and where it
// was written, relative to the legacy directory.
type MapEntry struct {
	Author string `json:"author"`
	Path   string `json:"path"`
}

// Map is the legacy side-map keyed by identifier.
type Map map[string]MapEntry

// IDs returns the mapped identifiers, sorted.
func (m Map) IDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LoadMap reads the legacy map. A missing file is an empty map.
func LoadMap(p string) (Map, error) {
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Map{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy map: %w", err)
	}
	m := Map{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, pcerrors.MalformedData(p, err)
	}
	return m, nil
}

// SaveMap replaces the legacy map file atomically.
func SaveMap(p string, m Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode legacy map: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("failed to create legacy map directory: %w", err)
	}
	if err := renameio.WriteFile(p, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write legacy map: %w", err)
	}
	return nil
}

// Document is a backfilled flat-text document.
type Document struct {
	UID    string `json:"uid"`
	Author string `json:"author"`
	Lang   string `json:"lang"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

var safeID = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._\-]*$`)

// ValidID reports whether s is safe to use as a single path component.
func ValidID(s string) bool {
	return safeID.MatchString(s) && s != "." && s != ".."
}

// DocumentPath returns the slash-separated location of a legacy document
// relative to the legacy directory.
func DocumentPath(author, id string) string {
	return path.Join(author, id+".json")
}

// ReadDocument loads a legacy document.
func ReadDocument(p string) (*Document, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, pcerrors.MalformedData(p, err)
	}
	return &doc, nil
}

// WriteDocument writes doc under dir at its DocumentPath and returns that relative path.
func WriteDocument(dir string, doc *Document) (string, error) {
	if !ValidID(doc.UID) || !ValidID(doc.Author) {
		return "", pcerrors.ValidationError(fmt.Sprintf("unsafe legacy document name %q/%q", doc.Author, doc.UID), nil)
	}
	rel := DocumentPath(doc.Author, doc.UID)
	abs := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", fmt.Errorf("failed to create legacy directory: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode legacy document: %w", err)
	}
	if err := renameio.WriteFile(abs, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("failed to write legacy document: %w", err)
	}
	return rel, nil
}
