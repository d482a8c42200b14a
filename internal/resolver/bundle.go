package resolver

import (
	"encoding/json"

	"github.com/Aman-CERP/palicanon/internal/facet"
	"github.com/Aman-CERP/palicanon/internal/legacy"
)

var emptyObject = json.RawMessage(`{}`)

// Facet is the outcome of loading one facet document. An absent facet carries
// empty content; Path is the candidate that was tried, if any.
type Facet struct {
	Kind    facet.Kind
	Present bool
	Path    string
	Content json.RawMessage
}

func absent(kind facet.Kind, path string) Facet {
	return Facet{Kind: kind, Path: path, Content: emptyObject}
}

// MarshalJSON encodes only the content, so absent facets serialize as {}.
func (f Facet) MarshalJSON() ([]byte, error) {
	if !f.Present || len(f.Content) == 0 {
		return emptyObject, nil
	}
	return f.Content, nil
}

// Bundle is the assembled view of one identifier for one author.
type Bundle struct {
	ID               string          `json:"id"`
	SelectedAuthor   string          `json:"selectedAuthor"`
	AuthorName       string          `json:"authorName"`
	AvailableAuthors []string        `json:"availableAuthors"`
	Root             Facet           `json:"root"`
	Translation      Facet           `json:"translation"`
	HTML             Facet           `json:"html"`
	Comment          Facet           `json:"comment"`
	Variant          Facet           `json:"variant"`
	Reference        Facet           `json:"reference"`
	Publication      json.RawMessage `json:"publication"`
}

// Facets returns the file-backed facets in resolution order.
func (b *Bundle) Facets() []Facet {
	return []Facet{b.Root, b.Translation, b.HTML, b.Comment, b.Variant, b.Reference}
}

// Missing lists the kinds that resolved empty.
func (b *Bundle) Missing() []facet.Kind {
	var out []facet.Kind
	for _, f := range b.Facets() {
		if !f.Present {
			out = append(out, f.Kind)
		}
	}
	return out
}

// AuthorRef describes one available translation.
type AuthorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
}

// LegacyBundle is a backfilled document resolved through the legacy map.
type LegacyBundle struct {
	ID         string           `json:"id"`
	Author     string           `json:"author"`
	AuthorName string           `json:"authorName"`
	Document   *legacy.Document `json:"document"`
}
