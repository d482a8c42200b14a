package facet

import (
	"path/filepath"

	"github.com/Aman-CERP/palicanon/internal/config"
)

// Layout locates the facet trees of one corpus working tree.
type Layout struct {
	CorpusDir       string
	RootTree        string
	TranslationTree string
	HTMLTree        string
	CommentTree     string
	VariantTree     string
	ReferenceTree   string
	Language        string
}

// NewLayout builds a Layout from configuration.
func NewLayout(cfg *config.Config) Layout {
	c := cfg.Corpus
	return Layout{
		CorpusDir:       cfg.Paths.CorpusDir,
		RootTree:        c.RootTree,
		TranslationTree: c.TranslationTree,
		HTMLTree:        c.HTMLTree,
		CommentTree:     c.CommentTree,
		VariantTree:     c.VariantTree,
		ReferenceTree:   c.ReferenceTree,
		Language:        c.Language,
	}
}

func (l Layout) tree(parts ...string) string {
	elems := make([]string, 0, len(parts)+1)
	elems = append(elems, l.CorpusDir)
	for _, p := range parts {
		elems = append(elems, filepath.FromSlash(p))
	}
	return filepath.Join(elems...)
}

// RootDir is the root of the root-text tree.
func (l Layout) RootDir() string { return l.tree(l.RootTree) }

// TranslationLangDir holds one directory per translation author.
func (l Layout) TranslationLangDir() string { return l.tree(l.TranslationTree, l.Language) }

// TranslationDir is the translation tree of one author.
func (l Layout) TranslationDir(author string) string {
	return l.tree(l.TranslationTree, l.Language, author)
}

// Root returns the absolute path of a root document.
func (l Layout) Root(p RootPath) string { return l.tree(l.RootTree, p.String()) }

// Translation returns the absolute path of a translation document.
func (l Layout) Translation(author string, p TranslationPath) string {
	return l.tree(l.TranslationTree, l.Language, author, p.String())
}

// HTML returns the absolute candidate path of the HTML-structure document.
func (l Layout) HTML(p RootPath) string { return l.tree(l.HTMLTree, p.HTML()) }

// Variant returns the absolute candidate path of the variant document.
func (l Layout) Variant(p RootPath) string { return l.tree(l.VariantTree, p.Variant()) }

// Reference returns the absolute candidate path of the reference document.
func (l Layout) Reference(p RootPath) string { return l.tree(l.ReferenceTree, p.Reference()) }

// Comment returns the absolute candidate path of the comment document, rooted
// under the comment tree of the same author.
func (l Layout) Comment(author string, p TranslationPath) string {
	return l.tree(l.CommentTree, l.Language, author, p.Comment())
}
