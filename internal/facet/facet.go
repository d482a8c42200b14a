// Package facet maps root and translation document paths to the candidate paths of
// their sibling facets.
//
// Every facet tree mirrors the collection hierarchy of the root tree, so a sibling
// facet lives in the same relative directory as the document it annotates and
// differs only in its filename:
//
//	root         dn/dn1_root-pli-ms.json
//	html         dn/dn1_html.json
//	variant      dn/dn1_variant-pli-ms.json
//	reference    dn/dn1_reference.json
//	translation  dn/dn1_translation-en-sujato.json
//	comment      dn/dn1_comment-en-sujato.json
//
// Paths are parsed once into RootPath and TranslationPath values; the derivation
// methods on those values are total and never touch the filesystem.
package facet

import (
	"path"
	"regexp"
	"strings"
)

// Kind names a facet.
type Kind string

const (
	Root        Kind = "root"
	Translation Kind = "translation"
	HTML        Kind = "html"
	Comment     Kind = "comment"
	Variant     Kind = "variant"
	Reference   Kind = "reference"
)

// Kinds lists every file-backed facet in resolution order.
var Kinds = []Kind{Root, Translation, HTML, Comment, Variant, Reference}

const (
	jsonExt          = ".json"
	rootInfix        = "_root-"
	translationInfix = "_translation-"
	commentInfix     = "_comment-"
	variantInfix     = "_variant-"
	htmlSuffix       = "_html.json"
	referenceSuffix  = "_reference.json"
)

// RootPath is a parsed root document path: <Dir>/<ID>_root-<Edition>.json.
// Edition is the language and edition tag, e.g. "pli-ms".
type RootPath struct {
	Dir     string
	ID      string
	Edition string
}

// ParseRoot parses a slash-separated path relative to the root tree.
// It reports false for filenames that do not follow the root convention.
func ParseRoot(rel string) (RootPath, bool) {
	dir, base := split(rel)
	id, edition, ok := cut(base, rootInfix)
	if !ok {
		return RootPath{}, false
	}
	return RootPath{Dir: dir, ID: id, Edition: edition}, true
}

// String returns the relative root path.
func (p RootPath) String() string {
	return path.Join(p.Dir, p.ID+rootInfix+p.Edition+jsonExt)
}

// HTML returns the relative path of the HTML-structure document.
func (p RootPath) HTML() string {
	return path.Join(p.Dir, p.ID+htmlSuffix)
}

// Variant returns the relative path of the variant-readings document.
func (p RootPath) Variant() string {
	return path.Join(p.Dir, p.ID+variantInfix+p.Edition+jsonExt)
}

// Reference returns the relative path of the cross-reference document.
func (p RootPath) Reference() string {
	return path.Join(p.Dir, p.ID+referenceSuffix)
}

// TranslationPath is a parsed translation document path:
// <Dir>/<ID>_translation-<Lang>-<Author>.json.
type TranslationPath struct {
	Dir    string
	ID     string
	Lang   string
	Author string
}

// ParseTranslation parses a slash-separated path relative to an author's
// translation directory. It reports false for non-conforming filenames.
func ParseTranslation(rel string) (TranslationPath, bool) {
	dir, base := split(rel)
	id, tail, ok := cut(base, translationInfix)
	if !ok {
		return TranslationPath{}, false
	}
	lang, author, found := strings.Cut(tail, "-")
	if !found || lang == "" || author == "" {
		return TranslationPath{}, false
	}
	return TranslationPath{Dir: dir, ID: id, Lang: lang, Author: author}, true
}

// String returns the relative translation path.
func (p TranslationPath) String() string {
	return path.Join(p.Dir, p.ID+translationInfix+p.Lang+"-"+p.Author+jsonExt)
}

// Comment returns the relative path of the comment document by the same author.
func (p TranslationPath) Comment() string {
	return path.Join(p.Dir, p.ID+commentInfix+p.Lang+"-"+p.Author+jsonExt)
}

// split separates a slash path into its directory ("" at top level) and base name.
func split(rel string) (string, string) {
	rel = strings.TrimPrefix(path.Clean("/"+strings.ReplaceAll(rel, "\\", "/")), "/")
	dir, base := path.Split(rel)
	return strings.TrimSuffix(dir, "/"), base
}

// cut splits "<id><infix><tail>.json" into id and tail, both non-empty.
func cut(base, infix string) (string, string, bool) {
	if !strings.HasSuffix(base, jsonExt) {
		return "", "", false
	}
	stem := strings.TrimSuffix(base, jsonExt)
	i := strings.LastIndex(stem, infix)
	if i <= 0 {
		return "", "", false
	}
	tail := stem[i+len(infix):]
	if tail == "" {
		return "", "", false
	}
	return stem[:i], tail, true
}

var locatorSuffix = regexp.MustCompile(`[0-9][0-9.\-]*$`)

// CollectionPrefix strips the trailing numeric locator from an identifier:
// "dn1" -> "dn", "an1.1-10" -> "an". Identifiers without a locator are returned as is.
func CollectionPrefix(id string) string {
	return locatorSuffix.ReplaceAllString(id, "")
}
