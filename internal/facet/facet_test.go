package facet

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoot(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		want RootPath
		ok   bool
	}{
		{"nested", "dn/dn1_root-pli-ms.json", RootPath{Dir: "dn", ID: "dn1", Edition: "pli-ms"}, true},
		{"deep", "sutta/an/an1/an1.1-10_root-pli-ms.json", RootPath{Dir: "sutta/an/an1", ID: "an1.1-10", Edition: "pli-ms"}, true},
		{"top level", "dn1_root-pli-ms.json", RootPath{ID: "dn1", Edition: "pli-ms"}, true},
		{"backslashes", `dn\dn2_root-pli-ms.json`, RootPath{Dir: "dn", ID: "dn2", Edition: "pli-ms"}, true},
		{"not json", "dn/dn1_root-pli-ms.txt", RootPath{}, false},
		{"no infix", "dn/dn1_html.json", RootPath{}, false},
		{"empty id", "dn/_root-pli-ms.json", RootPath{}, false},
		{"empty edition", "dn/dn1_root-.json", RootPath{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseRoot(tt.rel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootPath_DerivedFacets(t *testing.T) {
	p, ok := ParseRoot("dn/dn1_root-pli-ms.json")
	require.True(t, ok)

	assert.Equal(t, "dn/dn1_root-pli-ms.json", p.String())
	assert.Equal(t, "dn/dn1_html.json", p.HTML())
	assert.Equal(t, "dn/dn1_variant-pli-ms.json", p.Variant())
	assert.Equal(t, "dn/dn1_reference.json", p.Reference())
}

func TestRootPath_DerivationIsTotal(t *testing.T) {
	// A zero value still yields candidates; existence is checked elsewhere.
	var p RootPath

	assert.Equal(t, "_html.json", p.HTML())
	assert.Equal(t, "_variant-.json", p.Variant())
	assert.Equal(t, "_reference.json", p.Reference())
}

func TestParseTranslation(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		want TranslationPath
		ok   bool
	}{
		{"nested", "dn/dn1_translation-en-sujato.json", TranslationPath{Dir: "dn", ID: "dn1", Lang: "en", Author: "sujato"}, true},
		{"hyphenated author", "mn/mn1_translation-en-bhikkhu-bodhi.json", TranslationPath{Dir: "mn", ID: "mn1", Lang: "en", Author: "bhikkhu-bodhi"}, true},
		{"missing author", "dn/dn1_translation-en.json", TranslationPath{}, false},
		{"root file", "dn/dn1_root-pli-ms.json", TranslationPath{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseTranslation(tt.rel)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTranslationPath_Comment(t *testing.T) {
	p, ok := ParseTranslation("sutta/dn/dn1_translation-en-sujato.json")
	require.True(t, ok)

	assert.Equal(t, "sutta/dn/dn1_translation-en-sujato.json", p.String())
	assert.Equal(t, "sutta/dn/dn1_comment-en-sujato.json", p.Comment())
}

func TestCollectionPrefix(t *testing.T) {
	tests := map[string]string{
		"dn1":              "dn",
		"an1.1-10":         "an",
		"thag1.1":          "thag",
		"pli-tv-bu-vb-pj1": "pli-tv-bu-vb-pj",
		"dhp":              "dhp",
		"":                 "",
	}
	for in, want := range tests {
		assert.Equal(t, want, CollectionPrefix(in), in)
	}
}

func TestLayout_CandidatePaths(t *testing.T) {
	l := Layout{
		CorpusDir:       "/corpus",
		RootTree:        "root/pli/ms",
		TranslationTree: "translation",
		HTMLTree:        "html/pli/ms",
		CommentTree:     "comment",
		VariantTree:     "variant/pli/ms",
		ReferenceTree:   "reference/pli/ms",
		Language:        "en",
	}
	rp, _ := ParseRoot("dn/dn1_root-pli-ms.json")
	tp, _ := ParseTranslation("dn/dn1_translation-en-sujato.json")

	assert.Equal(t, filepath.FromSlash("/corpus/root/pli/ms/dn/dn1_root-pli-ms.json"), l.Root(rp))
	assert.Equal(t, filepath.FromSlash("/corpus/html/pli/ms/dn/dn1_html.json"), l.HTML(rp))
	assert.Equal(t, filepath.FromSlash("/corpus/variant/pli/ms/dn/dn1_variant-pli-ms.json"), l.Variant(rp))
	assert.Equal(t, filepath.FromSlash("/corpus/reference/pli/ms/dn/dn1_reference.json"), l.Reference(rp))
	assert.Equal(t, filepath.FromSlash("/corpus/translation/en/sujato/dn/dn1_translation-en-sujato.json"), l.Translation("sujato", tp))
	assert.Equal(t, filepath.FromSlash("/corpus/comment/en/sujato/dn/dn1_comment-en-sujato.json"), l.Comment("sujato", tp))
	assert.Equal(t, filepath.FromSlash("/corpus/translation/en/sujato"), l.TranslationDir("sujato"))
}
