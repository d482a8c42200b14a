package prune

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/palicanon/internal/config"
)

func mkfile(t *testing.T, root, rel string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(`{}`), 0o644))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Paths.CorpusDir = "/corpus"

	opts := OptionsFromConfig(cfg)

	assert.Equal(t, []string{"en"}, opts.LocaleTrees["translation"])
	assert.Equal(t, []string{"en"}, opts.LocaleTrees["comment"])
	assert.Equal(t, []string{"pli"}, opts.LocaleTrees["root"])
	assert.Equal(t, []string{"pli"}, opts.LocaleTrees["html"])
	assert.Equal(t, "/corpus", opts.CorpusDir)
}

func TestPrune_RemovesUnservedLocales(t *testing.T) {
	// Given: a corpus with served and unserved locales plus auxiliary files
	corpus := t.TempDir()
	mkfile(t, corpus, "root/pli/ms/dn/dn1_root-pli-ms.json")
	mkfile(t, corpus, "root/lzh/x/a.json")
	mkfile(t, corpus, "translation/en/sujato/dn/dn1_translation-en-sujato.json")
	mkfile(t, corpus, "translation/de/sabbamitta/dn/dn1_translation-de-sabbamitta.json")
	mkfile(t, corpus, "comment/de/x.json")
	mkfile(t, corpus, "_project.json")
	mkfile(t, corpus, ".github/workflows/ci.yml")
	mkfile(t, corpus, "_author.json")

	p := New(Options{
		CorpusDir: corpus,
		LocaleTrees: map[string][]string{
			"root":        {"pli"},
			"translation": {"en"},
			"comment":     {"en"},
			"variant":     {"pli"},
		},
		RemovePaths: []string{".github", "_project.json", "missing.json", "../outside"},
	})

	// When: pruning
	removed, err := p.Prune()

	// Then: only excluded paths are gone
	require.NoError(t, err)
	assert.Equal(t, []string{".github", "_project.json", "comment/de", "root/lzh", "translation/de"}, removed)
	assert.FileExists(t, filepath.Join(corpus, "root/pli/ms/dn/dn1_root-pli-ms.json"))
	assert.FileExists(t, filepath.Join(corpus, "translation/en/sujato/dn/dn1_translation-en-sujato.json"))
	assert.FileExists(t, filepath.Join(corpus, "_author.json"))
	assert.NoDirExists(t, filepath.Join(corpus, "translation/de"))
}

func TestPrune_IsIdempotent(t *testing.T) {
	corpus := t.TempDir()
	mkfile(t, corpus, "translation/de/a.json")
	p := New(Options{CorpusDir: corpus, LocaleTrees: map[string][]string{"translation": {"en"}}})

	first, err := p.Prune()
	require.NoError(t, err)
	second, err := p.Prune()

	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Empty(t, second)
}
