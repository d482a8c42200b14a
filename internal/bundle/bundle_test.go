package bundle

import (
	"archive/tar"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

func readArchive(t *testing.T, p string) map[string]string {
	t.Helper()
	f, err := os.Open(p)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	zr, err := zstd.NewReader(f)
	require.NoError(t, err)
	defer zr.Close()

	files := map[string]string{}
	tr := tar.NewReader(zr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		if hdr.Typeflag == tar.TypeReg {
			body, err := io.ReadAll(tr)
			require.NoError(t, err)
			files[hdr.Name] = string(body)
		}
	}
	return files
}

func TestBundle_ArchivesTreeWithExclusions(t *testing.T) {
	// Given: a corpus tree with a .git directory
	root := t.TempDir()
	for rel, body := range map[string]string{
		"_author.json":                          `{"sujato":{}}`,
		"root/pli/ms/dn/dn1_root-pli-ms.json":   `{"dn1:0.1":"Dīgha"}`,
		".git/HEAD":                             "ref: refs/heads/published",
		"translation/en/sujato/dn/notes/x.json": `{}`,
	} {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	b := &Bundler{OutDir: t.TempDir(), Name: "palicanon-data.tar.zst"}

	// When: bundling
	out, err := b.Bundle(context.Background(), root, []string{".git", "translation/en/sujato/dn/notes"})

	// Then: the archive holds everything except the excluded entries
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(b.OutDir, "palicanon-data.tar.zst"), out)

	files := readArchive(t, out)
	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"_author.json", "root/pli/ms/dn/dn1_root-pli-ms.json"}, names)
	assert.Equal(t, `{"dn1:0.1":"Dīgha"}`, files["root/pli/ms/dn/dn1_root-pli-ms.json"])
}

func TestBundle_IncludesDerivedArtifacts(t *testing.T) {
	// Given: a corpus plus a data dir with an index, a legacy tree and no legacy map
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "_author.json"), []byte(`{}`), 0o644))
	data := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(data, "index.json"), []byte(`{"dn1":{}}`), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(data, "legacy", "sujato"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(data, "legacy", "sujato", "pli-tv-kd2.json"), []byte(`{"text":"x"}`), 0o644))
	b := &Bundler{
		OutDir: data,
		Name:   "palicanon-data.tar.zst",
		Artifacts: []Artifact{
			{Name: "index.json", Path: filepath.Join(data, "index.json")},
			{Name: "legacy_map.json", Path: filepath.Join(data, "legacy_map.json")},
			{Name: "legacy", Path: filepath.Join(data, "legacy")},
		},
	}

	// When: bundling
	out, err := b.Bundle(context.Background(), root, nil)

	// Then: the artifacts sit under the data prefix and the missing map is skipped
	require.NoError(t, err)
	files := readArchive(t, out)
	assert.Equal(t, map[string]string{
		"_author.json":                        `{}`,
		"_data/index.json":                    `{"dn1":{}}`,
		"_data/legacy/sujato/pli-tv-kd2.json": `{"text":"x"}`,
	}, files)
}

func TestBundle_ReplacesPreviousArchive(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"), []byte(`1`), 0o644))
	b := &Bundler{OutDir: t.TempDir(), Name: "out.tar.zst"}

	_, err := b.Bundle(context.Background(), root, nil)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"), []byte(`2`), 0o644))
	out, err := b.Bundle(context.Background(), root, nil)

	require.NoError(t, err)
	assert.Equal(t, "2", readArchive(t, out)["a.json"])
}

func TestBundle_MissingRootFails(t *testing.T) {
	b := &Bundler{OutDir: t.TempDir(), Name: "out.tar.zst"}

	_, err := b.Bundle(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)

	require.Error(t, err)
	assert.Equal(t, pcerrors.ErrCodeBundleFailed, pcerrors.GetCode(err))
	assert.NoFileExists(t, filepath.Join(b.OutDir, "out.tar.zst"))
}

func TestBundle_CancelledContext(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.json"), []byte(`1`), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := &Bundler{OutDir: t.TempDir(), Name: "out.tar.zst"}

	_, err := b.Bundle(ctx, root, nil)

	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(b.OutDir, "out.tar.zst"))
}
