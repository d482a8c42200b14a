package gitsync

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{"-c", "user.email=test@example.com", "-c", "user.name=test", "-c", "commit.gpgsign=false"}, args...)
	cmd := exec.Command("git", full...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func commitFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	git(t, dir, "add", name)
	git(t, dir, "commit", "-m", "update "+name)
}

func newUpstream(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git(t, dir, "init", "-q")
	git(t, dir, "checkout", "-q", "-b", "published")
	commitFile(t, dir, "_author.json", `{}`)
	return dir
}

func TestRepo_CloneAndPull(t *testing.T) {
	requireGit(t)
	ctx := context.Background()

	// Given: an upstream repository and an empty local path
	upstream := newUpstream(t)
	repo := &Repo{
		Dir:    filepath.Join(t.TempDir(), "corpus"),
		URL:    "file://" + upstream,
		Branch: "published",
	}
	assert.False(t, repo.IsInitialized())

	// When: cloning
	require.NoError(t, repo.Clone(ctx))

	// Then: the working tree exists with revision metadata
	assert.True(t, repo.IsInitialized())
	assert.FileExists(t, filepath.Join(repo.Dir, "_author.json"))
	rev, err := repo.Revision(ctx)
	require.NoError(t, err)
	assert.Len(t, rev, 40)
	ts, err := repo.RevisionTime(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Hour)

	// And: pulling without upstream changes reports no change
	changed, err := repo.Pull(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	// And: pulling after an upstream commit reports a change
	commitFile(t, upstream, "_publication.json", `{}`)
	changed, err = repo.Pull(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.FileExists(t, filepath.Join(repo.Dir, "_publication.json"))
}

func TestRepo_FailuresAreSyncErrors(t *testing.T) {
	requireGit(t)

	repo := &Repo{
		Dir:    filepath.Join(t.TempDir(), "corpus"),
		URL:    "file:///nonexistent/repository",
		Branch: "published",
	}

	err := repo.Clone(context.Background())

	require.Error(t, err)
	assert.Equal(t, pcerrors.ErrCodeSyncFailed, pcerrors.GetCode(err))
	assert.True(t, pcerrors.IsRetryable(err))
}
