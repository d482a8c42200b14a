package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDebouncer_CoalescesBurst(t *testing.T) {
	// Given: a debouncer with a short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: several names arrive in a burst
	for i := 0; i < 5; i++ {
		d.Add("index.json")
		d.Add("legacy_map.json")
		time.Sleep(5 * time.Millisecond)
	}

	// Then: one sorted batch comes out
	select {
	case batch := <-d.Output():
		assert.Equal(t, []string{"index.json", "legacy_map.json"}, batch)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for batch")
	}
}

func TestDebouncer_StopClosesOutput(t *testing.T) {
	d := NewDebouncer(time.Hour)
	d.Add("index.json")

	d.Stop()
	d.Stop()
	d.Add("ignored")

	_, ok := <-d.Output()
	assert.False(t, ok)
}

type fakeReloader struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeReloader) Reload() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count++
	return f.err
}

func (f *fakeReloader) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func TestWatcher_ReloadsOnWatchedFileReplace(t *testing.T) {
	// Given: a watcher on a data directory
	dir := t.TempDir()
	w, err := New(dir, Options{DebounceWindow: 20 * time.Millisecond, Names: []string{"index.json"}})
	require.NoError(t, err)

	r := &fakeReloader{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, ReloadOnChange(r, nil)) }()

	// When: an unrelated file changes, then the index is replaced by rename
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))
	tmp := filepath.Join(dir, ".index.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{}`), 0o644))
	require.NoError(t, os.Rename(tmp, filepath.Join(dir, "index.json")))

	// Then: the reloader runs once the window has passed
	assert.Eventually(t, func() bool { return r.calls() >= 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcher_IgnoresUnwatchedNames(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, Options{DebounceWindow: 10 * time.Millisecond, Names: []string{"index.json"}})
	require.NoError(t, err)

	r := &fakeReloader{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, ReloadOnChange(r, nil)) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{}`), 0o644))
	time.Sleep(100 * time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 0, r.calls())
}

func TestNew_MissingDirectory(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), Options{})

	require.Error(t, err)
}

func TestReloadOnChange_KeepsGoingAfterFailure(t *testing.T) {
	r := &fakeReloader{err: errors.New("corrupt index")}
	cb := ReloadOnChange(r, nil)

	cb([]string{"index.json"})
	cb([]string{"index.json"})

	assert.Equal(t, 2, r.calls())
}
