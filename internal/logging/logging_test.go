package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogPath(t *testing.T) {
	t.Setenv(LogDirEnv, "")
	path := DefaultLogPath()

	assert.True(t, strings.HasSuffix(path, filepath.Join(".palicanon", "logs", "palicanon.log")))
}

func TestDefaultLogDir_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LogDirEnv, dir)

	assert.Equal(t, filepath.Join(dir, "palicanon.log"), DefaultLogPath())
}

func TestServeConfig_NeverWritesToStderr(t *testing.T) {
	cfg := ServeConfig("debug")

	assert.False(t, cfg.WriteToStderr)
	assert.Equal(t, "debug", cfg.Level)
}

func TestWorkerConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(LogDirEnv, dir)

	tests := []struct {
		name     string
		managed  bool
		wantFile string
	}{
		{"foreground run writes its own file", false, filepath.Join(dir, "pipeline.log")},
		{"server-managed run logs to stderr only", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := WorkerConfig("warn", tt.managed)

			assert.Equal(t, tt.wantFile, cfg.FilePath)
			assert.NotEqual(t, DefaultLogPath(), cfg.FilePath)
			assert.True(t, cfg.WriteToStderr)
			assert.Equal(t, "warn", cfg.Level)
		})
	}
}

func TestSetup_WritesJSONToFile(t *testing.T) {
	// Given: a file-only configuration at warn level
	path := filepath.Join(t.TempDir(), "logs", "test.log")
	logger, cleanup, err := Setup(Config{Level: "warn", FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)

	// When: logging below and at the threshold
	logger.Info("dropped")
	logger.Warn("kept", slog.String("id", "dn1"))
	cleanup()

	// Then: only the warn record is present, as JSON
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "dn1", rec["id"])
}

func TestSetup_NoOutputsDiscards(t *testing.T) {
	logger, cleanup, err := Setup(Config{Level: "info"})
	require.NoError(t, err)
	defer cleanup()

	assert.NotPanics(t, func() { logger.Info("nowhere") })
}

func TestLevelFromString(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, LevelFromString(in), in)
	}
}

func TestRotatingWriter_RotatesAndCapsFiles(t *testing.T) {
	// Given: a writer with a 1MB limit keeping two rotated files
	path := filepath.Join(t.TempDir(), "rot.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	chunk := bytes.Repeat([]byte("x"), 700*1024)

	// When: writing four chunks, each forcing a rotation after the first
	for i := 0; i < 4; i++ {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}

	// Then: current file plus .1 and .2 exist, .3 does not
	assert.FileExists(t, path)
	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")
}

func TestRotatingWriter_AppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	w, err := NewRotatingWriter(path, 1, 1)
	require.NoError(t, err)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingWriter_ConcurrentWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conc.log")
	w, err := NewRotatingWriter(path, 1, 1)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = fmt.Fprintf(w, "line %d\n", i)
		}(i)
	}
	wg.Wait()
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 20)
}
