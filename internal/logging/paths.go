package logging

import (
	"os"
	"path/filepath"
)

// LogDirEnv overrides the log directory.
const LogDirEnv = "PALICANON_LOG_DIR"

// DefaultLogDir returns the log directory: $PALICANON_LOG_DIR, else
// ~/.palicanon/logs/, else a directory under the system temp dir.
func DefaultLogDir() string {
	if dir := os.Getenv(LogDirEnv); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".palicanon", "logs")
	}
	return filepath.Join(home, ".palicanon", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "palicanon.log")
}

// WorkerLogPath returns the log file of foreground pipeline runs. It is kept
// apart from the default log so two processes never rotate the same file.
func WorkerLogPath() string {
	return filepath.Join(DefaultLogDir(), "pipeline.log")
}
