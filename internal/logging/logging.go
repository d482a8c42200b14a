package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config contains logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string
	// FilePath is the path to the log file. Empty disables file logging.
	FilePath string
	// MaxSizeMB is the maximum size in MB before rotation.
	MaxSizeMB int
	// MaxFiles is the maximum number of rotated files to keep.
	MaxFiles int
	// WriteToStderr mirrors every record to stderr.
	WriteToStderr bool
}

// DefaultConfig returns defaults for CLI commands.
func DefaultConfig() Config {
	return Config{
		Level:         "info",
		FilePath:      DefaultLogPath(),
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: true,
	}
}

// CommandConfig returns DefaultConfig at level.
func CommandConfig(level string) Config {
	cfg := DefaultConfig()
	cfg.Level = level
	return cfg
}

// WorkerConfig returns the config for a pipeline run. A run started by the
// server logs to stderr only, which the server captures into its own log; a
// foreground run writes pipeline.log next to the server log.
func WorkerConfig(level string, managed bool) Config {
	cfg := CommandConfig(level)
	cfg.FilePath = WorkerLogPath()
	if managed {
		cfg.FilePath = ""
	}
	return cfg
}

// ServeConfig returns defaults for the MCP server: file only, never stderr.
func ServeConfig(level string) Config {
	cfg := DefaultConfig()
	cfg.Level = level
	cfg.WriteToStderr = false
	return cfg
}

// Setup builds a JSON slog logger for cfg and returns it with a cleanup function
// that flushes and closes the log file.
func Setup(cfg Config) (*slog.Logger, func(), error) {
	var (
		outputs []io.Writer
		writer  *RotatingWriter
	)

	if cfg.FilePath != "" {
		w, err := NewRotatingWriter(cfg.FilePath, cfg.MaxSizeMB, cfg.MaxFiles)
		if err != nil {
			return nil, nil, err
		}
		writer = w
		outputs = append(outputs, w)
	}
	if cfg.WriteToStderr {
		outputs = append(outputs, os.Stderr)
	}

	var output io.Writer
	switch len(outputs) {
	case 0:
		output = io.Discard
	case 1:
		output = outputs[0]
	default:
		output = io.MultiWriter(outputs...)
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{
		Level: LevelFromString(cfg.Level),
	})

	cleanup := func() {
		if writer != nil {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}

	return slog.New(handler), cleanup, nil
}

// SetupDefault runs Setup and installs the logger as slog's default.
func SetupDefault(cfg Config) (func(), error) {
	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

// LevelFromString converts a level name to slog.Level, defaulting to info.
func LevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
