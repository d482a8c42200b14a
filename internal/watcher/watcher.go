package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures a Watcher.
type Options struct {
	// DebounceWindow is the quiet period before a batch is delivered.
	// Default: 500ms
	DebounceWindow time.Duration

	// Names are the base names of interest. Empty means every file.
	Names []string

	Logger *slog.Logger
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 500 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Watcher reports changes to selected files in one directory.
type Watcher struct {
	dir       string
	opts      Options
	names     map[string]bool
	fs        *fsnotify.Watcher
	debouncer *Debouncer

	mu      sync.Mutex
	stopped bool
}

// New creates a Watcher on dir. The directory must exist.
func New(dir string, opts Options) (*Watcher, error) {
	opts = opts.WithDefaults()

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(abs); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", abs, err)
	}

	names := make(map[string]bool, len(opts.Names))
	for _, n := range opts.Names {
		names[n] = true
	}

	return &Watcher{
		dir:       abs,
		opts:      opts,
		names:     names,
		fs:        fsw,
		debouncer: NewDebouncer(opts.DebounceWindow),
	}, nil
}

// Run delivers debounced batches of changed base names to onChange until ctx
// is cancelled or Stop is called. onChange runs on the caller's goroutine.
func (w *Watcher) Run(ctx context.Context, onChange func([]string)) error {
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watcher error", slog.String("error", err.Error()))
		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			onChange(batch)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}
	name := filepath.Base(event.Name)
	if len(w.names) > 0 && !w.names[name] {
		return
	}
	w.debouncer.Add(name)
}

// Stop releases the watcher. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	w.debouncer.Stop()
	return w.fs.Close()
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Reloader is anything that can refresh its state from disk.
type Reloader interface {
	Reload() error
}

// ReloadOnChange returns a callback that reloads r for every batch. A failed
// reload is logged and the previous state stays in service.
func ReloadOnChange(r Reloader, logger *slog.Logger) func([]string) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(changed []string) {
		if err := r.Reload(); err != nil {
			logger.Warn("reload failed, keeping previous state",
				slog.Any("changed", changed),
				slog.String("error", err.Error()))
			return
		}
		logger.Info("reloaded after data change", slog.Any("changed", changed))
	}
}
