package watcher

import (
	"sort"
	"sync"
	"time"
)

// Debouncer coalesces names added within a quiet window into one sorted batch.
// Every Add restarts the window.
type Debouncer struct {
	window  time.Duration
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	output  chan []string
	stopped bool
}

// NewDebouncer creates a debouncer with the given quiet window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{
		window:  window,
		pending: make(map[string]struct{}),
		output:  make(chan []string, 1),
	}
}

// Add records name and restarts the window.
func (d *Debouncer) Add(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[name] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || len(d.pending) == 0 {
		return
	}

	batch := make([]string, 0, len(d.pending))
	for name := range d.pending {
		batch = append(batch, name)
	}
	sort.Strings(batch)

	select {
	case d.output <- batch:
		d.pending = make(map[string]struct{})
	default:
		// Consumer still busy with the previous batch; try again later.
		d.timer = time.AfterFunc(d.window, d.flush)
	}
}

// Output returns the channel of batches.
func (d *Debouncer) Output() <-chan []string {
	return d.output
}

// Stop discards pending names and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
