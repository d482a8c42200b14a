package async

import "sync"

// DefaultLogCapacity is how many worker output lines a controller keeps.
const DefaultLogCapacity = 1000

// LogRing is a bounded, thread-safe buffer of log lines. When full, the oldest
// line is dropped.
type LogRing struct {
	mu    sync.RWMutex
	lines []string
	start int
	size  int
}

// NewLogRing creates a ring holding at most capacity lines.
func NewLogRing(capacity int) *LogRing {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogRing{lines: make([]string, capacity)}
}

// Append adds a line, evicting the oldest if the ring is full.
func (r *LogRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.lines)
	if r.size < capacity {
		r.lines[(r.start+r.size)%capacity] = line
		r.size++
		return
	}
	r.lines[r.start] = line
	r.start = (r.start + 1) % capacity
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *LogRing) Lines() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.lines[(r.start+i)%len(r.lines)]
	}
	return out
}

// Len returns the number of buffered lines.
func (r *LogRing) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Reset empties the ring.
func (r *LogRing) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.start, r.size = 0, 0
}
