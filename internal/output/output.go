// Package output formats human-facing CLI messages.
package output

import (
	"fmt"
	"io"
	"sort"
)

// Writer prints status lines. Write errors are ignored for console output.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon, or indented when icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Counts prints one indented "key: n" line per entry, sorted by key.
func (w *Writer) Counts(counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		w.Statusf("", "%s: %d", k, counts[k])
	}
}

// List prints each item indented under a heading.
func (w *Writer) List(heading string, items []string) {
	if len(items) == 0 {
		return
	}
	w.Status("", heading)
	for _, it := range items {
		w.Statusf("", "  - %s", it)
	}
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}
