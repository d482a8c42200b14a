package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Icons(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status", func(w *Writer) { w.Status("🔍", "Scanning corpus") }, "🔍 Scanning corpus\n"},
		{"indented", func(w *Writer) { w.Status("", "detail") }, "   detail\n"},
		{"success", func(w *Writer) { w.Successf("Indexed %d entries", 3) }, "✅ Indexed 3 entries\n"},
		{"warning", func(w *Writer) { w.Warningf("%s missing", "index") }, "⚠️  index missing\n"},
		{"error", func(w *Writer) { w.Error("upstream down") }, "❌ upstream down\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.write(New(buf))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Counts_SortedByKey(t *testing.T) {
	// Given: unordered counts
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing them
	w.Counts(map[string]int{"translations": 9, "entries": 4})

	// Then: keys are sorted
	assert.Equal(t, "   entries: 4\n   translations: 9\n", buf.String())
}

func TestWriter_List(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.List("Removed:", []string{"a", "b"})
	w.List("Nothing:", nil)

	assert.Equal(t, "   Removed:\n     - a\n     - b\n", buf.String())
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()
	assert.Equal(t, "\n", buf.String())
}
