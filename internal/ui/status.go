package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/pipeline"
)

// StatusInfo describes the derived data on disk.
type StatusInfo struct {
	DataDir string `json:"data_dir"`
	// PipelineRunning is true while another process holds the pipeline lock.
	PipelineRunning bool              `json:"pipeline_running"`
	Version         *pipeline.Version `json:"version,omitempty"`
	Index           *index.Stats      `json:"index,omitempty"`
	LegacyEntries   int               `json:"legacy_entries"`
	Menus           int               `json:"menus"`
	BundleSize      int64             `json:"bundle_size"`
}

// StatusRenderer displays data status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Data Status: "+info.DataDir))

	pipelineState := r.styles.Success.Render("idle")
	if info.PipelineRunning {
		pipelineState = r.styles.Warning.Render("running")
	}
	_, _ = fmt.Fprintf(r.out, "  Pipeline:     %s\n", pipelineState)

	if info.Version != nil {
		_, _ = fmt.Fprintf(r.out, "  Revision:     %s\n", info.Version.Revision)
		if !info.Version.RevisionTimestamp.IsZero() {
			_, _ = fmt.Fprintf(r.out, "  Committed:    %s\n", info.Version.RevisionTimestamp.Format(time.RFC3339))
		}
		_, _ = fmt.Fprintf(r.out, "  Produced:     %s\n", formatTime(info.Version.ProducedAt))
	} else {
		_, _ = fmt.Fprintf(r.out, "  Revision:     %s\n", r.styles.Warning.Render("never produced"))
	}
	_, _ = fmt.Fprintln(r.out)

	if info.Index != nil {
		_, _ = fmt.Fprintln(r.out, "  Index:")
		_, _ = fmt.Fprintf(r.out, "    Entries:      %d\n", info.Index.Entries)
		_, _ = fmt.Fprintf(r.out, "    With root:    %d\n", info.Index.WithRoot)
		_, _ = fmt.Fprintf(r.out, "    Translations: %d (%d authors)\n", info.Index.Translations, info.Index.DistinctAuthors)
	} else {
		_, _ = fmt.Fprintf(r.out, "  Index:        %s\n", r.styles.Error.Render("missing"))
	}
	_, _ = fmt.Fprintln(r.out)

	_, _ = fmt.Fprintf(r.out, "  Legacy:       %d\n", info.LegacyEntries)
	_, _ = fmt.Fprintf(r.out, "  Menus:        %d\n", info.Menus)
	if info.BundleSize > 0 {
		_, _ = fmt.Fprintf(r.out, "  Bundle:       %s\n", FormatBytes(info.BundleSize))
	}

	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats a time for display.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
