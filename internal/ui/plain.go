package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/Aman-CERP/palicanon/internal/pipeline"
)

// RunRenderer prints a finished pipeline run, one line per stage.
type RunRenderer struct {
	out    io.Writer
	styles Styles
}

// NewRunRenderer creates a run renderer.
func NewRunRenderer(out io.Writer, noColor bool) *RunRenderer {
	return &RunRenderer{out: out, styles: GetStyles(noColor)}
}

// Render writes the stage lines and a summary.
func (r *RunRenderer) Render(res *pipeline.Result) {
	if res == nil {
		return
	}
	for _, s := range res.Stages {
		if s.Error != "" {
			_, _ = fmt.Fprintf(r.out, "[%s] %s %s\n", StageIcon(s.Name), r.styles.Error.Render("failed:"), s.Error)
			continue
		}
		_, _ = fmt.Fprintf(r.out, "[%s] %s\n", StageIcon(s.Name), s.Duration.Round(time.Millisecond))
	}

	state := string(res.State)
	switch res.State {
	case pipeline.StateSucceeded:
		state = r.styles.Success.Render(state)
	case pipeline.StateFailed:
		state = r.styles.Error.Render(state)
	}
	_, _ = fmt.Fprintf(r.out, "Run %s %s in %s", res.RunID, state, res.Duration.Round(100*time.Millisecond))
	if res.ShortCircuited {
		_, _ = fmt.Fprint(r.out, r.styles.Dim.Render(" (corpus unchanged)"))
	}
	_, _ = fmt.Fprintln(r.out)

	if res.Backfilled > 0 {
		_, _ = fmt.Fprintf(r.out, "Backfilled: %d legacy documents\n", res.Backfilled)
	}
	if res.BundlePath != "" {
		_, _ = fmt.Fprintf(r.out, "Bundle:     %s\n", res.BundlePath)
	}
	if res.Version != nil {
		_, _ = fmt.Fprintf(r.out, "Revision:   %s\n", res.Version.Revision)
	}
}
