// Package async runs the pipeline as a background worker process and tracks
// its state and output for status queries.
package async

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/pipeline"
)

// TriggerResult is the outcome of a trigger request.
type TriggerResult string

const (
	Accepted       TriggerResult = "accepted"
	AlreadyRunning TriggerResult = "already_running"
	StartFailed    TriggerResult = "start_failed"
)

// maxLineBytes bounds a single worker output line.
const maxLineBytes = 1 << 20

// PipelineRunState is the state of the most recent run.
type PipelineRunState struct {
	Running    bool
	State      pipeline.State
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	ExitCode   int
}

// Status is an immutable snapshot of the controller.
type Status struct {
	Running    bool           `json:"running"`
	State      pipeline.State `json:"state"`
	RunID      string         `json:"run_id,omitempty"`
	StartedAt  *time.Time     `json:"started_at,omitempty"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	ExitCode   *int           `json:"exit_code,omitempty"`
	// Logs are the worker's output lines, each prefixed with its receive time.
	Logs       []string       `json:"logs"`
}

type logLine struct {
	at     time.Time
	stream string
	text   string
}

// LogTimeLayout stamps every buffered worker line. It is fixed width so the
// message always starts at the same offset.
const LogTimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatLogLine renders a buffered line as "<UTC time> <text>".
func FormatLogLine(at time.Time, text string) string {
	return at.UTC().Format(LogTimeLayout) + " " + text
}

// ParseLogLine splits a buffered line into its receive time and text.
func ParseLogLine(line string) (time.Time, string, bool) {
	stamp, text, ok := strings.Cut(line, " ")
	if !ok {
		return time.Time{}, "", false
	}
	at, err := time.Parse(LogTimeLayout, stamp)
	if err != nil {
		return time.Time{}, "", false
	}
	return at, text, true
}

// lineLevel picks the level a worker line is mirrored at. Worker stderr
// carries slog JSON records, whose own level is kept; anything else is info.
func lineLevel(text string) slog.Level {
	if !strings.HasPrefix(text, "{") {
		return slog.LevelInfo
	}
	var rec struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(text), &rec); err != nil || rec.Level == "" {
		return slog.LevelInfo
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(rec.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// Controller owns the single pipeline run a process may have in flight.
type Controller struct {
	launcher Launcher
	ring     *LogRing
	logger   *slog.Logger

	mu    sync.Mutex
	state PipelineRunState
	done  chan struct{}
}

// NewController creates a Controller that starts workers with launcher.
func NewController(launcher Launcher, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		launcher: launcher,
		ring:     NewLogRing(DefaultLogCapacity),
		logger:   logger,
		state:    PipelineRunState{State: pipeline.StateIdle},
	}
}

// Trigger starts a run unless one is already in flight. The returned error is
// set only for StartFailed.
func (c *Controller) Trigger() (TriggerResult, error) {
	c.mu.Lock()
	if c.state.Running {
		c.mu.Unlock()
		return AlreadyRunning, nil
	}

	runID := uuid.New().String()
	proc, err := c.launcher.Launch(runID)
	if err != nil {
		c.state.State = pipeline.StateFailed
		c.mu.Unlock()
		c.logger.Error("pipeline worker failed to start", slog.String("error", err.Error()))
		return StartFailed, pcerrors.New(pcerrors.ErrCodeStartFailed, "failed to start pipeline worker", err)
	}

	c.ring.Reset()
	done := make(chan struct{})
	c.state = PipelineRunState{
		Running:   true,
		State:     pipeline.StateRunning,
		RunID:     runID,
		StartedAt: time.Now(),
	}
	c.done = done
	c.mu.Unlock()

	c.logger.Info("pipeline run started", slog.String("run_id", runID))

	lines := make(chan logLine, 64)
	var readers sync.WaitGroup
	readers.Add(2)
	go c.read(&readers, proc.Stdout(), "stdout", lines)
	go c.read(&readers, proc.Stderr(), "stderr", lines)
	go func() {
		readers.Wait()
		close(lines)
	}()
	go c.drain(proc, lines, done)

	return Accepted, nil
}

func (c *Controller) read(wg *sync.WaitGroup, r io.Reader, stream string, out chan<- logLine) {
	defer wg.Done()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		out <- logLine{at: time.Now(), stream: stream, text: sc.Text()}
	}
	if err := sc.Err(); err != nil {
		out <- logLine{at: time.Now(), stream: stream, text: "log stream error: " + err.Error()}
	}
}

// drain appends worker output to the ring until both streams close, then reaps
// the process and records the outcome.
func (c *Controller) drain(proc Process, lines <-chan logLine, done chan struct{}) {
	defer close(done)

	for l := range lines {
		text := strings.TrimRight(l.text, "\r")
		c.ring.Append(FormatLogLine(l.at, text))
		c.logger.Log(context.Background(), lineLevel(text), "pipeline",
			slog.String("stream", l.stream), slog.String("line", text))
	}

	code, err := proc.Wait()
	if err != nil {
		c.logger.Error("pipeline worker wait failed", slog.String("error", err.Error()))
	}

	c.mu.Lock()
	c.state.Running = false
	c.state.FinishedAt = time.Now()
	c.state.ExitCode = code
	if code == 0 && err == nil {
		c.state.State = pipeline.StateSucceeded
	} else {
		c.state.State = pipeline.StateFailed
	}
	runID, state := c.state.RunID, c.state.State
	c.mu.Unlock()

	c.logger.Info("pipeline run finished",
		slog.String("run_id", runID),
		slog.String("state", string(state)),
		slog.Int("exit_code", code))
}

// Running reports whether a run is in flight.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Running
}

// Wait blocks until the current run, if any, has finished.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Status returns a snapshot of the run state and buffered output.
func (c *Controller) Status() Status {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	s := Status{
		Running: st.Running,
		State:   st.State,
		RunID:   st.RunID,
		Logs:    c.ring.Lines(),
	}
	if !st.StartedAt.IsZero() {
		t := st.StartedAt
		s.StartedAt = &t
	}
	if !st.FinishedAt.IsZero() {
		t := st.FinishedAt
		code := st.ExitCode
		s.FinishedAt = &t
		s.ExitCode = &code
	}
	return s
}
