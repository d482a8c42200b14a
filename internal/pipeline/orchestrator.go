package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
)

// StageResult records how one stage went.
type StageResult struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Result summarizes a run.
type Result struct {
	RunID          string        `json:"run_id"`
	State          State         `json:"state"`
	ShortCircuited bool          `json:"short_circuited"`
	Stages         []StageResult `json:"stages"`
	Duration       time.Duration `json:"duration"`
	Version        *Version      `json:"version,omitempty"`
	Backfilled     int           `json:"backfilled"`
	BundlePath     string        `json:"bundle_path,omitempty"`
}

// Orchestrator runs stages strictly in order.
type Orchestrator struct {
	stages []Stage
	lock   *FileLock
	logger *slog.Logger
	runID  uuid.UUID

	mu    sync.Mutex
	state State
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for the orchestrator.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithLock makes every run hold lock for its duration.
func WithLock(lock *FileLock) Option {
	return func(o *Orchestrator) { o.lock = lock }
}

// WithRunID fixes the ID of the next run, for a worker started by a controller
// that already assigned one.
func WithRunID(id uuid.UUID) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// New creates an Orchestrator for stages.
func New(stages []Stage, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages: stages,
		logger: slog.Default(),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Run executes one pipeline run. A stage error aborts the run with a
// PipelineStage error; a sync stage that finds nothing new ends the run early
// as succeeded.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, pcerrors.ConcurrentRun()
	}
	o.state = StateRunning
	o.mu.Unlock()

	if o.lock != nil {
		acquired, err := o.lock.TryLock()
		if err != nil || !acquired {
			o.setState(StateIdle)
			if err != nil {
				return nil, pcerrors.InternalError("failed to lock corpus", err)
			}
			return nil, pcerrors.ConcurrentRun().WithDetail("lock", o.lock.Path())
		}
		defer func() { _ = o.lock.Unlock() }()
	}

	runID := o.runID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	o.runID = uuid.Nil
	rc := &RunContext{
		RunID:     runID,
		StartedAt: time.Now(),
	}
	rc.Logger = o.logger.With(slog.String("run_id", rc.RunID.String()))
	res := &Result{RunID: rc.RunID.String(), State: StateRunning}

	rc.Logger.Info("pipeline run starting", slog.Int("stages", len(o.stages)))

	for _, stage := range o.stages {
		start := time.Now()
		rc.Logger.Info("stage starting", slog.String("stage", stage.Name()))

		err := stage.Execute(ctx, rc)
		sr := StageResult{Name: stage.Name(), Duration: time.Since(start)}
		if err != nil {
			sr.Error = err.Error()
			res.Stages = append(res.Stages, sr)
			return o.finish(rc, res, StateFailed), pcerrors.StageFailed(stage.Name(), err)
		}
		res.Stages = append(res.Stages, sr)
		rc.Logger.Info("stage finished",
			slog.String("stage", stage.Name()),
			slog.Duration("duration", sr.Duration))

		if rc.ShortCircuit {
			res.ShortCircuited = true
			rc.Logger.Info("corpus unchanged and index present, nothing to do")
			break
		}
	}

	return o.finish(rc, res, StateSucceeded), nil
}

func (o *Orchestrator) finish(rc *RunContext, res *Result, state State) *Result {
	res.State = state
	res.Duration = time.Since(rc.StartedAt)
	res.Version = rc.Version
	res.Backfilled = rc.Backfilled
	res.BundlePath = rc.BundlePath

	level := slog.LevelInfo
	if state == StateFailed {
		level = slog.LevelError
	}
	rc.Logger.Log(context.Background(), level, "pipeline run finished",
		slog.String("state", string(state)),
		slog.Duration("duration", res.Duration))

	o.setState(StateIdle)
	return res
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}
