// Package pipeline refreshes the corpus and everything derived from it in a
// fixed sequence of stages.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Aman-CERP/palicanon/internal/index"
)

// Stage is one step of a pipeline run.
type Stage interface {
	Name() string
	Execute(ctx context.Context, rc *RunContext) error
}

// Stage names, in run order.
const (
	StageSync     = "sync"
	StageCommit   = "commit"
	StageMenus    = "menus"
	StagePrune    = "prune"
	StageIndex    = "index"
	StageBackfill = "backfill"
	StageBundle   = "bundle"
	StageStamp    = "stamp"
)

// State is the lifecycle state of a run.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// RunContext carries state through the stages of one run.
type RunContext struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Logger    *slog.Logger

	// Set by sync
	Changed      bool
	SyncErr      error
	ShortCircuit bool

	// Set by commit
	Revision     string
	RevisionTime time.Time

	Menus      int
	Pruned     []string
	IndexStats index.Stats
	Backfilled int
	BundlePath string
	Version    *Version
}
