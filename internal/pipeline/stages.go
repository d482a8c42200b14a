package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/index"
)

// Syncer is the corpus version-control collaborator.
type Syncer interface {
	IsInitialized() bool
	Clone(ctx context.Context) error
	Pull(ctx context.Context) (bool, error)
	Revision(ctx context.Context) (string, error)
	RevisionTime(ctx context.Context) (time.Time, error)
}

// MenuRefresher re-fetches the navigation tree.
type MenuRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// Pruner trims the corpus to the served locales.
type Pruner interface {
	Prune() ([]string, error)
}

// IndexBuilder rebuilds and persists the index.
type IndexBuilder interface {
	BuildAndSave(ctx context.Context, path string) (*index.Result, error)
}

// Backfiller fetches documents missing from the corpus.
type Backfiller interface {
	Run(ctx context.Context) (int, error)
}

// Bundler packages the corpus.
type Bundler interface {
	Bundle(ctx context.Context, root string, exclude []string) (string, error)
}

// SyncStage clones or updates the corpus. Its failures never abort the run.
type SyncStage struct {
	Repo      Syncer
	IndexPath string
}

func (s *SyncStage) Name() string { return StageSync }

func (s *SyncStage) Execute(ctx context.Context, rc *RunContext) error {
	if !s.Repo.IsInitialized() {
		if err := s.Repo.Clone(ctx); err != nil {
			rc.SyncErr = err
			rc.Logger.Warn("corpus clone failed, continuing with local state",
				pcerrors.FormatForLog(err)...)
			return nil
		}
		rc.Changed = true
		return nil
	}

	changed, err := s.Repo.Pull(ctx)
	if err != nil {
		rc.SyncErr = err
		rc.Logger.Warn("corpus update failed, continuing with local state",
			pcerrors.FormatForLog(err)...)
		return nil
	}
	rc.Changed = changed

	if !changed && index.Exists(s.IndexPath) {
		rc.ShortCircuit = true
	}
	return nil
}

// CommitStage records the corpus revision, defaulting when it is unavailable.
type CommitStage struct {
	Repo Syncer
	Now  func() time.Time
}

func (s *CommitStage) Name() string { return StageCommit }

func (s *CommitStage) Execute(ctx context.Context, rc *RunContext) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	rev, err := s.Repo.Revision(ctx)
	if err != nil || rev == "" {
		rc.Logger.Warn("revision unavailable", slog.String("default", UnknownRevision))
		rev = UnknownRevision
	}
	ts, err := s.Repo.RevisionTime(ctx)
	if err != nil {
		ts = now()
	}

	rc.Revision = rev
	rc.RevisionTime = ts.UTC()
	rc.Logger.Info("corpus revision", slog.String("revision", rev), slog.Time("revision_time", rc.RevisionTime))
	return nil
}

// MenusStage refreshes the flat menus directory.
type MenusStage struct {
	Fetcher MenuRefresher
}

func (s *MenusStage) Name() string { return StageMenus }

func (s *MenusStage) Execute(ctx context.Context, rc *RunContext) error {
	n, err := s.Fetcher.Refresh(ctx)
	if err != nil {
		return err
	}
	rc.Menus = n
	return nil
}

// PruneStage removes unserved locales and auxiliary files.
type PruneStage struct {
	Pruner Pruner
}

func (s *PruneStage) Name() string { return StagePrune }

func (s *PruneStage) Execute(_ context.Context, rc *RunContext) error {
	removed, err := s.Pruner.Prune()
	if err != nil {
		return err
	}
	rc.Pruned = removed
	return nil
}

// IndexStage rebuilds the index.
type IndexStage struct {
	Builder   IndexBuilder
	IndexPath string
}

func (s *IndexStage) Name() string { return StageIndex }

func (s *IndexStage) Execute(ctx context.Context, rc *RunContext) error {
	res, err := s.Builder.BuildAndSave(ctx, s.IndexPath)
	if err != nil {
		return err
	}
	rc.IndexStats = res.Stats
	return nil
}

// BackfillStage fills gaps from the legacy source.
type BackfillStage struct {
	Backfiller Backfiller
}

func (s *BackfillStage) Name() string { return StageBackfill }

func (s *BackfillStage) Execute(ctx context.Context, rc *RunContext) error {
	n, err := s.Backfiller.Run(ctx)
	if err != nil {
		return err
	}
	rc.Backfilled = n
	return nil
}

// BundleStage archives the pruned corpus.
type BundleStage struct {
	Bundler Bundler
	Root    string
	Exclude []string
}

func (s *BundleStage) Name() string { return StageBundle }

func (s *BundleStage) Execute(ctx context.Context, rc *RunContext) error {
	out, err := s.Bundler.Bundle(ctx, s.Root, s.Exclude)
	if err != nil {
		return err
	}
	if out == "" {
		return fmt.Errorf("bundler produced no archive")
	}
	rc.BundlePath = out
	return nil
}

// StampStage publishes the data version. It must run after BundleStage.
type StampStage struct {
	Path string
	Now  func() time.Time
}

func (s *StampStage) Name() string { return StageStamp }

func (s *StampStage) Execute(_ context.Context, rc *RunContext) error {
	if rc.BundlePath == "" {
		return fmt.Errorf("no bundle was produced in this run")
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	v := &Version{
		Revision:          rc.Revision,
		RevisionTimestamp: rc.RevisionTime,
		ProducedAt:        now().UTC(),
		RunID:             rc.RunID.String(),
	}
	if v.Revision == "" {
		v.Revision = UnknownRevision
	}
	if err := WriteVersion(s.Path, v); err != nil {
		return err
	}
	rc.Version = v
	return nil
}
