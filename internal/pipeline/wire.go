package pipeline

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/palicanon/internal/bundle"
	"github.com/Aman-CERP/palicanon/internal/config"
	"github.com/Aman-CERP/palicanon/internal/facet"
	"github.com/Aman-CERP/palicanon/internal/gitsync"
	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/legacy"
	"github.com/Aman-CERP/palicanon/internal/menu"
	"github.com/Aman-CERP/palicanon/internal/prune"
	"github.com/Aman-CERP/palicanon/internal/remote"
)

// DefaultStages wires the production collaborators for cfg in run order.
func DefaultStages(cfg *config.Config, logger *slog.Logger) ([]Stage, error) {
	client, err := remote.NewClientFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	repo := &gitsync.Repo{
		Dir:    cfg.Paths.CorpusDir,
		URL:    cfg.Sync.RepoURL,
		Branch: cfg.Sync.Branch,
		Logger: logger,
	}

	fetcher := menu.NewFetcher(client, cfg.MenusDir(), cfg.Remote.MenuDepth)

	pruneOpts := prune.OptionsFromConfig(cfg)
	pruneOpts.Logger = logger

	builder := index.NewBuilder(facet.NewLayout(cfg),
		index.WithLogger(logger),
		index.WithSampleID(cfg.Corpus.SampleID))

	backfillOpts := legacy.OptionsFromConfig(cfg)
	backfillOpts.Logger = logger
	backfiller := legacy.NewBackfiller(client, backfillOpts)

	bundler := &bundle.Bundler{
		OutDir: cfg.Paths.DataDir,
		Name:   cfg.Pipeline.BundleName,
		Artifacts: []bundle.Artifact{
			{Name: filepath.Base(cfg.IndexPath()), Path: cfg.IndexPath()},
			{Name: filepath.Base(cfg.LegacyMapPath()), Path: cfg.LegacyMapPath()},
			{Name: filepath.Base(cfg.LegacyDir()), Path: cfg.LegacyDir()},
			{Name: filepath.Base(cfg.MenusDir()), Path: cfg.MenusDir()},
		},
		Logger: logger,
	}

	return []Stage{
		&SyncStage{Repo: repo, IndexPath: cfg.IndexPath()},
		&CommitStage{Repo: repo, Now: time.Now},
		&MenusStage{Fetcher: fetcher},
		&PruneStage{Pruner: prune.New(pruneOpts)},
		&IndexStage{Builder: builder, IndexPath: cfg.IndexPath()},
		&BackfillStage{Backfiller: backfiller},
		&BundleStage{Bundler: bundler, Root: cfg.Paths.CorpusDir, Exclude: cfg.Pipeline.BundleExclude},
		&StampStage{Path: cfg.VersionPath(), Now: time.Now},
	}, nil
}

// NewFromConfig builds the production orchestrator, locked on the data directory.
// opts are applied after the defaults.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Orchestrator, error) {
	stages, err := DefaultStages(cfg, logger)
	if err != nil {
		return nil, err
	}
	all := append([]Option{WithLogger(logger), WithLock(NewFileLock(cfg.Paths.DataDir))}, opts...)
	return New(stages, all...), nil
}
