package legacy

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"time"

	"github.com/Aman-CERP/palicanon/internal/config"
	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/menu"
	"github.com/Aman-CERP/palicanon/internal/remote"
)

// FlushEvery is the number of additions between legacy map flushes.
const FlushEvery = 10

// Source fetches translation lists and documents from the remote service.
type Source interface {
	Translations(ctx context.Context, uid string) ([]remote.TranslationRef, error)
	Document(ctx context.Context, uid, author, lang string) (*remote.Document, error)
}

// Options configures a Backfiller.
type Options struct {
	IndexPath     string
	LegacyMapPath string
	LegacyDir     string
	MenusDir      string
	Language      string
	Delay         time.Duration
	Logger        *slog.Logger
}

// OptionsFromConfig derives backfill options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IndexPath:     cfg.IndexPath(),
		LegacyMapPath: cfg.LegacyMapPath(),
		LegacyDir:     cfg.LegacyDir(),
		MenusDir:      cfg.MenusDir(),
		Language:      cfg.Corpus.Language,
		Delay:         cfg.PoliteDelay(),
	}
}

// Backfiller fetches documents that the navigation tree lists but the corpus
// does not contain.
type Backfiller struct {
	source Source
	opts   Options
	logger *slog.Logger
	calls  int
	sleep  func(ctx context.Context, d time.Duration) error
}

// NewBackfiller creates a Backfiller.
func NewBackfiller(source Source, opts Options) *Backfiller {
	if opts.Language == "" {
		opts.Language = "en"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Backfiller{source: source, opts: opts, logger: logger, sleep: sleepCtx}
}

// Run backfills every leaf identifier absent from both the index and the legacy
// map, and returns how many documents were added.
func (b *Backfiller) Run(ctx context.Context) (int, error) {
	idx, err := index.Load(b.opts.IndexPath)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Warn("index missing, treating every leaf as uncovered", slog.String("path", b.opts.IndexPath))
		idx = index.Index{}
	} else if err != nil {
		return 0, err
	}

	m, err := LoadMap(b.opts.LegacyMapPath)
	if err != nil {
		return 0, err
	}

	leaves, err := menu.Leaves(b.opts.MenusDir)
	if err != nil {
		return 0, fmt.Errorf("collect menu leaves: %w", err)
	}

	var missing []string
	for _, id := range leaves {
		if idx.Has(id) {
			continue
		}
		if _, ok := m[id]; ok {
			continue
		}
		missing = append(missing, id)
	}
	sort.Strings(missing)

	b.logger.Info("backfill starting",
		slog.Int("leaves", len(leaves)),
		slog.Int("indexed", len(idx)),
		slog.Int("legacy", len(m)),
		slog.Int("missing", len(missing)))

	return b.process(ctx, m, missing)
}

// Retry refetches the given identifiers even if they are already mapped,
// overwriting their legacy map entries.
func (b *Backfiller) Retry(ctx context.Context, ids []string) (int, error) {
	m, err := LoadMap(b.opts.LegacyMapPath)
	if err != nil {
		return 0, err
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return b.process(ctx, m, sorted)
}

func (b *Backfiller) process(ctx context.Context, m Map, ids []string) (int, error) {
	added := 0
	pending := 0
	var runErr error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if !ValidID(id) {
			b.logger.Warn("skipping unsafe identifier", slog.String("id", id))
			continue
		}

		entry, ok := b.fetch(ctx, id)
		if !ok {
			continue
		}
		m[id] = entry
		added++
		pending++

		if pending >= FlushEvery {
			if err := SaveMap(b.opts.LegacyMapPath, m); err != nil {
				return added, err
			}
			pending = 0
			b.logger.Debug("legacy map flushed", slog.Int("entries", len(m)))
		}
	}

	if err := SaveMap(b.opts.LegacyMapPath, m); err != nil {
		return added, err
	}
	b.logger.Info("backfill finished", slog.Int("added", added), slog.Int("legacy", len(m)))
	return added, runErr
}

// fetch retrieves and persists one document. Any failure is logged and reported
// as no content.
func (b *Backfiller) fetch(ctx context.Context, id string) (MapEntry, bool) {
	if err := b.pace(ctx); err != nil {
		return MapEntry{}, false
	}
	refs, err := b.source.Translations(ctx, id)
	if err != nil {
		b.logFailure(id, "translation list", err)
		return MapEntry{}, false
	}

	var author string
	for _, ref := range refs {
		if ref.Lang == b.opts.Language && ValidID(ref.AuthorUID) {
			author = ref.AuthorUID
			break
		}
	}
	if author == "" {
		b.logger.Info("no translation available", slog.String("id", id), slog.String("lang", b.opts.Language))
		return MapEntry{}, false
	}

	if err := b.pace(ctx); err != nil {
		return MapEntry{}, false
	}
	doc, err := b.source.Document(ctx, id, author, b.opts.Language)
	if err != nil {
		b.logFailure(id, "document", err)
		return MapEntry{}, false
	}

	text := remote.HTMLToText(doc.Text)
	if text == "" {
		b.logger.Info("document has no text", slog.String("id", id), slog.String("author", author))
		return MapEntry{}, false
	}

	rel, err := WriteDocument(b.opts.LegacyDir, &Document{
		UID:    id,
		Author: author,
		Lang:   b.opts.Language,
		Title:  doc.Title,
		Text:   text,
	})
	if err != nil {
		b.logFailure(id, "write", err)
		return MapEntry{}, false
	}

	b.logger.Debug("document backfilled", slog.String("id", id), slog.String("author", author))
	return MapEntry{Author: author, Path: rel}, true
}

// pace sleeps the politeness delay before every network call except the first.
func (b *Backfiller) pace(ctx context.Context) error {
	b.calls++
	if b.calls == 1 || b.opts.Delay <= 0 {
		return ctx.Err()
	}
	return b.sleep(ctx, b.opts.Delay)
}

func (b *Backfiller) logFailure(id, what string, err error) {
	attrs := append([]any{slog.String("id", id), slog.String("step", what)}, pcerrors.FormatForLog(err)...)
	b.logger.Warn("backfill fetch failed", attrs...)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
