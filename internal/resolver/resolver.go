// Package resolver assembles facet bundles for document identifiers from the built
// index, the facet trees and the metadata tables.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/palicanon/internal/config"
	pcerrors "github.com/Aman-CERP/palicanon/internal/errors"
	"github.com/Aman-CERP/palicanon/internal/facet"
	"github.com/Aman-CERP/palicanon/internal/index"
	"github.com/Aman-CERP/palicanon/internal/legacy"
)

// Options configures a Resolver.
type Options struct {
	Layout           facet.Layout
	IndexPath        string
	LegacyMapPath    string
	LegacyDir        string
	AuthorTable      string // Absolute path of the author-metadata table
	PublicationTable string // Absolute path of the publication-metadata table
	PrimaryAuthor    string
	SecondaryAuthor  string
	CacheSize        int
	Logger           *slog.Logger
}

// OptionsFromConfig derives resolver options from configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Layout:           facet.NewLayout(cfg),
		IndexPath:        cfg.IndexPath(),
		LegacyMapPath:    cfg.LegacyMapPath(),
		LegacyDir:        cfg.LegacyDir(),
		AuthorTable:      filepath.Join(cfg.Paths.CorpusDir, cfg.Corpus.AuthorTable),
		PublicationTable: filepath.Join(cfg.Paths.CorpusDir, cfg.Corpus.PublicationTable),
		PrimaryAuthor:    cfg.Corpus.PrimaryAuthor,
		SecondaryAuthor:  cfg.Corpus.SecondaryAuthor,
		CacheSize:        cfg.Corpus.CacheSize,
	}
}

// state is the on-disk data a Resolver answers from; Reload swaps it whole.
type state struct {
	idx     index.Index
	legacy  legacy.Map
	authors map[string]AuthorInfo
	pubs    []Publication
}

// Resolver answers resolve and listing queries. It is safe for concurrent use.
type Resolver struct {
	opts   Options
	logger *slog.Logger
	cache  *lru.Cache[string, json.RawMessage]

	mu sync.RWMutex
	st state
}

// New creates a Resolver and loads its state.
func New(opts Options) (*Resolver, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 512
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cache, err := lru.New[string, json.RawMessage](opts.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}

	r := &Resolver{opts: opts, logger: logger, cache: cache}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the index, legacy map and metadata tables and purges the
// document cache. A missing index loads as empty; a corrupt one is an error and
// leaves the previous state in place.
func (r *Resolver) Reload() error {
	idx, err := index.Load(r.opts.IndexPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.logger.Warn("index not built yet", slog.String("path", r.opts.IndexPath))
		idx = index.Index{}
	case err != nil:
		return err
	}

	lm := legacy.Map{}
	if r.opts.LegacyMapPath != "" {
		if lm, err = legacy.LoadMap(r.opts.LegacyMapPath); err != nil {
			r.logger.Warn("legacy map unreadable, ignoring", pcerrors.FormatForLog(err)...)
			lm = legacy.Map{}
		}
	}

	st := state{idx: idx, legacy: lm, authors: map[string]AuthorInfo{}}

	if data, err := readOptional(r.opts.AuthorTable); err != nil {
		r.logger.Warn("author table unreadable", slog.String("error", err.Error()))
	} else if data != nil {
		if st.authors, err = parseAuthors(data); err != nil {
			r.logger.Warn("author table malformed", pcerrors.FormatForLog(pcerrors.MalformedData(r.opts.AuthorTable, err))...)
			st.authors = map[string]AuthorInfo{}
		}
	}

	if data, err := readOptional(r.opts.PublicationTable); err != nil {
		r.logger.Warn("publication table unreadable", slog.String("error", err.Error()))
	} else if data != nil {
		if st.pubs, err = parsePublications(data); err != nil {
			r.logger.Warn("publication table malformed", pcerrors.FormatForLog(pcerrors.MalformedData(r.opts.PublicationTable, err))...)
			st.pubs = nil
		}
	}

	r.mu.Lock()
	r.st = st
	r.mu.Unlock()
	r.cache.Purge()

	r.logger.Info("resolver loaded",
		slog.Int("entries", len(idx)),
		slog.Int("legacy", len(lm)),
		slog.Int("authors", len(st.authors)),
		slog.Int("publications", len(st.pubs)))
	return nil
}

func (r *Resolver) snapshot() state {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.st
}

// Index returns the currently loaded index. Callers must not mutate it.
func (r *Resolver) Index() index.Index {
	return r.snapshot().idx
}

// Resolve assembles the bundle for id. The author is requested if it has a
// translation, else the primary author, else the secondary, else the first in
// index order, else none. Only an unknown id fails; every facet that cannot be
// loaded resolves to empty content.
func (r *Resolver) Resolve(ctx context.Context, id, requested string) (*Bundle, error) {
	st := r.snapshot()
	entry, ok := st.idx.Get(id)
	if !ok {
		return nil, pcerrors.NotFound(id)
	}

	author := selectAuthor(entry, requested, r.opts.PrimaryAuthor, r.opts.SecondaryAuthor)
	b := &Bundle{
		ID:               id,
		SelectedAuthor:   author,
		AvailableAuthors: entry.Authors(),
		Root:             absent(facet.Root, ""),
		Translation:      absent(facet.Translation, ""),
		HTML:             absent(facet.HTML, ""),
		Comment:          absent(facet.Comment, ""),
		Variant:          absent(facet.Variant, ""),
		Reference:        absent(facet.Reference, ""),
		Publication:      emptyObject,
	}
	if author != "" {
		b.AuthorName = displayName(st.authors, author)
	}

	l := r.opts.Layout
	g, gctx := errgroup.WithContext(ctx)
	load := func(dst *Facet, kind facet.Kind, path string) {
		g.Go(func() error {
			*dst = r.loadFacet(gctx, kind, path)
			return nil
		})
	}

	if entry.HasRoot() {
		if rp, ok := facet.ParseRoot(entry.Root); ok {
			load(&b.Root, facet.Root, l.Root(rp))
			load(&b.HTML, facet.HTML, l.HTML(rp))
			load(&b.Variant, facet.Variant, l.Variant(rp))
			load(&b.Reference, facet.Reference, l.Reference(rp))
		} else {
			r.logger.Warn("index root path does not follow convention",
				slog.String("id", id), slog.String("path", entry.Root))
		}
	}
	if author != "" {
		if tp, ok := facet.ParseTranslation(entry.Translations[author]); ok {
			load(&b.Translation, facet.Translation, l.Translation(author, tp))
			load(&b.Comment, facet.Comment, l.Comment(author, tp))
		} else {
			r.logger.Warn("index translation path does not follow convention",
				slog.String("id", id), slog.String("author", author))
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if pub, ok := matchPublication(st.pubs, author, id); ok {
		b.Publication = pub.Raw
	}

	r.logger.Debug("resolved",
		slog.String("id", id),
		slog.String("author", author),
		slog.Any("missing", b.Missing()))
	return b, nil
}

// loadFacet reads and validates one facet document. Missing files and parse
// failures yield an absent facet.
func (r *Resolver) loadFacet(ctx context.Context, kind facet.Kind, path string) Facet {
	if ctx.Err() != nil {
		return absent(kind, path)
	}
	if doc, ok := r.cache.Get(path); ok {
		return Facet{Kind: kind, Present: true, Path: path, Content: doc}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.logger.Warn("facet unreadable", slog.String("facet", string(kind)), slog.String("path", path), slog.String("error", err.Error()))
		}
		return absent(kind, path)
	}

	doc, err := asObject(data)
	if err != nil {
		r.logger.Warn("facet skipped", pcerrors.FormatForLog(pcerrors.MalformedData(path, err))...)
		return absent(kind, path)
	}

	r.cache.Add(path, doc)
	return Facet{Kind: kind, Present: true, Path: path, Content: doc}
}

// asObject validates that data is a single JSON object.
func asObject(data []byte) (json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("document is null")
	}
	return json.RawMessage(data), nil
}

// selectAuthor applies the fallback chain: requested, primary, secondary, first.
func selectAuthor(e *index.Entry, requested, primary, secondary string) string {
	for _, candidate := range []string{requested, primary, secondary} {
		if candidate == "" {
			continue
		}
		if _, ok := e.Translations[candidate]; ok {
			return candidate
		}
	}
	if authors := e.Authors(); len(authors) > 0 {
		return authors[0]
	}
	return ""
}

func displayName(authors map[string]AuthorInfo, id string) string {
	if info, ok := authors[id]; ok && info.Name != "" {
		return info.Name
	}
	return id
}

// Translations lists the available translations of id with display names.
func (r *Resolver) Translations(id string) ([]AuthorRef, error) {
	st := r.snapshot()
	entry, ok := st.idx.Get(id)
	if !ok {
		return nil, pcerrors.NotFound(id)
	}
	refs := make([]AuthorRef, 0, len(entry.Translations))
	for _, a := range entry.Authors() {
		refs = append(refs, AuthorRef{ID: a, Name: displayName(st.authors, a), Path: entry.Translations[a]})
	}
	return refs, nil
}

// ResolveLegacy loads the backfilled document for id through the legacy map.
func (r *Resolver) ResolveLegacy(ctx context.Context, id string) (*LegacyBundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := r.snapshot()
	me, ok := st.legacy[id]
	if !ok {
		return nil, pcerrors.NotFound(id)
	}

	path := filepath.Join(r.opts.LegacyDir, filepath.FromSlash(me.Path))
	doc, err := legacy.ReadDocument(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, pcerrors.NotFound(id).WithDetail("path", me.Path)
	}
	if err != nil {
		return nil, err
	}

	return &LegacyBundle{
		ID:         id,
		Author:     me.Author,
		AuthorName: displayName(st.authors, me.Author),
		Document:   doc,
	}, nil
}
