// Package watcher watches the data directory and reloads the resolver when the
// files it serves from are replaced.
//
// Writers replace those files by renaming a temporary file over them, so the
// watcher observes the directory rather than the files themselves. Events are
// debounced so that a pipeline run that rewrites the index and the legacy map in
// quick succession causes a single reload.
//
// Usage:
//
//	w, err := watcher.New(cfg.Paths.DataDir, watcher.Options{
//	    DebounceWindow: cfg.WatchDebounce(),
//	    Names:          []string{"index.json", "legacy_map.json"},
//	})
//	if err != nil {
//	    return err
//	}
//	go func() { _ = w.Run(ctx, watcher.ReloadOnChange(res, logger)) }()
package watcher
