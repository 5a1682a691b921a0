// Package watcher reloads the front-matter registry when articles change.
//
// A HybridWatcher follows the posts directory with fsnotify and falls back
// to polling where fsnotify is unavailable (network mounts, some container
// volumes). Only front-matter files and article directories produce events,
// and rapid changes are debounced into batches. A Reloader turns each batch,
// and every SIGHUP, into one registry reload. The index is never touched.
//
// Usage:
//
//	w, err := watcher.NewHybridWatcher(opts)
//	if err != nil {
//	    return err
//	}
//	r := watcher.NewReloader(registry, w, postsDir)
//	go func() { _ = r.Run(ctx) }()
package watcher
