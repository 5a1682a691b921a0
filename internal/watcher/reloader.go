package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Reloadable is anything that can re-read its source, such as
// *content.Registry.
type Reloadable interface {
	Reload(ctx context.Context) error
}

// Reloader reloads a target on every debounced watcher batch and on every
// SIGHUP. Reloads run one at a time on the Run goroutine.
type Reloader struct {
	target  Reloadable
	watcher *HybridWatcher
	dir     string
	signals <-chan os.Signal

	reloads  atomic.Int64
	failures atomic.Int64
	mode     atomic.Value
}

// NewReloader creates a Reloader. w may be nil, in which case only
// signals trigger reloads.
func NewReloader(target Reloadable, w *HybridWatcher, dir string) *Reloader {
	r := &Reloader{target: target, watcher: w, dir: dir}
	r.mode.Store("stopped")
	return r
}

// WithSignals replaces the SIGHUP subscription with ch.
func (r *Reloader) WithSignals(ch <-chan os.Signal) *Reloader {
	r.signals = ch
	return r
}

// Run blocks until ctx is cancelled. A watcher that fails to start is
// logged and Run carries on with signals only.
func (r *Reloader) Run(ctx context.Context) error {
	signals := r.signals
	if signals == nil {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGHUP)
		defer signal.Stop(ch)
		signals = ch
	}

	var (
		events   <-chan []FileEvent
		errs     <-chan error
		startErr chan error
	)
	if r.watcher != nil {
		events, errs = r.watcher.Events(), r.watcher.Errors()
		startErr = make(chan error, 1)
		go func() { startErr <- r.watcher.Start(ctx, r.dir) }()
		defer func() { _ = r.watcher.Stop() }()
		r.mode.Store(r.watcher.WatcherType())
	} else {
		r.mode.Store("signal")
	}
	defer r.mode.Store("stopped")

	slog.Info("reloader_started",
		slog.String("dir", r.dir),
		slog.String("mode", r.Mode()))

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-signals:
			r.reload(ctx, "signal", 0)

		case batch, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			r.reload(ctx, "watch", len(batch))

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))

		case err := <-startErr:
			startErr = nil
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("watcher_failed",
					slog.String("dir", r.dir),
					slog.String("fallback", "signal"),
					slog.String("error", err.Error()))
				events, errs = nil, nil
				r.mode.Store("signal")
			}
		}
	}
}

func (r *Reloader) reload(ctx context.Context, trigger string, changes int) {
	slog.Debug("registry_reload_triggered",
		slog.String("trigger", trigger),
		slog.Int("changes", changes))
	if err := r.target.Reload(ctx); err != nil {
		r.failures.Add(1)
		return
	}
	r.reloads.Add(1)
}

// Reloads returns the number of successful reloads.
func (r *Reloader) Reloads() int64 {
	return r.reloads.Load()
}

// Failures returns the number of failed reloads.
func (r *Reloader) Failures() int64 {
	return r.failures.Load()
}

// Mode returns how changes are detected: "fsnotify", "polling", "signal"
// or "stopped".
func (r *Reloader) Mode() string {
	return r.mode.Load().(string)
}
