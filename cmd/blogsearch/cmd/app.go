package cmd

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/search"
	"github.com/Aman-CERP/blogsearch/internal/store"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
)

// app is the serving side of blogsearch wired from configuration: the
// read-only index, the front-matter registry and the engine over both.
type app struct {
	cfg      *config.Config
	index    *store.Index
	registry *content.Registry
	metrics  *telemetry.QueryMetrics
	engine   *search.Engine

	closeIndex bool
}

// openApp opens the index at its configured location. With shared set
// the process-wide handle is used and left open on Close.
func openApp(ctx context.Context, cfg *config.Config, shared bool) (_ *app, err error) {
	a := &app{cfg: cfg}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if shared {
		a.index, err = store.Shared(cfg.Paths.IndexDir)
	} else {
		a.index, err = store.Open(cfg.Paths.IndexDir)
		a.closeIndex = err == nil
	}
	if err != nil {
		return nil, err
	}

	a.registry, err = content.NewRegistry(ctx, content.NewFS(cfg.Paths.PostsDir))
	if err != nil {
		return nil, err
	}

	a.metrics = openMetrics(cfg)

	a.engine, err = search.NewEngine(a.index, a.registry,
		search.EngineConfigFrom(cfg.Search),
		search.WithMetrics(a.metrics))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// openMetrics returns an in-memory collector, persisted to SQLite when
// telemetry is enabled and the database opens.
func openMetrics(cfg *config.Config) *telemetry.QueryMetrics {
	if !cfg.Telemetry.Enabled {
		return telemetry.NewQueryMetrics(nil)
	}
	st, err := telemetry.Open(cfg.Paths.TelemetryDB)
	if err != nil {
		slog.Warn("telemetry_unavailable",
			slog.String("path", cfg.Paths.TelemetryDB),
			slog.String("error", err.Error()))
		return telemetry.NewQueryMetrics(nil)
	}
	return telemetry.NewQueryMetrics(st)
}

// Close flushes telemetry and closes what openApp opened.
func (a *app) Close() error {
	var firstErr error
	if a.metrics != nil {
		if err := a.metrics.Close(); err != nil {
			slog.Warn("telemetry_flush_failed", slog.String("error", err.Error()))
		}
	}
	if a.closeIndex && a.index != nil {
		if err := a.index.Close(); err != nil {
			firstErr = err
		}
	}
	return firstErr
}
