package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/mcp"
	"github.com/Aman-CERP/blogsearch/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var transport string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve search over MCP",
		Long: `Start an MCP server answering search_articles, search_tags,
list_tags and index_status over stdin/stdout.

The index is opened once and shared by every request. Front matter is
reloaded when files under the posts directory change, and on SIGHUP.
Logs go to ~/.blogsearch/logs/ since stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, transport)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio)")

	return cmd
}

func runServe(ctx context.Context, transport string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := openApp(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	srv, err := mcp.NewServer(a.engine, a.registry, cfg)
	if err != nil {
		return err
	}
	srv.SetMetrics(a.metrics)

	var w *watcher.HybridWatcher
	if cfg.Watch.Enabled {
		opts, err := watcher.OptionsFrom(cfg.Watch)
		if err != nil {
			return err
		}
		w, err = watcher.NewHybridWatcher(opts)
		if err != nil {
			slog.Warn("watcher_unavailable", slog.String("error", err.Error()))
			w = nil
		}
	}
	reloader := watcher.NewReloader(a.registry, w, cfg.Paths.PostsDir)
	srv.SetReloader(reloader)

	reloadCtx, cancelReload := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := reloader.Run(reloadCtx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("reloader_stopped", slog.String("error", err.Error()))
		}
	}()
	defer func() {
		cancelReload()
		<-done
	}()

	slog.Info("serve_started",
		slog.String("index_dir", cfg.Paths.IndexDir),
		slog.String("posts_dir", cfg.Paths.PostsDir),
		slog.Int("articles", a.registry.Snapshot().Len()),
		slog.Bool("watch", w != nil))

	err = srv.Serve(ctx, transport)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
