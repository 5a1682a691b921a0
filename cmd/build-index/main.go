// Package main provides build-index, the standalone index build job.
//
// Usage:
//
//	build-index
//
// It takes no arguments. Configuration is read from .blogsearch.yaml in the
// working directory, and the index at the configured location is replaced
// by a fresh build of every article under the posts directory. On any
// failure the error is logged and the process exits with status 1.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/logging"
	"github.com/Aman-CERP/blogsearch/internal/ui"
)

func main() {
	if len(os.Args) > 1 {
		fmt.Fprintln(os.Stderr, "usage: build-index")
		os.Exit(2)
	}

	cleanup, err := logging.SetupDefault(logging.BuildConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx)
	stop()

	if err != nil {
		slog.Error("build_index_failed", apperrors.LogAttrs(err)...)
		cleanup()
		os.Exit(1)
	}
	cleanup()
}

func run(ctx context.Context) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if _, err := analysis.LoadSegmenter(cfg.Analysis.UserDict); err != nil {
		return apperrors.ConfigError("failed to load segmentation dictionary", err)
	}

	renderer := ui.NewRenderer(ui.NewConfig(os.Stdout,
		ui.WithForcePlain(true),
		ui.WithNoColor(true),
		ui.WithPostsDir(cfg.Paths.PostsDir)))
	if err := renderer.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = renderer.Stop() }()

	manifest, err := index.NewBuilder(content.NewFS(cfg.Paths.PostsDir), index.Options{
		IndexDir:       cfg.Paths.IndexDir,
		StopwordsPath:  cfg.Paths.StopwordsPath,
		MaxTokenLength: cfg.Analysis.MaxTokenLength,
	}).WithRenderer(renderer).Build(ctx)
	if err != nil {
		return err
	}

	slog.Info("build_index_completed",
		slog.String("index_dir", cfg.Paths.IndexDir),
		slog.Int("documents", manifest.Documents),
		slog.String("fingerprint", manifest.Fingerprint))
	return nil
}
