package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Rebuild the search index",
		Long: `Rebuild the search index from every article under the posts directory.

The new index is written next to the old one and swapped in only when
complete, so a failed build leaves the previous index in place. The
normalized text of each article is kept under processed_text/ in the
index directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Ctrl+C cancels the build; the staging directory is removed.
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runIndex(ctx, cmd, noTUI)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, noTUI bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	uiCfg := ui.NewConfig(cmd.OutOrStdout(),
		ui.WithForcePlain(noTUI),
		ui.WithNoColor(ui.DetectNoColor()),
		ui.WithPostsDir(cfg.Paths.PostsDir))
	renderer := ui.NewRenderer(uiCfg)
	if err := renderer.Start(ctx); err != nil {
		slog.Warn("failed to start progress renderer", slog.String("error", err.Error()))
	}
	defer func() { _ = renderer.Stop() }()

	builder := index.NewBuilder(content.NewFS(cfg.Paths.PostsDir), index.Options{
		IndexDir:       cfg.Paths.IndexDir,
		StopwordsPath:  cfg.Paths.StopwordsPath,
		MaxTokenLength: cfg.Analysis.MaxTokenLength,
	}).WithRenderer(renderer)

	_, err = builder.Build(ctx)
	return err
}
