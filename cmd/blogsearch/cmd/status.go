package cmd

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
	"github.com/Aman-CERP/blogsearch/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		Long: `Display information about the current index including:
  - Number of indexed articles and when they were indexed
  - Size of the index directory
  - Articles and tags found under the posts directory
  - Whether the index is out of date with the posts`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	info, err := collectStatus(ctx, cfg)
	if err != nil {
		return err
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func collectStatus(ctx context.Context, cfg *config.Config) (ui.StatusInfo, error) {
	info := ui.StatusInfo{
		IndexDir:      cfg.Paths.IndexDir,
		PostsDir:      cfg.Paths.PostsDir,
		WatcherStatus: "n/a",
	}

	manifest, err := index.ReadManifest(cfg.Paths.IndexDir)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeFileNotFound {
			return info, apperrors.New(apperrors.ErrCodeIndexNotFound, "no index found", err).
				WithDetail("path", cfg.Paths.IndexDir).
				WithSuggestion("Run 'blogsearch index' to create one")
		}
		return info, err
	}
	info.Documents = manifest.Documents
	info.Fingerprint = manifest.Fingerprint
	info.BuiltAt = manifest.BuiltAt
	info.IndexSize = dirSize(cfg.Paths.IndexDir)

	registry, err := content.NewRegistry(ctx, content.NewFS(cfg.Paths.PostsDir))
	if err != nil {
		return info, err
	}
	snap := registry.Snapshot()
	info.Articles = snap.Len()
	info.Tags = len(snap.Tags())

	if cfg.Telemetry.Enabled {
		addTelemetry(ctx, &info, cfg.Paths.TelemetryDB)
	}
	return info, nil
}

// addTelemetry fills the query counters from the persisted store. A
// missing or unreadable database leaves them at zero.
func addTelemetry(ctx context.Context, info *ui.StatusInfo, path string) {
	db, err := telemetry.Open(path)
	if err != nil {
		return
	}
	defer func() { _ = db.Close() }()

	totals, err := db.Totals(ctx, 0)
	if err != nil {
		return
	}
	info.Queries = totals.Queries()
	info.ZeroResults = totals.ZeroResults()
}

// dirSize sums the sizes of the regular files under dir.
func dirSize(dir string) int64 {
	var size int64
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			size += fi.Size()
		}
		return nil
	})
	return size
}
