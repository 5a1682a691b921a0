package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/output"
)

func newTagsCmd() *cobra.Command {
	var (
		order      string
		limit      int
		offset     int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "tags [tag...]",
		Short: "List tags, or the articles carrying them",
		Long: `Without arguments, list every tag with its article count.

With tags, list the articles carrying all of them, newest first. Tags
match case-insensitively.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTags(cmd.Context(), cmd, args, order, limit, offset, jsonOutput)
		},
	}

	cmd.Flags().StringVar(&order, "order", "posted", "Sort by posted or updated date")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Articles per page (default from config)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of articles to skip")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runTags(ctx context.Context, cmd *cobra.Command, tags []string, order string, limit, offset int, jsonOutput bool) error {
	sortOrder, err := content.ParseSortOrder(order)
	if err != nil {
		return apperrors.ValidationError(err.Error(), err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := openApp(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if len(tags) == 0 {
		catalogue := a.engine.Tags()
		if jsonOutput {
			return enc.Encode(catalogue)
		}
		for _, tc := range catalogue {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-24s %d\n", tc.Name, tc.Count)
		}
		return nil
	}

	res := a.engine.SearchByTags(tags, sortOrder, limit, offset)
	if jsonOutput {
		return enc.Encode(res)
	}
	if limit <= 0 {
		limit = a.engine.Config().DefaultLimit
	}
	printResults(output.NewAuto(cmd.OutOrStdout()), res, limit, max(offset, 0))
	return nil
}
