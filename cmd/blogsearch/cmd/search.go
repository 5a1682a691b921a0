package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/output"
	"github.com/Aman-CERP/blogsearch/internal/search"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	tags   []string
	limit  int
	offset int
	order  string
	json   bool
	lucky  bool
	random bool
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search articles",
		Long: `Search the indexed articles.

Query words are matched in titles and bodies; articles with the words
close together rank higher. Chinese queries need no spaces.

With --tags only articles carrying every listed tag are returned. With
tags and no query, articles are listed newest first.

Examples:
  blogsearch search machine learning
  blogsearch search 机器学习 --limit 5
  blogsearch search channels --tags go,concurrency
  blogsearch search --tags go --order updated
  blogsearch search rust --lucky`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.tags, "tags", "t", nil, "Only articles carrying all of these tags (comma-separated or repeated)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Results per page (default from config)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "Number of results to skip")
	cmd.Flags().StringVar(&opts.order, "order", "posted", "Order of tag-only listings: posted, updated")
	cmd.Flags().BoolVar(&opts.json, "json", false, "Output the result page as JSON")
	cmd.Flags().BoolVar(&opts.lucky, "lucky", false, "Print only the path of the best match")
	cmd.Flags().BoolVar(&opts.random, "random", false, "With --lucky, pick one of the top ten matches at random")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	if strings.TrimSpace(query) == "" && len(opts.tags) == 0 {
		return apperrors.ValidationError("a query or --tags is required", nil).
			WithSuggestion("Try 'blogsearch search <words>' or 'blogsearch tags'")
	}
	if opts.offset < 0 {
		return apperrors.ValidationError("--offset must not be negative", nil)
	}
	if opts.random && !opts.lucky {
		return apperrors.ValidationError("--random requires --lucky", nil)
	}
	order, err := content.ParseSortOrder(opts.order)
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

	if opts.lucky {
		path, err := a.engine.Lucky(ctx, query, opts.tags, opts.random)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	}

	var res *search.SearchResult
	if strings.TrimSpace(query) == "" {
		res = a.engine.SearchByTags(opts.tags, order, opts.limit, opts.offset)
	} else {
		res, err = a.engine.SearchByText(ctx, query, opts.tags, opts.limit, opts.offset)
		if err != nil {
			return err
		}
	}
	slog.Info("search_cli_completed",
		slog.String("query", query),
		slog.Uint64("count", res.Count))

	if opts.json {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	limit := opts.limit
	if limit <= 0 {
		limit = a.engine.Config().DefaultLimit
	}
	printResults(output.NewAuto(cmd.OutOrStdout()), res, limit, opts.offset)
	return nil
}

// printResults writes one page of hits and the summary line.
func printResults(out *output.Writer, res *search.SearchResult, limit, offset int) {
	if res.Count == 0 {
		out.Warning("No articles found")
		return
	}
	for i, term := range res.Terms {
		out.Hit(output.Hit{
			Rank:    offset + i + 1,
			Title:   term.Metadata.Title,
			Path:    term.Metadata.FileName,
			Score:   term.Score,
			Tags:    term.Metadata.Tags,
			Snippet: term.Snippet,
		})
		out.Newline()
	}
	page := offset/limit + 1
	out.Summary(len(res.Terms), res.Count, page, res.Pages, float64(res.Elapsed.Microseconds())/1000)
}
