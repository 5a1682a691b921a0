package search

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
)

// SearchByTags lists the articles carrying every tag in tags, in the
// registry's order, without consulting the index. Scores are 0 and each
// snippet is the article description. An empty tag set lists every
// article. A non-positive limit selects the configured default.
func (e *Engine) SearchByTags(tags []string, order content.SortOrder, limit, offset int) *SearchResult {
	start := time.Now()
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}
	offset = max(offset, 0)

	matched := e.registry.Snapshot().WithTags(tags, order)
	count := uint64(len(matched))

	lo := min(offset, len(matched))
	hi := min(lo+limit, len(matched))
	page := matched[lo:hi]

	terms := make([]SearchTerm, len(page))
	for i, fm := range page {
		terms[i] = SearchTerm{Metadata: fm, Snippet: fm.Description}
	}

	result := &SearchResult{
		Count:   count,
		Elapsed: time.Since(start),
		Pages:   pages(count, limit),
		Terms:   terms,
	}
	wanted := content.NormalizeTags(tags)
	e.record(strings.Join(wanted, " "), telemetry.QueryTypeTags, wanted, result)
	slog.Debug("tag_search_completed",
		slog.Any("tags", tags),
		slog.String("order", order.String()),
		slog.Uint64("count", count),
		slog.Int("returned", len(terms)))
	return result
}

// Tags returns every tag with its article count.
func (e *Engine) Tags() []content.TagCount {
	return e.registry.Snapshot().Tags()
}
