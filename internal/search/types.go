// Package search executes ranked article queries against the read-only
// index. Free-text queries are analyzed into boosted boolean queries with a
// phrase-proximity bonus; tag-only queries are answered from the front-matter
// registry without touching the index.
package search

import (
	"time"

	"github.com/Aman-CERP/blogsearch/internal/content"
)

// SearchTerm is one ranked hit as shown to readers.
type SearchTerm struct {
	// Score is the relevance score. Tag-only results carry 0.
	Score float64 `json:"score"`

	// Metadata is the front matter of the matched article.
	Metadata *content.FrontMatter `json:"metadata"`

	// Snippet is an HTML excerpt with matches wrapped in <b>. For tag-only
	// results it is the article description.
	Snippet string `json:"snippet"`
}

// SearchResult is a page of hits. A result with Count 0 is valid.
type SearchResult struct {
	// Count is the exact number of matching articles across all pages.
	Count uint64 `json:"count"`

	// Elapsed is the wall-clock time spent answering the query.
	Elapsed time.Duration `json:"elapsed"`

	// Pages is ceil(Count/limit), or 0 when limit is 0.
	Pages int `json:"pages"`

	// Terms are the hits of the requested page, best first.
	Terms []SearchTerm `json:"terms"`
}

func emptyResult(start time.Time) *SearchResult {
	return &SearchResult{
		Elapsed: time.Since(start),
		Terms:   []SearchTerm{},
	}
}

// pages returns ceil(count/limit).
func pages(count uint64, limit int) int {
	if limit <= 0 {
		return 0
	}
	l := uint64(limit)
	return int((count + l - 1) / l)
}
