package mcp

import (
	"fmt"
	"strings"
	"time"

	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/search"
)

var highlightToMarkdown = strings.NewReplacer("<b>", "**", "</b>", "**")

// FormatSearchResults formats a free-text result page as markdown.
func FormatSearchResults(query string, res *search.SearchResult) string {
	if res == nil || len(res.Terms) == 0 {
		return fmt.Sprintf("No articles found for \"%s\"", query)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Search Results for \"%s\"\n\n", query)
	writeCount(&sb, res)

	for i, term := range res.Terms {
		formatArticle(&sb, i+1, term, true)
	}
	return sb.String()
}

// FormatTagResults formats a tag-only result page as markdown.
func FormatTagResults(tags []string, res *search.SearchResult) string {
	label := strings.Join(tags, ", ")
	if label == "" {
		label = "all articles"
	}
	if res == nil || len(res.Terms) == 0 {
		return fmt.Sprintf("No articles tagged %s", label)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Articles tagged %s\n\n", label)
	writeCount(&sb, res)

	for i, term := range res.Terms {
		formatArticle(&sb, i+1, term, false)
	}
	return sb.String()
}

// FormatTags formats the tag catalogue as a markdown list.
func FormatTags(tags []content.TagCount) string {
	if len(tags) == 0 {
		return "No tags."
	}
	var sb strings.Builder
	sb.WriteString("## Tags\n\n")
	for _, tc := range tags {
		fmt.Fprintf(&sb, "- %s (%d)\n", tc.Name, tc.Count)
	}
	return sb.String()
}

func writeCount(sb *strings.Builder, res *search.SearchResult) {
	fmt.Fprintf(sb, "Found %d article", res.Count)
	if res.Count != 1 {
		sb.WriteString("s")
	}
	if res.Pages > 1 {
		fmt.Fprintf(sb, " (%d pages)", res.Pages)
	}
	sb.WriteString("\n\n")
}

func formatArticle(sb *strings.Builder, num int, term search.SearchTerm, scored bool) {
	fm := term.Metadata
	if fm == nil {
		return
	}

	if scored {
		fmt.Fprintf(sb, "### %d. %s (score: %.2f)\n", num, fm.Title, term.Score)
	} else {
		fmt.Fprintf(sb, "### %d. %s\n", num, fm.Title)
	}
	fmt.Fprintf(sb, "`%s`", fm.FileName)
	if !fm.Posted.IsZero() {
		fmt.Fprintf(sb, " · %s", fm.Posted.Format(time.DateOnly))
	}
	if len(fm.Tags) > 0 {
		fmt.Fprintf(sb, " · %s", strings.Join(fm.Tags, ", "))
	}
	sb.WriteString("\n\n")

	if term.Snippet != "" {
		sb.WriteString(highlightToMarkdown.Replace(term.Snippet))
		sb.WriteString("\n\n")
	}
}

// clampLimit ensures limit is within bounds.
func clampLimit(limit, defaultVal, min, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit < min {
		return min
	}
	if limit > max {
		return max
	}
	return limit
}

// ToArticlesOutput converts a result page to the structured tool output.
func ToArticlesOutput(res *search.SearchResult) ArticlesOutput {
	out := ArticlesOutput{Results: []ArticleOutput{}}
	if res == nil {
		return out
	}
	out.Count = res.Count
	out.Pages = res.Pages
	out.ElapsedMs = res.Elapsed.Milliseconds()
	for _, term := range res.Terms {
		if term.Metadata != nil {
			out.Results = append(out.Results, toArticleOutput(term))
		}
	}
	return out
}

func toArticleOutput(term search.SearchTerm) ArticleOutput {
	fm := term.Metadata
	out := ArticleOutput{
		Path:        fm.FileName,
		Title:       fm.Title,
		Description: fm.Description,
		Tags:        fm.Tags,
		Score:       term.Score,
		Snippet:     term.Snippet,
	}
	if !fm.Posted.IsZero() {
		out.Posted = fm.Posted.Format(time.RFC3339)
	}
	if !fm.Updated.IsZero() {
		out.Updated = fm.Updated.Format(time.RFC3339)
	}
	return out
}
