package mcp

import (
	"github.com/Aman-CERP/blogsearch/internal/content"
)

// SearchArticlesInput defines the input schema for the search_articles tool.
type SearchArticlesInput struct {
	Query  string   `json:"query" jsonschema:"free-text query; Chinese and English are both supported"`
	Tags   []string `json:"tags,omitempty" jsonschema:"only return articles carrying every one of these tags"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Offset int      `json:"offset,omitempty" jsonschema:"number of ranked results to skip"`
}

// SearchTagsInput defines the input schema for the search_tags tool.
type SearchTagsInput struct {
	Tags   []string `json:"tags" jsonschema:"articles must carry every one of these tags; empty lists all articles"`
	Order  string   `json:"order,omitempty" jsonschema:"sort order: posted (default) or updated"`
	Limit  int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Offset int      `json:"offset,omitempty" jsonschema:"number of results to skip"`
}

// ListTagsInput defines the input schema for the list_tags tool (no parameters).
type ListTagsInput struct{}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// ArticlesOutput defines the output schema of both search tools.
type ArticlesOutput struct {
	Count     uint64          `json:"count" jsonschema:"number of matching articles across all pages"`
	Pages     int             `json:"pages" jsonschema:"number of pages at the requested limit"`
	ElapsedMs int64           `json:"elapsed_ms" jsonschema:"time spent answering the query"`
	Results   []ArticleOutput `json:"results" jsonschema:"the requested page, best first"`
}

// ArticleOutput is one hit.
type ArticleOutput struct {
	Path        string   `json:"path" jsonschema:"article id: its directory under the posts directory"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Posted      string   `json:"posted,omitempty"`
	Updated     string   `json:"updated,omitempty"`
	Score       float64  `json:"score" jsonschema:"relevance score; 0 for tag-only results"`
	Snippet     string   `json:"snippet" jsonschema:"excerpt with matches wrapped in <b>"`
}

// ListTagsOutput defines the output schema for the list_tags tool.
type ListTagsOutput struct {
	Tags []content.TagCount `json:"tags"`
}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Index    IndexInfo    `json:"index"`
	Registry RegistryInfo `json:"registry"`
	Reload   ReloadInfo   `json:"reload"`
}

// IndexInfo describes the on-disk index, read from its manifest.
type IndexInfo struct {
	Path        string `json:"path"`
	Available   bool   `json:"available"`
	Documents   int    `json:"documents"`
	Stopwords   int    `json:"stopwords"`
	Fingerprint string `json:"fingerprint,omitempty"`
	BuiltAt     string `json:"built_at,omitempty"`
	Error       string `json:"error,omitempty"` // Why the manifest could not be read
}

// RegistryInfo describes the in-memory front-matter registry.
type RegistryInfo struct {
	Articles int    `json:"articles"`
	Tags     int    `json:"tags"`
	LoadedAt string `json:"loaded_at"`
}

// ReloadInfo describes front-matter hot reload.
type ReloadInfo struct {
	Mode     string `json:"mode"` // "fsnotify", "polling", "signal", "stopped" or "disabled"
	Reloads  int64  `json:"reloads"`
	Failures int64  `json:"failures"`
}
