package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/search"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
	"github.com/Aman-CERP/blogsearch/internal/watcher"
)

// MockSearcher implements Searcher for testing.
type MockSearcher struct {
	TextFn func(ctx context.Context, query string, tags []string, limit, offset int) (*search.SearchResult, error)
	TagsFn func(tags []string, order content.SortOrder, limit, offset int) *search.SearchResult

	lastLimit  int
	lastOffset int
	lastOrder  content.SortOrder
}

func (m *MockSearcher) SearchByText(ctx context.Context, query string, tags []string, limit, offset int) (*search.SearchResult, error) {
	m.lastLimit, m.lastOffset = limit, offset
	if m.TextFn != nil {
		return m.TextFn(ctx, query, tags, limit, offset)
	}
	return &search.SearchResult{Terms: []search.SearchTerm{}}, nil
}

func (m *MockSearcher) SearchByTags(tags []string, order content.SortOrder, limit, offset int) *search.SearchResult {
	m.lastLimit, m.lastOffset, m.lastOrder = limit, offset, order
	if m.TagsFn != nil {
		return m.TagsFn(tags, order, limit, offset)
	}
	return &search.SearchResult{Terms: []search.SearchTerm{}}
}

func (m *MockSearcher) Tags() []content.TagCount {
	return []content.TagCount{{Name: "go", Count: 2}}
}

var primer = &content.FrontMatter{
	Title:    "Machine Learning Primer",
	FileName: "ml-primer",
	Tags:     []string{"ml"},
	Posted:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
}

func newTestServer(t *testing.T, searcher Searcher) *Server {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Paths.IndexDir = t.TempDir()
	registry := content.NewStaticRegistry([]*content.FrontMatter{primer})

	s, err := NewServer(searcher, registry, cfg)
	require.NoError(t, err)
	return s
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	registry := content.NewStaticRegistry(nil)

	_, err := NewServer(nil, registry, nil)
	assert.Error(t, err)

	_, err = NewServer(&MockSearcher{}, nil, nil)
	assert.Error(t, err)

	s, err := NewServer(&MockSearcher{}, registry, nil)
	require.NoError(t, err)
	assert.NotNil(t, s.MCPServer())
	name, _ := s.Info()
	assert.Equal(t, "blogsearch", name)
}

func TestListTools(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})

	var names []string
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}

	assert.Equal(t, []string{"search_articles", "search_tags", "list_tags", "index_status"}, names)
}

func TestCallTool_SearchArticles(t *testing.T) {
	// Given: a searcher that returns one article
	var gotQuery string
	var gotTags []string
	searcher := &MockSearcher{
		TextFn: func(_ context.Context, query string, tags []string, limit, offset int) (*search.SearchResult, error) {
			gotQuery, gotTags = query, tags
			return &search.SearchResult{
				Count: 1,
				Pages: 1,
				Terms: []search.SearchTerm{{Score: 2, Metadata: primer, Snippet: "<b>machine</b>"}},
			}, nil
		},
	}
	s := newTestServer(t, searcher)

	// When: calling the tool with JSON-decoded arguments
	out, err := s.CallTool(context.Background(), "search_articles", map[string]any{
		"query":  "machine learning",
		"tags":   []any{"ml", 7},
		"limit":  float64(500),
		"offset": float64(10),
	})

	// Then: arguments are decoded and clamped, and markdown is returned
	require.NoError(t, err)
	assert.Equal(t, "machine learning", gotQuery)
	assert.Equal(t, []string{"ml"}, gotTags)
	assert.Equal(t, 50, searcher.lastLimit)
	assert.Equal(t, 10, searcher.lastOffset)
	assert.Contains(t, out, "Machine Learning Primer")
	assert.Contains(t, out, "**machine**")
}

func TestCallTool_SearchArticlesDefaults(t *testing.T) {
	searcher := &MockSearcher{}
	s := newTestServer(t, searcher)

	out, err := s.CallTool(context.Background(), "search_articles", map[string]any{"query": "zebra"})

	require.NoError(t, err)
	assert.Equal(t, 10, searcher.lastLimit)
	assert.Equal(t, 0, searcher.lastOffset)
	assert.Equal(t, `No articles found for "zebra"`, out)
}

func TestCallTool_InvalidParams(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})

	tests := []struct {
		name string
		tool string
		args map[string]any
	}{
		{"missing query", "search_articles", map[string]any{}},
		{"blank query", "search_articles", map[string]any{"query": "   "}},
		{"query not a string", "search_articles", map[string]any{"query": 3.0}},
		{"negative offset", "search_articles", map[string]any{"query": "go", "offset": -1.0}},
		{"bad order", "search_tags", map[string]any{"order": "alphabetical"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CallTool(context.Background(), tt.tool, tt.args)

			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, ErrCodeInvalidParams, mcpErr.Code)
		})
	}
}

func TestCallTool_MapsSearchErrors(t *testing.T) {
	searcher := &MockSearcher{
		TextFn: func(context.Context, string, []string, int, int) (*search.SearchResult, error) {
			return nil, apperrors.MetadataNotFound("ghost")
		},
	}
	s := newTestServer(t, searcher)

	_, err := s.CallTool(context.Background(), "search_articles", map[string]any{"query": "ghost"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMetadataNotFound, mcpErr.Code)
}

func TestCallTool_SearchTags(t *testing.T) {
	searcher := &MockSearcher{
		TagsFn: func(tags []string, _ content.SortOrder, _, _ int) *search.SearchResult {
			return &search.SearchResult{
				Count: 1,
				Pages: 1,
				Terms: []search.SearchTerm{{Metadata: primer, Snippet: "intro"}},
			}
		},
	}
	s := newTestServer(t, searcher)

	out, err := s.CallTool(context.Background(), "search_tags", map[string]any{
		"tags":  []any{"ml"},
		"order": "updated",
	})

	require.NoError(t, err)
	assert.Equal(t, content.ByUpdated, searcher.lastOrder)
	assert.Contains(t, out, "## Articles tagged ml")
}

func TestCallTool_ListTags(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})

	out, err := s.CallTool(context.Background(), "list_tags", nil)

	require.NoError(t, err)
	assert.Equal(t, "## Tags\n\n- go (2)\n", out)
}

func TestCallTool_UnknownTool(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})

	_, err := s.CallTool(context.Background(), "search_code", nil)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
}

func TestIndexStatus_WithoutIndex(t *testing.T) {
	// Given: an empty index directory
	s := newTestServer(t, &MockSearcher{})

	// When: asking for status
	out, err := s.CallTool(context.Background(), "index_status", nil)

	// Then: the missing manifest is reported, not returned
	require.NoError(t, err)
	status, ok := out.(*IndexStatusOutput)
	require.True(t, ok)
	assert.False(t, status.Index.Available)
	assert.NotEmpty(t, status.Index.Error)
	assert.Equal(t, 1, status.Registry.Articles)
	assert.Equal(t, 1, status.Registry.Tags)
	assert.Equal(t, "disabled", status.Reload.Mode)
}

func TestIndexStatus_ReadsManifest(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})
	manifest := index.Manifest{
		Version:     index.ManifestVersion,
		Documents:   42,
		Fingerprint: "abc123",
		Stopwords:   7,
		BuiltAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	data, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(s.config.Paths.IndexDir, index.ManifestFile), data, 0o644))
	s.SetReloader(watcher.NewReloader(content.NewStaticRegistry(nil), nil, t.TempDir()))

	status, err := s.handleIndexStatusTool(context.Background(), nil)

	require.NoError(t, err)
	assert.True(t, status.Index.Available)
	assert.Equal(t, 42, status.Index.Documents)
	assert.Equal(t, 7, status.Index.Stopwords)
	assert.Equal(t, "abc123", status.Index.Fingerprint)
	assert.Equal(t, "2025-01-02T03:04:05Z", status.Index.BuiltAt)
	assert.Equal(t, "stopped", status.Reload.Mode)
}

func TestQueryMetricsResource(t *testing.T) {
	s := newTestServer(t, &MockSearcher{})
	handler := s.makeQueryMetricsHandler()

	// Without metrics the resource refuses.
	_, err := handler(context.Background(), nil)
	require.Error(t, err)

	metrics := telemetry.NewQueryMetrics(nil)
	t.Cleanup(func() { _ = metrics.Close() })
	metrics.Record(telemetry.QueryEvent{
		Query:       "go channels",
		QueryType:   telemetry.QueryTypeText,
		ResultCount: 0,
		Latency:     5 * time.Millisecond,
		Timestamp:   time.Now(),
	})
	s.SetMetrics(metrics)

	res, err := handler(context.Background(), nil)

	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	var out QueryMetricsOutput
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &out))
	assert.Equal(t, int64(1), out.Summary.TotalQueries)
	assert.Equal(t, int64(1), out.QueryTypeCounts[string(telemetry.QueryTypeText)])
	assert.Equal(t, []string{"go channels"}, out.ZeroResultQueries)
}
