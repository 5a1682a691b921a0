package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/index"
	"github.com/Aman-CERP/blogsearch/internal/mcp"
	"github.com/Aman-CERP/blogsearch/internal/search"
	"github.com/Aman-CERP/blogsearch/internal/store"
)

// Integration Tests - These test the full flow from the posts directory
// through the index build to ranked search over the built index.

type blog struct {
	root      string
	postsDir  string
	indexDir  string
	stopwords string
}

func newBlog(t testing.TB) *blog {
	t.Helper()
	root := t.TempDir()
	b := &blog{
		root:      root,
		postsDir:  filepath.Join(root, "posts"),
		indexDir:  filepath.Join(root, "search", "data"),
		stopwords: filepath.Join(root, "search", "cn_stopwords.txt"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(b.stopwords), 0o755))
	require.NoError(t, os.WriteFile(b.stopwords, []byte("的\n是\n了\n"), 0o644))
	return b
}

func (b *blog) add(t testing.TB, name, title, posted string, tags []string, body string) {
	t.Helper()
	dir := filepath.Join(b.postsDir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	quoted := make([]string, len(tags))
	for i, tag := range tags {
		quoted[i] = fmt.Sprintf("%q", tag)
	}
	fm := fmt.Sprintf("title = %q\ndescription = %q\nposted = %sT08:00:00Z\ntags = [%s]\n",
		title, "About "+title, posted, strings.Join(quoted, ", "))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.FrontMatterFile), []byte(fm), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, content.BodyFile), []byte(body), 0o644))
}

func (b *blog) build(t testing.TB) *index.Manifest {
	t.Helper()
	m, err := index.NewBuilder(content.NewFS(b.postsDir), index.Options{
		IndexDir:      b.indexDir,
		StopwordsPath: b.stopwords,
	}).Build(context.Background())
	require.NoError(t, err)
	return m
}

// engine opens the built index and a fresh registry over the posts.
func (b *blog) engine(t testing.TB) (*search.Engine, *content.Registry) {
	t.Helper()
	idx, err := store.Open(b.indexDir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	registry, err := content.NewRegistry(context.Background(), content.NewFS(b.postsDir))
	require.NoError(t, err)

	e, err := search.NewEngine(idx, registry, search.DefaultEngineConfig())
	require.NoError(t, err)
	return e, registry
}

func seed(t testing.TB) *blog {
	t.Helper()
	b := newBlog(t)
	b.add(t, "deep-learning", "Deep Learning Notes", "2024-01-10", []string{"AI", "Notes"},
		"# Deep learning\n\nDeep learning models learn layered representations. "+
			"Training deep networks needs data.")
	b.add(t, "cooking", "Weekend Cooking", "2024-02-01", []string{"Life"},
		"Learning to bake bread takes patience. The oven must be deep and hot.")
	b.add(t, "ml-zh", "机器学习笔记", "2024-03-05", []string{"AI", "中文"},
		"机器学习是人工智能的一个分支。深度学习是机器学习的一种方法。")
	b.add(t, "go-concurrency", "Go Concurrency", "2024-04-20", []string{"Go"},
		"Goroutines and channels make concurrent programs simple.")
	b.build(t)
	return b
}

func TestIntegration_PhraseProximityRanksAdjacentHigher(t *testing.T) {
	// Given: two articles containing both words, adjacent in only one
	b := seed(t)
	e, _ := b.engine(t)

	// When: searching for the phrase
	res, err := e.SearchByText(context.Background(), "deep learning", nil, 10, 0)

	// Then: both match and the adjacent one ranks first
	require.NoError(t, err)
	require.Equal(t, uint64(2), res.Count)
	assert.Equal(t, "deep-learning", res.Terms[0].Metadata.FileName)
	assert.Equal(t, "cooking", res.Terms[1].Metadata.FileName)
	assert.Greater(t, res.Terms[0].Score, res.Terms[1].Score)
}

func TestIntegration_SnippetHighlightsMatches(t *testing.T) {
	b := seed(t)
	e, _ := b.engine(t)

	res, err := e.SearchByText(context.Background(), "goroutines", nil, 10, 0)

	require.NoError(t, err)
	require.Len(t, res.Terms, 1)
	assert.Contains(t, res.Terms[0].Snippet, "<b>Goroutines</b>")
}

func TestIntegration_ChineseQueryWithoutSpaces(t *testing.T) {
	b := seed(t)
	e, _ := b.engine(t)

	res, err := e.SearchByText(context.Background(), "机器学习", nil, 10, 0)

	require.NoError(t, err)
	require.NotEmpty(t, res.Terms)
	assert.Equal(t, "ml-zh", res.Terms[0].Metadata.FileName)
	assert.Contains(t, res.Terms[0].Snippet, "<b>")
}

func TestIntegration_TagRestrictedText(t *testing.T) {
	b := seed(t)
	e, _ := b.engine(t)

	// When: restricting a broad query to the Life tag in another case
	res, err := e.SearchByText(context.Background(), "learning", []string{"LIFE"}, 10, 0)

	// Then: only the tagged article remains
	require.NoError(t, err)
	require.Equal(t, uint64(1), res.Count)
	assert.Equal(t, "cooking", res.Terms[0].Metadata.FileName)
}

func TestIntegration_TagListingOrder(t *testing.T) {
	b := seed(t)
	e, _ := b.engine(t)

	res := e.SearchByTags([]string{"ai"}, content.ByPosted, 10, 0)

	require.Len(t, res.Terms, 2)
	assert.Equal(t, "ml-zh", res.Terms[0].Metadata.FileName)
	assert.Equal(t, "deep-learning", res.Terms[1].Metadata.FileName)
}

func TestIntegration_StopwordsOnlyQuery(t *testing.T) {
	b := seed(t)
	e, _ := b.engine(t)

	res, err := e.SearchByText(context.Background(), "的 是 the", nil, 10, 0)

	require.NoError(t, err)
	assert.Equal(t, uint64(0), res.Count)
	assert.Empty(t, res.Terms)
}

func TestIntegration_DeletedArticleFailsAssembly(t *testing.T) {
	// Given: an index that still holds an article removed from the posts
	b := seed(t)
	e, registry := b.engine(t)
	require.NoError(t, os.RemoveAll(filepath.Join(b.postsDir, "go-concurrency")))
	require.NoError(t, registry.Reload(context.Background()))

	// When: a query hits the removed article
	_, err := e.SearchByText(context.Background(), "goroutines", nil, 10, 0)

	// Then: the request fails with MetadataNotFound
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrMetadataNotFound)
}

func TestIntegration_RebuildIsDeterministic(t *testing.T) {
	b := seed(t)
	first, err := index.ReadManifest(b.indexDir)
	require.NoError(t, err)

	second := b.build(t)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.Equal(t, first.Documents, second.Documents)
}

func TestIntegration_MCPSearchArticles(t *testing.T) {
	// Given: an MCP server over the built index
	b := seed(t)
	e, registry := b.engine(t)
	cfg := config.NewConfig()
	cfg.Paths.IndexDir = b.indexDir
	srv, err := mcp.NewServer(e, registry, cfg)
	require.NoError(t, err)

	// When: calling search_articles
	out, err := srv.CallTool(context.Background(), "search_articles", map[string]any{
		"query": "deep learning",
		"limit": float64(1),
	})

	// Then: the markdown lists the best article with highlights converted
	require.NoError(t, err)
	text, ok := out.(string)
	require.True(t, ok)
	assert.Contains(t, text, "Deep Learning Notes")
	assert.Contains(t, text, "**")
	assert.NotContains(t, text, "<b>")

	// And: index_status reads the manifest of the same index
	status, err := srv.CallTool(context.Background(), "index_status", nil)
	require.NoError(t, err)
	info, ok := status.(*mcp.IndexStatusOutput)
	require.True(t, ok)
	assert.True(t, info.Index.Available)
	assert.Equal(t, 4, info.Index.Documents)
	assert.Equal(t, 4, info.Registry.Articles)
}
