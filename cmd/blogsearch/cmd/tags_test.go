package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/search"
)

func TestTagsCmd_Catalogue(t *testing.T) {
	// Given: an indexed blog
	root := indexedBlog(t)

	// When: listing tags as JSON
	out, err := run(t, root, "tags", "--json")

	// Then: every tag is counted once per article
	require.NoError(t, err)
	var tags []content.TagCount
	require.NoError(t, json.Unmarshal([]byte(out), &tags))
	counts := make(map[string]int)
	for _, tc := range tags {
		counts[tc.Name] = tc.Count
	}
	assert.Equal(t, 2, counts["AI"])
	assert.Equal(t, 1, counts["Go"])
	assert.Equal(t, 1, counts["中文"])
}

func TestTagsCmd_PlainCatalogue(t *testing.T) {
	root := indexedBlog(t)

	out, err := run(t, root, "tags")

	require.NoError(t, err)
	assert.Contains(t, out, "Backend")
	assert.Contains(t, out, "AI")
}

func TestTagsCmd_ArticlesWithAllTags(t *testing.T) {
	root := indexedBlog(t)

	out, err := run(t, root, "tags", "go", "BACKEND", "--json")

	require.NoError(t, err)
	var res search.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Terms, 1)
	assert.Equal(t, "go-notes", res.Terms[0].Metadata.FileName)
	assert.Zero(t, res.Terms[0].Score)
}

func TestTagsCmd_NoMatch(t *testing.T) {
	root := indexedBlog(t)

	out, err := run(t, root, "tags", "haskell")

	require.NoError(t, err)
	assert.Contains(t, out, "No articles found")
}

func TestTagsCmd_BadOrder(t *testing.T) {
	root := indexedBlog(t)

	_, err := run(t, root, "tags", "ai", "--order", "random")

	assert.Error(t, err)
}
