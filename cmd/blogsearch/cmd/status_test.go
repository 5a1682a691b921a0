package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/ui"
)

func TestStatusCmd_JSON(t *testing.T) {
	// Given: an indexed blog
	root := indexedBlog(t)

	// When: asking for status as JSON
	out, err := run(t, root, "status", "--json")

	// Then: index and registry agree
	require.NoError(t, err)
	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, 3, info.Documents)
	assert.Equal(t, 3, info.Articles)
	assert.Equal(t, 4, info.Tags)
	assert.Positive(t, info.IndexSize)
	assert.Len(t, info.Fingerprint, 64)
	assert.True(t, info.InSync())
}

func TestStatusCmd_ReportsStaleIndex(t *testing.T) {
	// Given: an article added after indexing
	root := indexedBlog(t)
	addArticle(t, root, "rust-tips", "Rust Tips", "2024-04-01", []string{"Rust"}, "Borrowing rules.")

	// When: rendering status
	out, err := run(t, root, "status")

	// Then: it warns that the index is stale
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:   3")
	assert.Contains(t, out, "Articles: 4")
	assert.Contains(t, out, "index is stale")
}

func TestStatusCmd_CountsQueries(t *testing.T) {
	root := indexedBlog(t)
	_, err := run(t, root, "search", "machine")
	require.NoError(t, err)
	_, err = run(t, root, "search", "kubernetes")
	require.NoError(t, err)

	out, err := run(t, root, "status", "--json")

	require.NoError(t, err)
	var info ui.StatusInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, int64(2), info.Queries)
	assert.Equal(t, int64(1), info.ZeroResults)
}

func TestStatusCmd_NoIndex(t *testing.T) {
	root := newBlog(t)

	_, err := run(t, root, "status")

	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeIndexNotFound, apperrors.GetCode(err))
}
