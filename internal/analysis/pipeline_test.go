package analysis

import (
	"strings"
	"testing"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalyzers(t *testing.T, stopwords ...string) *Analyzers {
	t.Helper()
	a, err := Build(Options{Stopwords: stopwords})
	require.NoError(t, err)
	return a
}

func TestAnalyzers_EnglishChain(t *testing.T) {
	a := newTestAnalyzers(t)

	// stemmed, English stopwords removed, lowercased
	got := a.IndexTerms("the machines are running fast")

	assert.Equal(t, []string{"machin", "run", "fast"}, got)
}

func TestAnalyzers_IndexAndQueryAgreeOnLatin(t *testing.T) {
	a := newTestAnalyzers(t)

	assert.Equal(t, a.IndexTerms("machine learning"), a.QueryTerms("machine learning"))
}

func TestAnalyzers_DropsOverlongTokens(t *testing.T) {
	a := newTestAnalyzers(t)

	got := a.IndexTerms(strings.Repeat("x", 41) + " " + strings.Repeat("y", 40))

	assert.Equal(t, []string{strings.Repeat("y", 40)}, got)
}

func TestAnalyzers_RemovesCJKStopwords(t *testing.T) {
	a := newTestAnalyzers(t, "的", "了")

	got := a.IndexTerms("我的书")

	assert.NotContains(t, got, "的")
	assert.NotEmpty(t, got)
}

func TestAnalyzers_StopwordOnlyQueryIsEmpty(t *testing.T) {
	a := newTestAnalyzers(t, "的")

	got := a.IndexTerms("the of 的 and")

	assert.Empty(t, got)
}

func TestAnalyzers_CJKTermsStaySearchable(t *testing.T) {
	a := newTestAnalyzers(t)

	terms := a.IndexTerms("机器学习")

	require.NotEmpty(t, terms)
	for _, term := range terms {
		assert.True(t, Searchable(term), term)
		assert.Equal(t, ClassCJK, Classify(term), term)
	}
}

func TestNewAnalyzers_RequiresRegisteredPipelines(t *testing.T) {
	_, err := NewAnalyzers(emptyMapping())

	assert.Error(t, err)
}

func emptyMapping() *mapping.IndexMappingImpl {
	return mapping.NewIndexMapping()
}
