package search

import (
	"testing"

	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/store"
)

func TestPlan_KeepsSearchableTerms(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	p := e.plan("Machine learning!")

	assert.Equal(t, []string{"machin", "learn"}, p.termTexts())
	for _, term := range p.terms {
		assert.Equal(t, analysis.ClassOther, term.class)
	}
	assert.Subset(t, p.phrase, []string{"machin", "learn"})
}

func TestPlan_PhraseDropsDigitsAndPunctuation(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	tests := []struct {
		query  string
		phrase []string
	}{
		{"rust 2024!", []string{"rust"}},
		{"rust!", []string{"rust"}},
		{"go 1.22 channels", []string{"go", "channel"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			p := e.plan(tt.query)

			assert.Equal(t, tt.phrase, p.phrase)
		})
	}
}

func TestBuildQuery_NoProximityForDigitSuffix(t *testing.T) {
	// Given: one word followed by a number and punctuation
	e, _ := newTestEngine(t, nil)
	p := e.plan("rust 2024!")

	// When
	bq, ok := e.buildQuery(p, nil).(*query.BooleanQuery)

	// Then: the number gates nothing and adds no phrase clause
	require.True(t, ok)
	must, ok := bq.Must.(*query.ConjunctionQuery)
	require.True(t, ok)
	require.Len(t, must.Conjuncts, 1)
	assertTerm(t, must.Conjuncts[0], store.FieldContent, "rust", 1)
}

func TestPlan_ClassifiesHan(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	p := e.plan("学习")

	require.NotEmpty(t, p.terms)
	for _, term := range p.terms {
		assert.Equal(t, analysis.ClassCJK, term.class, term.text)
	}
}

func TestPlan_IsCached(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	first := e.plan("go channels")
	second := e.plan("go channels")

	assert.Same(t, first, second)
	assert.Equal(t, 1, e.plans.Len())
}

func TestPlan_NoTermsNoPhrase(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	p := e.plan("the and of")

	assert.Empty(t, p.terms)
	assert.Empty(t, p.phrase)
}

func TestBuildQuery_AsymmetricClauses(t *testing.T) {
	// Given: one Latin and one Han term and no phrase
	e, _ := newTestEngine(t, nil)
	p := &plan{terms: []plannedTerm{
		{text: "go", class: analysis.ClassOther},
		{text: "学习", class: analysis.ClassCJK},
	}}

	// When: building the query
	q := e.buildQuery(p, nil)

	// Then: only the Latin content clause is required
	bq, ok := q.(*query.BooleanQuery)
	require.True(t, ok)

	must, ok := bq.Must.(*query.ConjunctionQuery)
	require.True(t, ok)
	require.Len(t, must.Conjuncts, 1)
	assertTerm(t, must.Conjuncts[0], store.FieldContent, "go", 1)

	should, ok := bq.Should.(*query.DisjunctionQuery)
	require.True(t, ok)
	require.Len(t, should.Disjuncts, 3)
	assertTerm(t, should.Disjuncts[0], store.FieldTitle, "go", 2.0)
	assertTerm(t, should.Disjuncts[1], store.FieldContent, "学习", 1.5)
	assertTerm(t, should.Disjuncts[2], store.FieldTitle, "学习", 2.0)
}

func TestBuildQuery_HanOnlyHasNoRequiredClause(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	p := &plan{terms: []plannedTerm{{text: "学习", class: analysis.ClassCJK}}}

	bq, ok := e.buildQuery(p, nil).(*query.BooleanQuery)

	require.True(t, ok)
	assert.Nil(t, bq.Must)
	assert.NotNil(t, bq.Should)
}

func TestBuildQuery_PhraseAddsOptionalProximity(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	p := &plan{
		terms:  []plannedTerm{{text: "machin", class: analysis.ClassOther}, {text: "learn", class: analysis.ClassOther}},
		phrase: []string{"machin", "learn"},
	}

	outer, ok := e.buildQuery(p, nil).(*query.BooleanQuery)
	require.True(t, ok)

	must, ok := outer.Must.(*query.ConjunctionQuery)
	require.True(t, ok)
	require.Len(t, must.Conjuncts, 1)
	assert.IsType(t, &query.BooleanQuery{}, must.Conjuncts[0])

	should, ok := outer.Should.(*query.DisjunctionQuery)
	require.True(t, ok)
	require.Len(t, should.Disjuncts, 1)
	prox, ok := should.Disjuncts[0].(*proximityQuery)
	require.True(t, ok)
	assert.Equal(t, 5.0, prox.Boost())
	assert.Equal(t, 10, prox.slop)
	assert.Equal(t, []string{"machin", "learn"}, prox.terms)
}

func TestBuildQuery_SinglePhraseTermHasNoProximity(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	p := &plan{
		terms:  []plannedTerm{{text: "go", class: analysis.ClassOther}},
		phrase: []string{"go"},
	}

	bq, ok := e.buildQuery(p, nil).(*query.BooleanQuery)

	require.True(t, ok)
	must, ok := bq.Must.(*query.ConjunctionQuery)
	require.True(t, ok)
	assert.IsType(t, &query.TermQuery{}, must.Conjuncts[0])
}

func TestBuildQuery_TagsAreConjoined(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	p := &plan{terms: []plannedTerm{{text: "go", class: analysis.ClassOther}}}

	cq, ok := e.buildQuery(p, []string{"Backend", " go ", "backend"}).(*query.ConjunctionQuery)

	require.True(t, ok)
	require.Len(t, cq.Conjuncts, 3)
	assertTerm(t, cq.Conjuncts[1], store.FieldTags, "/backend", 1)
	assertTerm(t, cq.Conjuncts[2], store.FieldTags, "/go", 1)
}

func assertTerm(t *testing.T, q query.Query, field, term string, boost float64) {
	t.Helper()
	tq, ok := q.(*query.TermQuery)
	require.True(t, ok, "%T is not a term query", q)
	assert.Equal(t, field, tq.Field())
	assert.Equal(t, term, tq.Term)
	assert.InDelta(t, boost, tq.Boost(), 1e-9)
}
