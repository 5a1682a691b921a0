package search

import (
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/content"
	"github.com/Aman-CERP/blogsearch/internal/store"
)

// plannedTerm is a searchable index-time term with its script class.
type plannedTerm struct {
	text  string
	class analysis.Class
}

// plan is the analyzed form of a raw query string. Plans are immutable and
// shared through the plan cache.
type plan struct {
	// terms are the index-time terms that passed the searchable filter.
	terms []plannedTerm

	// phrase are the query-time terms, used only for the proximity bonus.
	phrase []string
}

func (p *plan) termTexts() []string {
	out := make([]string, len(p.terms))
	for i, t := range p.terms {
		out[i] = t.text
	}
	return out
}

// plan analyzes query, or returns the cached analysis of an identical
// query string.
func (e *Engine) plan(q string) *plan {
	if p, ok := e.plans.Get(q); ok {
		return p
	}

	p := &plan{}
	for _, term := range e.analyzers.IndexTerms(q) {
		if !analysis.Searchable(term) {
			continue
		}
		p.terms = append(p.terms, plannedTerm{text: term, class: analysis.Classify(term)})
	}
	if len(p.terms) > 0 {
		for _, term := range e.analyzers.QueryTerms(q) {
			if analysis.Searchable(term) {
				p.phrase = append(p.phrase, term)
			}
		}
	}

	e.plans.Add(q, p)
	return p
}

// buildQuery turns a plan and a tag set into the boolean query executed
// against the index.
//
// Han terms only add optional clauses: their segmentation varies between
// index and query time, so they rank hits without gating them. Every other
// term must occur in the content field.
func (e *Engine) buildQuery(p *plan, tags []string) query.Query {
	var must, should []query.Query
	for _, t := range p.terms {
		switch t.class {
		case analysis.ClassCJK:
			should = append(should,
				termQuery(store.FieldContent, t.text, e.config.CJKContentBoost),
				termQuery(store.FieldTitle, t.text, e.config.TitleBoost))
		default:
			must = append(must, termQuery(store.FieldContent, t.text, 1))
			should = append(should, termQuery(store.FieldTitle, t.text, e.config.TitleBoost))
		}
	}

	var q query.Query = query.NewBooleanQuery(must, should, nil)

	if len(p.phrase) > 1 {
		proximity := newProximityQuery(store.FieldContent, p.phrase, e.config.PhraseSlop)
		proximity.SetBoost(e.config.PhraseBoost)
		q = query.NewBooleanQuery([]query.Query{q}, []query.Query{proximity}, nil)
	}

	if wanted := content.NormalizeTags(tags); len(wanted) > 0 {
		clauses := make([]query.Query, 0, len(wanted)+1)
		clauses = append(clauses, q)
		for _, tag := range wanted {
			clauses = append(clauses, termQuery(store.FieldTags, store.TagTerm(tag), 1))
		}
		q = query.NewConjunctionQuery(clauses)
	}

	return q
}

func termQuery(field, term string, boost float64) *query.TermQuery {
	q := query.NewTermQuery(term)
	q.SetField(field)
	q.SetBoost(boost)
	return q
}
