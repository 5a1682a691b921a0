package search

import (
	"context"
	"math"
	"slices"

	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
)

// proximityQuery matches documents containing every term in one field with
// the terms close to their query order. For chosen positions p1..pn, one per
// term, the cost is the sum of |p(i+1) - p(i) - 1|; a document matches when
// some choice costs at most slop. Adjacent in-order terms cost nothing.
type proximityQuery struct {
	field string
	terms []string
	slop  int
	boost float64
}

var _ query.Query = (*proximityQuery)(nil)

func newProximityQuery(field string, terms []string, slop int) *proximityQuery {
	return &proximityQuery{
		field: field,
		terms: terms,
		slop:  slop,
		boost: 1,
	}
}

// SetBoost multiplies the score of every match.
func (q *proximityQuery) SetBoost(b float64) {
	q.boost = b
}

// Boost returns the score multiplier.
func (q *proximityQuery) Boost() float64 {
	return q.boost
}

// Searcher builds a conjunction of term searchers with term vectors enabled
// and filters its matches by positional cost.
func (q *proximityQuery) Searcher(ctx context.Context, i index.IndexReader, m mapping.IndexMapping, options search.SearcherOptions) (search.Searcher, error) {
	clauses := make([]query.Query, len(q.terms))
	for j, term := range q.terms {
		clauses[j] = termQuery(q.field, term, q.boost)
	}

	options.IncludeTermVectors = true
	inner, err := query.NewConjunctionQuery(clauses).Searcher(ctx, i, m, options)
	if err != nil {
		return nil, err
	}
	return &proximitySearcher{
		Searcher: inner,
		field:    q.field,
		terms:    q.terms,
		slop:     q.slop,
	}, nil
}

// proximitySearcher drops conjunction matches whose terms are too far apart.
type proximitySearcher struct {
	search.Searcher
	field string
	terms []string
	slop  int
}

func (s *proximitySearcher) Next(ctx *search.SearchContext) (*search.DocumentMatch, error) {
	for {
		dm, err := s.Searcher.Next(ctx)
		if err != nil || dm == nil {
			return dm, err
		}
		if s.accept(dm) {
			return dm, nil
		}
		ctx.DocumentMatchPool.Put(dm)
	}
}

func (s *proximitySearcher) Advance(ctx *search.SearchContext, id index.IndexInternalID) (*search.DocumentMatch, error) {
	dm, err := s.Searcher.Advance(ctx, id)
	if err != nil || dm == nil {
		return dm, err
	}
	if s.accept(dm) {
		return dm, nil
	}
	ctx.DocumentMatchPool.Put(dm)
	return s.Next(ctx)
}

func (s *proximitySearcher) accept(dm *search.DocumentMatch) bool {
	positions := make([][]int, len(s.terms))
	add := func(term string, pos uint64) {
		for i, t := range s.terms {
			if t == term {
				positions[i] = append(positions[i], int(pos))
			}
		}
	}

	for _, ftl := range dm.FieldTermLocations {
		if ftl.Field == s.field {
			add(ftl.Term, ftl.Location.Pos)
		}
	}
	for term, locs := range dm.Locations[s.field] {
		for _, loc := range locs {
			if loc != nil {
				add(term, loc.Pos)
			}
		}
	}

	cost, ok := phraseCost(positions)
	return ok && cost <= s.slop
}

// phraseCost returns the smallest total displacement over every choice of
// one position per term. ok is false when some term has no position.
func phraseCost(positions [][]int) (cost int, ok bool) {
	if len(positions) == 0 {
		return 0, false
	}
	prev := sortedUnique(positions[0])
	if len(prev) == 0 {
		return 0, false
	}
	costs := make([]int, len(prev))

	for _, next := range positions[1:] {
		next = sortedUnique(next)
		if len(next) == 0 {
			return 0, false
		}
		costs = relax(prev, costs, next)
		prev = next
	}
	return slices.Min(costs), true
}

// relax computes, for every q in next, min over p in prev of
// costs[p] + |q - 1 - p|. prev and next are sorted ascending. Two sweeps
// keep it linear: from the left the best value is x + min(cost - p), from
// the right it is min(cost + p) - x, with x = q - 1.
func relax(prev, costs, next []int) []int {
	const inf = math.MaxInt / 2
	out := make([]int, len(next))

	best, j := inf, 0
	for i, q := range next {
		x := q - 1
		for j < len(prev) && prev[j] <= x {
			best = min(best, costs[j]-prev[j])
			j++
		}
		out[i] = inf
		if best < inf {
			out[i] = x + best
		}
	}

	best, j = inf, len(prev)-1
	for i := len(next) - 1; i >= 0; i-- {
		x := next[i] - 1
		for j >= 0 && prev[j] >= x {
			best = min(best, costs[j]+prev[j])
			j--
		}
		if best < inf {
			out[i] = min(out[i], best-x)
		}
	}
	return out
}

func sortedUnique(s []int) []int {
	s = slices.Clone(s)
	slices.Sort(s)
	return slices.Compact(s)
}
