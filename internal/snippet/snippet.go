// Package snippet builds short highlighted excerpts of matched article text.
package snippet

import (
	"sort"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/highlight"
	"github.com/blevesearch/bleve/v2/search/highlight/format/html"
)

const (
	// DefaultMaxChars bounds the source text of a snippet, in runes.
	DefaultMaxChars = 200

	// leadChars is how much context is kept before the first match of a window.
	leadChars = 20

	// HighlightOpen and HighlightClose wrap every matched span.
	HighlightOpen  = "<b>"
	HighlightClose = "</b>"
)

// Generator produces snippets. It holds no per-call state and is safe for
// concurrent use.
type Generator struct {
	maxChars  int
	formatter *html.FragmentFormatter
}

// New returns a Generator whose snippets hold at most maxChars runes of
// source text. A non-positive maxChars selects DefaultMaxChars.
func New(maxChars int) *Generator {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Generator{
		maxChars:  maxChars,
		formatter: html.NewFragmentFormatter(HighlightOpen, HighlightClose),
	}
}

// MaxChars returns the snippet length bound in runes.
func (g *Generator) MaxChars() int {
	return g.maxChars
}

type span struct {
	start, end int
	term       string
}

// Generate returns an HTML excerpt of text around its densest cluster of
// matches. locations are the byte-offset term locations of a single field
// of text, as returned by a search with locations enabled.
func (g *Generator) Generate(text string, locations search.TermLocationMap) string {
	if text == "" {
		return ""
	}

	bounds := runeBounds(text)
	spans := collectSpans(text, locations)
	if len(spans) == 0 {
		return g.format(text, 0, bounds[min(g.maxChars, len(bounds)-1)], nil)
	}

	bestStart, bestEnd, bestScore := 0, 0, -1.0
	lastAnchor := -1
	for _, anchor := range spans {
		if anchor.start == lastAnchor {
			continue
		}
		lastAnchor = anchor.start

		first := runeIndex(bounds, anchor.start) - leadChars
		if first < 0 {
			first = 0
		}
		last := min(first+g.maxChars, len(bounds)-1)
		ws, we := bounds[first], bounds[last]

		if score := windowScore(spans, ws, we); score > bestScore {
			bestStart, bestEnd, bestScore = ws, we, score
		}
	}

	return g.format(text, bestStart, bestEnd, mergeSpans(spans, bestStart, bestEnd))
}

func (g *Generator) format(text string, start, end int, marks highlight.TermLocations) string {
	fragment := &highlight.Fragment{
		Orig:  []byte(text),
		Start: start,
		End:   end,
	}
	return g.formatter.Format(fragment, marks)
}

// collectSpans flattens the location map into byte spans sorted by start,
// then end. Locations outside text, or not on rune boundaries, are ignored.
func collectSpans(text string, locations search.TermLocationMap) []span {
	var spans []span
	for term, locs := range locations {
		for _, loc := range locs {
			if loc == nil {
				continue
			}
			start, end := int(loc.Start), int(loc.End)
			if start >= end || end > len(text) {
				continue
			}
			if !runeStart(text, start) || !runeStart(text, end) {
				continue
			}
			spans = append(spans, span{start: start, end: end, term: term})
		}
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		if spans[i].end != spans[j].end {
			return spans[i].end < spans[j].end
		}
		return spans[i].term < spans[j].term
	})
	return spans
}

// windowScore sums, over the distinct terms fully inside [ws, we), one point
// per term plus a tenth for each repeat.
func windowScore(spans []span, ws, we int) float64 {
	counts := make(map[string]int)
	for _, s := range spans {
		if s.start >= we {
			break
		}
		if s.start >= ws && s.end <= we {
			counts[s.term]++
		}
	}
	score := 0.0
	for _, n := range counts {
		score += 1 + 0.1*float64(n-1)
	}
	return score
}

// mergeSpans returns the union of the spans inside [ws, we) as ordered,
// non-overlapping highlight locations. Overlapping segmentations of the same
// text collapse into one mark.
func mergeSpans(spans []span, ws, we int) highlight.TermLocations {
	var out highlight.TermLocations
	for _, s := range spans {
		if s.start < ws || s.end > we {
			continue
		}
		if n := len(out); n > 0 && s.start <= out[n-1].End {
			if s.end > out[n-1].End {
				out[n-1].End = s.end
			}
			continue
		}
		out = append(out, &highlight.TermLocation{
			Term:  s.term,
			Start: s.start,
			End:   s.end,
		})
	}
	return out
}

// runeBounds returns the byte offset of every rune in text followed by
// len(text).
func runeBounds(text string) []int {
	bounds := make([]int, 0, utf8.RuneCountInString(text)+1)
	for i := range text {
		bounds = append(bounds, i)
	}
	return append(bounds, len(text))
}

// runeIndex returns the index of the rune starting at byte offset off.
func runeIndex(bounds []int, off int) int {
	return sort.SearchInts(bounds, off)
}

func runeStart(text string, off int) bool {
	return off == len(text) || utf8.RuneStart(text[off])
}
