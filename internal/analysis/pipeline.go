package analysis

import (
	"fmt"

	banalysis "github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/length"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/token/stop"
	"github.com/blevesearch/bleve/v2/analysis/tokenmap"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Names of the analysis components registered on an index mapping.
const (
	ExactTokenizer      = "cjk_exact"
	AllCutsTokenizer    = "cjk_all"
	SearchCutsTokenizer = "cjk_search"

	StopwordsTokenMap = "cjk_stopwords"
	MaxLengthFilter   = "cjk_max_length"
	StopFilter        = "cjk_stop"

	// IndexAnalyzer analyzes documents and the terms of text queries.
	IndexAnalyzer = "cjk_index"
	// QueryAnalyzer produces the ordered terms for phrase proximity.
	QueryAnalyzer = "cjk_query"
)

// DefaultMaxTokenLength is the longest token kept, in characters.
const DefaultMaxTokenLength = 40

// Options configures the analyzer pipelines.
type Options struct {
	Stopwords      []string
	MaxTokenLength int
}

// filterChain is applied after segmentation in both pipelines.
func filterChain() []string {
	return []string{
		MaxLengthFilter,
		StopFilter,
		en.SnowballStemmerName,
		en.StopName,
		lowercase.Name,
	}
}

// Register defines the tokenizers, filters and both analyzers on m.
// The stopword list is stored inline in the mapping, so an index opened
// later analyzes with the list it was built with.
func Register(m *mapping.IndexMappingImpl, opts Options) error {
	maxLen := opts.MaxTokenLength
	if maxLen <= 0 {
		maxLen = DefaultMaxTokenLength
	}

	for name, mode := range map[string]Mode{
		ExactTokenizer:      ModeExact,
		AllCutsTokenizer:    ModeAll,
		SearchCutsTokenizer: ModeSearch,
	} {
		err := m.AddCustomTokenizer(name, map[string]interface{}{
			"type": TokenizerType,
			"mode": mode.String(),
		})
		if err != nil {
			return fmt.Errorf("register tokenizer %s: %w", name, err)
		}
	}

	tokens := make([]interface{}, 0, len(opts.Stopwords))
	for _, w := range opts.Stopwords {
		tokens = append(tokens, w)
	}
	if err := m.AddCustomTokenMap(StopwordsTokenMap, map[string]interface{}{
		"type":   tokenmap.Name,
		"tokens": tokens,
	}); err != nil {
		return fmt.Errorf("register stopword map: %w", err)
	}

	if err := m.AddCustomTokenFilter(MaxLengthFilter, map[string]interface{}{
		"type": length.Name,
		"max":  float64(maxLen),
	}); err != nil {
		return fmt.Errorf("register length filter: %w", err)
	}

	if err := m.AddCustomTokenFilter(StopFilter, map[string]interface{}{
		"type":           stop.Name,
		"stop_token_map": StopwordsTokenMap,
	}); err != nil {
		return fmt.Errorf("register stop filter: %w", err)
	}

	for name, tokenizer := range map[string]string{
		IndexAnalyzer: AllCutsTokenizer,
		QueryAnalyzer: SearchCutsTokenizer,
	} {
		err := m.AddCustomAnalyzer(name, map[string]interface{}{
			"type":          custom.Name,
			"tokenizer":     tokenizer,
			"token_filters": filterChain(),
		})
		if err != nil {
			return fmt.Errorf("register analyzer %s: %w", name, err)
		}
	}

	return nil
}

// Analyzers holds the index-time and query-time pipelines.
type Analyzers struct {
	index banalysis.Analyzer
	query banalysis.Analyzer
}

// NewAnalyzers resolves both pipelines from a mapping prepared by Register.
func NewAnalyzers(m mapping.IndexMapping) (*Analyzers, error) {
	index := m.AnalyzerNamed(IndexAnalyzer)
	if index == nil {
		return nil, fmt.Errorf("analyzer %s not defined", IndexAnalyzer)
	}
	query := m.AnalyzerNamed(QueryAnalyzer)
	if query == nil {
		return nil, fmt.Errorf("analyzer %s not defined", QueryAnalyzer)
	}
	return &Analyzers{index: index, query: query}, nil
}

// Build creates a standalone mapping carrying the pipelines and resolves
// them. Used by processes that analyze text without an open index.
func Build(opts Options) (*Analyzers, error) {
	m := mapping.NewIndexMapping()
	if err := Register(m, opts); err != nil {
		return nil, err
	}
	return NewAnalyzers(m)
}

// IndexTerms returns the index-time terms of text in stream order.
func (a *Analyzers) IndexTerms(text string) []string {
	return terms(a.index, text)
}

// QueryTerms returns the query-time terms of text in stream order.
func (a *Analyzers) QueryTerms(text string) []string {
	return terms(a.query, text)
}

// Index returns the index-time analyzer.
func (a *Analyzers) Index() banalysis.Analyzer {
	return a.index
}

func terms(an banalysis.Analyzer, text string) []string {
	stream := an.Analyze([]byte(text))
	out := make([]string, 0, len(stream))
	for _, tok := range stream {
		out = append(out, string(tok.Term))
	}
	return out
}
