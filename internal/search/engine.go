package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"runtime"
	"time"

	"github.com/blevesearch/bleve/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	"github.com/Aman-CERP/blogsearch/internal/config"
	"github.com/Aman-CERP/blogsearch/internal/content"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/snippet"
	"github.com/Aman-CERP/blogsearch/internal/store"
	"github.com/Aman-CERP/blogsearch/internal/telemetry"
)

// Index is the read-only article index the engine queries.
// *store.Index implements it.
type Index interface {
	SearchInContext(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error)
	Analyzers() *analysis.Analyzers
}

var _ Index = (*store.Index)(nil)

// ErrNilDependency is returned when a required dependency is nil.
var ErrNilDependency = errors.New("nil dependency")

// EngineConfig holds the ranking and resource settings of the engine.
type EngineConfig struct {
	// DefaultLimit is the page size used when a caller passes limit <= 0.
	DefaultLimit int

	// SnippetMaxChars bounds the source text of each snippet, in runes.
	SnippetMaxChars int

	// Workers bounds concurrent snippet jobs. 0 selects GOMAXPROCS.
	Workers int

	// PlanCacheSize is the number of analyzed queries kept.
	PlanCacheSize int

	// PhraseSlop is the total positional slack the proximity bonus allows.
	PhraseSlop int

	PhraseBoost     float64
	CJKContentBoost float64
	TitleBoost      float64
}

// DefaultEngineConfig returns the settings the ranking was tuned with.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultLimit:    10,
		SnippetMaxChars: snippet.DefaultMaxChars,
		PlanCacheSize:   256,
		PhraseSlop:      10,
		PhraseBoost:     5.0,
		CJKContentBoost: 1.5,
		TitleBoost:      2.0,
	}
}

// EngineConfigFrom converts the search section of the configuration.
func EngineConfigFrom(c config.SearchConfig) EngineConfig {
	return EngineConfig{
		DefaultLimit:    c.DefaultLimit,
		SnippetMaxChars: c.SnippetMaxChars,
		Workers:         c.SnippetWorkers,
		PlanCacheSize:   c.PlanCacheSize,
		PhraseSlop:      c.PhraseSlop,
		PhraseBoost:     c.PhraseBoost,
		CJKContentBoost: c.CJKContentBoost,
		TitleBoost:      c.TitleBoost,
	}
}

// Engine answers article queries. It is safe for concurrent use.
type Engine struct {
	index     Index
	analyzers *analysis.Analyzers
	registry  *content.Registry
	snippets  *snippet.Generator
	plans     *lru.Cache[string, *plan]
	metrics   *telemetry.QueryMetrics
	config    EngineConfig
	intn      func(n int) int
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithMetrics sets an optional query metrics collector for telemetry.
func WithMetrics(m *telemetry.QueryMetrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithRandom replaces the source used by random lucky searches.
func WithRandom(intn func(n int) int) EngineOption {
	return func(e *Engine) {
		e.intn = intn
	}
}

// NewEngine creates a search engine over a read-only index and the
// front-matter registry that resolves its hits.
func NewEngine(index Index, registry *content.Registry, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if index == nil {
		return nil, fmt.Errorf("%w: index is required", ErrNilDependency)
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", ErrNilDependency)
	}
	analyzers := index.Analyzers()
	if analyzers == nil {
		return nil, fmt.Errorf("%w: index has no analyzers", ErrNilDependency)
	}

	defaults := DefaultEngineConfig()
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = defaults.DefaultLimit
	}
	if cfg.PlanCacheSize <= 0 {
		cfg.PlanCacheSize = defaults.PlanCacheSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	plans, err := lru.New[string, *plan](cfg.PlanCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create plan cache: %w", err)
	}

	e := &Engine{
		index:     index,
		analyzers: analyzers,
		registry:  registry,
		snippets:  snippet.New(cfg.SnippetMaxChars),
		plans:     plans,
		config:    cfg,
		intn:      rand.IntN,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the effective engine settings.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// SearchByText runs a free-text query, optionally restricted to articles
// carrying every tag in tags, and returns the page of hits after offset.
// A non-positive limit selects the configured default. A query with no
// searchable terms yields an empty result without scanning the index.
func (e *Engine) SearchByText(ctx context.Context, query string, tags []string, limit, offset int) (*SearchResult, error) {
	return e.searchText(ctx, telemetry.QueryTypeText, query, tags, limit, offset)
}

func (e *Engine) searchText(ctx context.Context, qt telemetry.QueryType, query string, tags []string, limit, offset int) (*SearchResult, error) {
	start := time.Now()
	if limit <= 0 {
		limit = e.config.DefaultLimit
	}
	if offset < 0 {
		return nil, apperrors.ValidationError("offset must not be negative", nil).
			WithDetail("offset", fmt.Sprint(offset))
	}

	p := e.plan(query)
	slog.Debug("search_started",
		slog.String("query", query),
		slog.Any("terms", p.termTexts()),
		slog.Any("phrase", p.phrase),
		slog.Any("tags", tags),
		slog.Int("limit", limit),
		slog.Int("offset", offset))

	if len(p.terms) == 0 {
		result := emptyResult(start)
		e.record(query, qt, p.termTexts(), result)
		slog.Debug("search_skipped", slog.String("query", query), slog.String("reason", "no searchable terms"))
		return result, nil
	}

	req := bleve.NewSearchRequestOptions(e.buildQuery(p, tags), limit, offset, false)
	req.Fields = []string{store.FieldContent, store.FieldTitle, store.FieldPath}
	req.IncludeLocations = true

	res, err := e.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, e.fail(apperrors.SearchError("index scan", query, err))
	}

	result := &SearchResult{
		Count: res.Total,
		Pages: pages(res.Total, limit),
		Terms: []SearchTerm{},
	}
	if len(res.Hits) > 0 {
		terms, err := gather(ctx, e.config.Workers, res.Hits, e.assemble)
		if err != nil {
			if _, ok := apperrors.As(err); !ok {
				err = apperrors.SearchError("snippet", query, err)
			}
			return nil, e.fail(err)
		}
		result.Terms = terms
	}
	result.Elapsed = time.Since(start)

	e.record(query, qt, p.termTexts(), result)
	slog.Info("search_completed",
		slog.String("query", query),
		slog.Uint64("count", result.Count),
		slog.Int("returned", len(result.Terms)),
		slog.Duration("elapsed", result.Elapsed))
	return result, nil
}

// Lucky returns the path of the best hit, or of a uniformly chosen hit
// among the first ten when random is set. It returns ErrNoResults when
// nothing matches.
func (e *Engine) Lucky(ctx context.Context, query string, tags []string, random bool) (string, error) {
	limit := 1
	if random {
		limit = 10
	}
	result, err := e.searchText(ctx, telemetry.QueryTypeLucky, query, tags, limit, 0)
	if err != nil {
		return "", err
	}
	if len(result.Terms) == 0 {
		return "", apperrors.ErrNoResults
	}
	pick := 0
	if random {
		pick = e.intn(len(result.Terms))
	}
	return result.Terms[pick].Metadata.FileName, nil
}

func (e *Engine) fail(err error) error {
	slog.Error("search_failed", apperrors.LogAttrs(err)...)
	return err
}

func (e *Engine) record(query string, qt telemetry.QueryType, terms []string, result *SearchResult) {
	if e.metrics == nil {
		return
	}
	e.metrics.Record(telemetry.QueryEvent{
		Query:       query,
		QueryType:   qt,
		Terms:       terms,
		ResultCount: result.Count,
		Latency:     result.Elapsed,
		Timestamp:   time.Now(),
	})
}
