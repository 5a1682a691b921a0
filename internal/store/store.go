package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// Index wraps a bleve index of articles together with the analyzer
// pipelines its mapping defines.
type Index struct {
	index     bleve.Index
	path      string
	analyzers *analysis.Analyzers
	readOnly  bool
}

// Create creates a writable index at path with mapping m. An empty path
// creates an in-memory index.
func Create(path string, m *mapping.IndexMappingImpl) (*Index, error) {
	var (
		idx bleve.Index
		err error
	)
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.WriteError("failed to create index parent directory", err).
				WithDetail("path", path)
		}
		idx, err = bleve.New(path, m)
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeIndexFailed, fmt.Errorf("failed to create index: %w", err)).
			WithDetail("path", path)
	}

	analyzers, err := analysis.NewAnalyzers(idx.Mapping())
	if err != nil {
		_ = idx.Close()
		return nil, apperrors.SchemaError("index mapping lacks analyzers", err)
	}
	return &Index{index: idx, path: path, analyzers: analyzers}, nil
}

// Open opens the index at path read-only. The directory must hold a
// complete index with the article schema.
func Open(path string) (*Index, error) {
	if err := validateIndexIntegrity(path); err != nil {
		return nil, err
	}

	idx, err := bleve.OpenUsing(path, map[string]interface{}{"read_only": true})
	if err != nil {
		if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
			return nil, apperrors.New(apperrors.ErrCodeIndexNotFound, "index not found", err).
				WithDetail("path", path).
				WithSuggestion("Run 'blogsearch index' to build it")
		}
		return nil, apperrors.New(apperrors.ErrCodeCorruptIndex, "failed to open index", err).
			WithDetail("path", path).
			WithSuggestion("Rebuild the index with 'blogsearch index'")
	}

	if err := CheckSchema(idx.Mapping()); err != nil {
		_ = idx.Close()
		return nil, err
	}
	analyzers, err := analysis.NewAnalyzers(idx.Mapping())
	if err != nil {
		_ = idx.Close()
		return nil, apperrors.SchemaError("index mapping lacks analyzers", err)
	}

	slog.Debug("index_opened", slog.String("path", path))
	return &Index{index: idx, path: path, analyzers: analyzers, readOnly: true}, nil
}

// validateIndexIntegrity checks that path holds a complete bleve index
// before opening it. A build that died before committing leaves no
// index_meta.json, or an empty one.
func validateIndexIntegrity(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return apperrors.New(apperrors.ErrCodeIndexNotFound, "index not found", err).
			WithDetail("path", path).
			WithSuggestion("Run 'blogsearch index' to build it")
	}
	if err != nil {
		return apperrors.IOError("cannot stat index directory", err).WithDetail("path", path)
	}
	if !info.IsDir() {
		return apperrors.ConfigError("index path is not a directory", nil).WithDetail("path", path)
	}

	metaPath := filepath.Join(path, "index_meta.json")
	meta, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return corrupt(path, "index_meta.json missing")
	}
	if err != nil {
		return apperrors.IOError("cannot stat index_meta.json", err).WithDetail("path", path)
	}
	if meta.Size() == 0 {
		return corrupt(path, "index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return apperrors.IOError("cannot read index_meta.json", err).WithDetail("path", path)
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return corrupt(path, "index_meta.json is not valid JSON")
	}
	return nil
}

func corrupt(path, reason string) error {
	return apperrors.New(apperrors.ErrCodeCorruptIndex, "index corrupt: "+reason, nil).
		WithDetail("path", path).
		WithSuggestion("Rebuild the index with 'blogsearch index'")
}

// Path returns the index directory, empty for in-memory indexes.
func (i *Index) Path() string {
	return i.path
}

// Analyzers returns the pipelines defined by the index mapping.
func (i *Index) Analyzers() *analysis.Analyzers {
	return i.analyzers
}

// Mapping returns the index mapping.
func (i *Index) Mapping() mapping.IndexMapping {
	return i.index.Mapping()
}

// SearchInContext executes req against the index.
func (i *Index) SearchInContext(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return i.index.SearchInContext(ctx, req)
}

// DocCount returns the number of indexed articles.
func (i *Index) DocCount() (uint64, error) {
	return i.index.DocCount()
}

// Add indexes docs in a single batch, keyed by path.
func (i *Index) Add(ctx context.Context, docs []Document) error {
	if i.readOnly {
		return apperrors.InternalError("index is read-only", nil)
	}
	if len(docs) == 0 {
		return nil
	}

	batch := i.index.NewBatch()
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(doc.Path, doc); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeIndexFailed, fmt.Errorf("failed to index %s: %w", doc.Path, err)).
				WithDetail("path", doc.Path)
		}
	}
	if err := i.index.Batch(batch); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeIndexFailed, fmt.Errorf("failed to execute batch: %w", err))
	}
	return nil
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

var shared struct {
	once sync.Once
	path string
	idx  *Index
	err  error
}

// Shared opens the index at path read-only on first call and returns the
// same handle for the life of the process. Later calls ignore path.
func Shared(path string) (*Index, error) {
	shared.once.Do(func() {
		shared.path = path
		shared.idx, shared.err = Open(path)
	})
	if shared.err != nil {
		return nil, shared.err
	}
	if path != shared.path {
		slog.Warn("shared_index_path_ignored",
			slog.String("requested", path),
			slog.String("open", shared.path))
	}
	return shared.idx, nil
}
