package search

import (
	"context"

	"github.com/blevesearch/bleve/v2/search"

	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
	"github.com/Aman-CERP/blogsearch/internal/store"
)

// assemble resolves one hit into a SearchTerm: its front matter from the
// live registry and a snippet of its content. A path the registry no longer
// knows fails with MetadataNotFound.
func (e *Engine) assemble(_ context.Context, hit *search.DocumentMatch) (SearchTerm, error) {
	path, ok := hit.Fields[store.FieldPath].(string)
	if !ok {
		return SearchTerm{}, apperrors.SchemaError("hit has no stored path", nil).
			WithDetail("id", hit.ID)
	}
	text, ok := hit.Fields[store.FieldContent].(string)
	if !ok {
		return SearchTerm{}, apperrors.SchemaError("hit has no stored content", nil).
			WithDetail("path", path)
	}

	fm, ok := e.registry.Get(path)
	if !ok {
		return SearchTerm{}, apperrors.MetadataNotFound(path)
	}

	return SearchTerm{
		Score:    hit.Score,
		Metadata: fm,
		Snippet:  e.snippets.Generate(text, hit.Locations[store.FieldContent]),
	}, nil
}
