// Package store owns the on-disk article index: its schema, creation by the
// build job and the read-only handle shared by query processes.
package store

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/Aman-CERP/blogsearch/internal/analysis"
	apperrors "github.com/Aman-CERP/blogsearch/internal/errors"
)

// Field names of an indexed article.
const (
	FieldContent = "content"
	FieldTitle   = "title"
	FieldTags    = "tags"
	FieldPath    = "path"
)

// Document is the indexed form of an article. Its ID is Path.
type Document struct {
	Content string   `json:"content"`
	Title   string   `json:"title"`
	Tags    []string `json:"tags"`
	Path    string   `json:"path"`
}

// NewDocument builds a Document, converting tags to their indexed form.
func NewDocument(path, title, content string, tags []string) Document {
	terms := make([]string, 0, len(tags))
	for _, t := range tags {
		terms = append(terms, TagTerm(t))
	}
	return Document{
		Content: content,
		Title:   title,
		Tags:    terms,
		Path:    path,
	}
}

// TagTerm returns the indexed term of a tag.
func TagTerm(tag string) string {
	return "/" + strings.ToLower(tag)
}

// NewMapping creates the article index mapping with the analyzer
// pipelines registered on it. Only the four article fields are mapped.
func NewMapping(opts analysis.Options) (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	if err := analysis.Register(im, opts); err != nil {
		return nil, fmt.Errorf("failed to register analyzers: %w", err)
	}
	im.DefaultAnalyzer = analysis.IndexAnalyzer
	im.IndexDynamic = false
	im.StoreDynamic = false
	im.DocValuesDynamic = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(FieldContent, textField())
	doc.AddFieldMappingsAt(FieldTitle, textField())

	tags := bleve.NewKeywordFieldMapping()
	tags.Store = false
	tags.IncludeInAll = false
	doc.AddFieldMappingsAt(FieldTags, tags)

	path := bleve.NewKeywordFieldMapping()
	path.Index = false
	path.Store = true
	path.IncludeInAll = false
	path.DocValues = false
	doc.AddFieldMappingsAt(FieldPath, path)

	im.DefaultMapping = doc
	return im, nil
}

func textField() *mapping.FieldMapping {
	f := bleve.NewTextFieldMapping()
	f.Analyzer = analysis.IndexAnalyzer
	f.Store = true
	f.Index = true
	f.IncludeTermVectors = true
	f.IncludeInAll = false
	return f
}

// fieldRequirement describes what a query process needs from a field.
type fieldRequirement struct {
	name        string
	indexed     bool
	stored      bool
	termVectors bool
	analyzer    string
}

var requiredFields = []fieldRequirement{
	{name: FieldContent, indexed: true, stored: true, termVectors: true, analyzer: analysis.IndexAnalyzer},
	{name: FieldTitle, indexed: true, stored: true, termVectors: true, analyzer: analysis.IndexAnalyzer},
	{name: FieldTags, indexed: true, analyzer: keyword.Name},
	{name: FieldPath, stored: true},
}

// CheckSchema verifies that m maps every article field the way queries
// rely on. A missing or differently mapped field is a SchemaError.
func CheckSchema(m mapping.IndexMapping) error {
	impl, ok := m.(*mapping.IndexMappingImpl)
	if !ok || impl.DefaultMapping == nil {
		return apperrors.SchemaError("index has no document mapping", nil)
	}

	for _, req := range requiredFields {
		prop, ok := impl.DefaultMapping.Properties[req.name]
		if !ok || prop == nil || len(prop.Fields) == 0 {
			return apperrors.SchemaError(fmt.Sprintf("index has no field %q", req.name), nil).
				WithDetail("field", req.name)
		}
		f := prop.Fields[0]
		switch {
		case req.indexed && !f.Index:
			return schemaMismatch(req.name, "not indexed")
		case req.stored && !f.Store:
			return schemaMismatch(req.name, "not stored")
		case req.termVectors && !f.IncludeTermVectors:
			return schemaMismatch(req.name, "has no term vectors")
		case req.analyzer != "" && f.Analyzer != req.analyzer:
			return schemaMismatch(req.name, fmt.Sprintf("analyzed by %q", f.Analyzer))
		}
	}

	if impl.AnalyzerNamed(analysis.QueryAnalyzer) == nil {
		return apperrors.SchemaError(fmt.Sprintf("index defines no analyzer %q", analysis.QueryAnalyzer), nil)
	}
	return nil
}

func schemaMismatch(field, problem string) error {
	return apperrors.SchemaError(fmt.Sprintf("field %q is %s", field, problem), nil).
		WithDetail("field", field)
}
