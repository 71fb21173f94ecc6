// Package search maintains a bleve full-text index over documents.
package search

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
)

// Index wraps a bleve index.
type Index struct {
	index bleve.Index
}

// IndexedDocument is the shape stored in the index. Content holds plain text.
type IndexedDocument struct {
	ID        string
	Title     string
	Content   string
	Category  string
	Tags      []string
	UpdatedAt time.Time
}

// Result is one search hit.
type Result struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Category  string              `json:"category"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Open opens the index at path, creating it when missing. An empty path
// creates an in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("search: create memory index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("search: create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("search: open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	title := bleve.NewTextFieldMapping()
	title.Analyzer = "en"

	keyword := bleve.NewKeywordFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("Title", title)
	doc.AddFieldMappingsAt("Content", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("Category", keyword)
	doc.AddFieldMappingsAt("Tags", bleve.NewTextFieldMapping())
	doc.AddFieldMappingsAt("UpdatedAt", bleve.NewDateTimeFieldMapping())

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Close closes the index.
func (i *Index) Close() error {
	return i.index.Close()
}

// Put adds or replaces a document.
func (i *Index) Put(d models.Document) error {
	if err := i.index.Index(d.ID, toIndexed(d)); err != nil {
		return fmt.Errorf("search: index %s: %w", d.ID, err)
	}
	return nil
}

// Delete removes a document.
func (i *Index) Delete(id string) error {
	if err := i.index.Delete(id); err != nil {
		return fmt.Errorf("search: delete %s: %w", id, err)
	}
	return nil
}

// Rebuild makes the index hold exactly docs.
func (i *Index) Rebuild(docs []models.Document) error {
	keep := make(map[string]struct{}, len(docs))
	batch := i.index.NewBatch()
	for _, d := range docs {
		keep[d.ID] = struct{}{}
		if err := batch.Index(d.ID, toIndexed(d)); err != nil {
			return fmt.Errorf("search: batch index %s: %w", d.ID, err)
		}
	}

	n, err := i.index.DocCount()
	if err != nil {
		return fmt.Errorf("search: count: %w", err)
	}
	if n > 0 {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(n), 0, false)
		res, err := i.index.Search(req)
		if err != nil {
			return fmt.Errorf("search: list ids: %w", err)
		}
		for _, hit := range res.Hits {
			if _, ok := keep[hit.ID]; !ok {
				batch.Delete(hit.ID)
			}
		}
	}

	if err := i.index.Batch(batch); err != nil {
		return fmt.Errorf("search: commit batch: %w", err)
	}
	return nil
}

// Search runs a query-string search with highlighted fragments. Input that
// is not valid query syntax is retried as a plain match query.
func (i *Index) Search(q string, limit int) ([]Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []Result{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	res, err := i.run(bleve.NewQueryStringQuery(q), limit)
	if err != nil {
		res, err = i.run(bleve.NewMatchQuery(q), limit)
		if err != nil {
			return nil, fmt.Errorf("search: %w", err)
		}
	}

	out := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{ID: hit.ID, Score: hit.Score, Fragments: hit.Fragments}
		if title, ok := hit.Fields["Title"].(string); ok {
			r.Title = title
		}
		if cat, ok := hit.Fields["Category"].(string); ok {
			r.Category = cat
		}
		out = append(out, r)
	}
	return out, nil
}

func (i *Index) run(q query.Query, limit int) (*bleve.SearchResult, error) {
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title", "Category"}
	return i.index.Search(req)
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}

func toIndexed(d models.Document) *IndexedDocument {
	text := markdown.PlainText(d.Content)
	if d.Format == models.FormatWord {
		text = convert.StripTags(d.Content)
	}
	return &IndexedDocument{
		ID:        d.ID,
		Title:     d.Title,
		Content:   text,
		Category:  d.Category,
		Tags:      d.Tags,
		UpdatedAt: d.UpdatedAt,
	}
}
