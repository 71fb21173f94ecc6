// Package docstore is the typed document repository over a store.Store.
// Every record read from the store passes through models.Normalize here.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/store"
)

// DefaultCollection is the collection documents live in.
const DefaultCollection = "documents"

// Repository reads and writes documents.
type Repository struct {
	store      store.Store
	collection string
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a repository. An empty collection means DefaultCollection.
func New(s store.Store, collection string, logger *slog.Logger) *Repository {
	if collection == "" {
		collection = DefaultCollection
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{store: s, collection: collection, logger: logger, now: time.Now}
}

// List returns all documents, most recently updated first. Malformed records
// are logged and skipped.
func (r *Repository) List(ctx context.Context) ([]models.Document, error) {
	rows, err := r.store.List(ctx, r.collection, store.Query{Select: "*", Order: "updated_at.desc"})
	if err != nil {
		return nil, fmt.Errorf("docstore: list: %w", err)
	}
	docs := make([]models.Document, 0, len(rows))
	for _, raw := range rows {
		d, err := models.Normalize(raw)
		if err != nil {
			r.logger.Warn("skipping malformed record", "collection", r.collection, "error", err)
			continue
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// Get returns one document by id.
func (r *Repository) Get(ctx context.Context, id string) (models.Document, error) {
	rows, err := r.store.List(ctx, r.collection, store.Query{Eq: map[string]string{"id": id}, Limit: 1})
	if err != nil {
		return models.Document{}, fmt.Errorf("docstore: get %s: %w", id, err)
	}
	if len(rows) == 0 {
		return models.Document{}, fmt.Errorf("docstore: get %s: %w", id, apperr.ErrNotFound)
	}
	return r.decode(rows[0])
}

// Create validates the draft and inserts it.
func (r *Repository) Create(ctx context.Context, d models.Draft) (models.Document, error) {
	if err := d.Validate(); err != nil {
		return models.Document{}, err
	}
	raw, err := r.store.Insert(ctx, r.collection, d.Fields(r.now(), true))
	if err != nil {
		return models.Document{}, fmt.Errorf("docstore: create: %w", err)
	}
	return r.decode(raw)
}

// Update validates the draft and overwrites the stored document.
func (r *Repository) Update(ctx context.Context, id string, d models.Draft) (models.Document, error) {
	if err := d.Validate(); err != nil {
		return models.Document{}, err
	}
	raw, err := r.store.Update(ctx, r.collection, id, d.Fields(r.now(), false))
	if err != nil {
		return models.Document{}, fmt.Errorf("docstore: update %s: %w", id, err)
	}
	return r.decode(raw)
}

// Delete removes a document.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	return nil
}

func (r *Repository) decode(raw json.RawMessage) (models.Document, error) {
	d, err := models.Normalize(raw)
	if err != nil {
		return models.Document{}, fmt.Errorf("docstore: %w", err)
	}
	return d, nil
}
