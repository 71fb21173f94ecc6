// Package workspace holds the in-memory document workspace: the loaded
// document list, the current selection, the loading flag and the error
// banner. Every store call goes through it so that failures leave the list
// untouched and surface as a single banner message.
package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/sse"
)

// AllCategories is the category filter that matches everything.
const AllCategories = "all"

// Repository is the document persistence the workspace drives.
type Repository interface {
	List(ctx context.Context) ([]models.Document, error)
	Create(ctx context.Context, d models.Draft) (models.Document, error)
	Update(ctx context.Context, id string, d models.Draft) (models.Document, error)
	Delete(ctx context.Context, id string) error
}

// Indexer mirrors workspace changes into a search index.
type Indexer interface {
	Put(d models.Document) error
	Delete(id string) error
	Rebuild(docs []models.Document) error
}

// Publisher broadcasts workspace changes to live clients.
type Publisher interface {
	Publish(event sse.Event)
	PublishDocumentEvent(kind, id string)
}

// State is a point-in-time view of the workspace.
type State struct {
	Count      int              `json:"count"`
	Selected   *models.Document `json:"selected"`
	Loading    bool             `json:"loading"`
	Banner     string           `json:"banner,omitempty"`
	Categories []string         `json:"categories"`
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithIndex keeps idx in sync with the document list.
func WithIndex(idx Indexer) Option {
	return func(w *Workspace) { w.index = idx }
}

// WithPublisher sends document and banner events to p.
func WithPublisher(p Publisher) Option {
	return func(w *Workspace) { w.events = p }
}

// Workspace is safe for concurrent use.
type Workspace struct {
	repo   Repository
	logger *slog.Logger
	index  Indexer
	events Publisher

	mu       sync.RWMutex
	docs     []models.Document // updated_at descending
	selected string
	loading  bool
	banner   string
}

// New creates an empty workspace. Call Load to fill it.
func New(repo Repository, logger *slog.Logger, opts ...Option) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Workspace{repo: repo, logger: logger}
	for _, o := range opts {
		o(w)
	}
	return w
}

// begin sets the loading flag and clears the banner. Only one store call
// runs at a time; a second caller gets apperr.ErrBusy.
func (w *Workspace) begin() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading {
		return apperr.ErrBusy
	}
	w.loading = true
	w.setBannerLocked("")
	return nil
}

func (w *Workspace) end() {
	w.mu.Lock()
	w.loading = false
	w.mu.Unlock()
}

// fail records err on the banner as "<prefix>: <message>".
func (w *Workspace) fail(prefix string, err error) error {
	w.mu.Lock()
	w.setBannerLocked(prefix + ": " + err.Error())
	w.mu.Unlock()
	w.logger.Warn("workspace: store call failed", slog.String("op", prefix), slog.String("error", err.Error()))
	return err
}

// Load replaces the document list with the store contents.
func (w *Workspace) Load(ctx context.Context) error {
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	docs, err := w.repo.List(ctx)
	if err != nil {
		return w.fail("Failed to load documents", err)
	}
	sortByUpdated(docs)

	w.mu.Lock()
	w.docs = docs
	if w.selected != "" && indexOf(docs, w.selected) < 0 {
		w.selected = ""
	}
	w.mu.Unlock()

	if w.index != nil {
		if err := w.index.Rebuild(docs); err != nil {
			w.logger.Warn("workspace: rebuild index failed", slog.String("error", err.Error()))
		}
	}
	w.logger.Info("workspace: loaded", slog.Int("documents", len(docs)))
	return nil
}

// Save creates a document when id is empty and updates it otherwise. The
// draft is validated before any store call; an invalid draft never reaches
// the store and leaves the banner alone.
func (w *Workspace) Save(ctx context.Context, id string, d models.Draft) (models.Document, error) {
	if err := d.Validate(); err != nil {
		return models.Document{}, err
	}
	if err := w.begin(); err != nil {
		return models.Document{}, err
	}
	defer w.end()

	var (
		doc  models.Document
		err  error
		kind = "created"
	)
	if id == "" {
		doc, err = w.repo.Create(ctx, d)
	} else {
		kind = "updated"
		doc, err = w.repo.Update(ctx, id, d)
	}
	if err != nil {
		return models.Document{}, w.fail("Failed to save document", err)
	}

	w.mu.Lock()
	if i := indexOf(w.docs, doc.ID); i >= 0 {
		w.docs = slices.Delete(w.docs, i, i+1)
	}
	// The saved document is the most recently updated one.
	w.docs = slices.Insert(w.docs, 0, doc)
	w.mu.Unlock()

	w.indexPut(doc)
	w.publishDocument(kind, doc.ID)
	return doc, nil
}

// Create inserts a new document.
func (w *Workspace) Create(ctx context.Context, d models.Draft) (models.Document, error) {
	return w.Save(ctx, "", d)
}

// Delete removes a document. If it was selected the selection is cleared.
func (w *Workspace) Delete(ctx context.Context, id string) error {
	if err := w.begin(); err != nil {
		return err
	}
	defer w.end()

	if err := w.repo.Delete(ctx, id); err != nil {
		return w.fail("Failed to delete document", err)
	}

	w.mu.Lock()
	if i := indexOf(w.docs, id); i >= 0 {
		w.docs = slices.Delete(w.docs, i, i+1)
	}
	if w.selected == id {
		w.selected = ""
	}
	w.mu.Unlock()

	if w.index != nil {
		if err := w.index.Delete(id); err != nil {
			w.logger.Warn("workspace: unindex failed", slog.String("id", id), slog.String("error", err.Error()))
		}
	}
	w.publishDocument("deleted", id)
	return nil
}

// Documents returns a copy of the document list.
func (w *Workspace) Documents() []models.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.docs)
}

// Get returns a loaded document.
func (w *Workspace) Get(id string) (models.Document, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := indexOf(w.docs, id); i >= 0 {
		return w.docs[i], nil
	}
	return models.Document{}, fmt.Errorf("workspace: document %s: %w", id, apperr.ErrNotFound)
}

// Select makes id the displayed document. An empty id clears the selection.
func (w *Workspace) Select(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id != "" && indexOf(w.docs, id) < 0 {
		return fmt.Errorf("workspace: select %s: %w", id, apperr.ErrNotFound)
	}
	w.selected = id
	return nil
}

// Selected returns the displayed document, if any.
func (w *Workspace) Selected() (models.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if i := indexOf(w.docs, w.selected); w.selected != "" && i >= 0 {
		return w.docs[i], true
	}
	return models.Document{}, false
}

// Loading reports whether a store call is in flight.
func (w *Workspace) Loading() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loading
}

// Banner returns the current error message, or "".
func (w *Workspace) Banner() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.banner
}

// DismissBanner clears the error message.
func (w *Workspace) DismissBanner() {
	w.mu.Lock()
	w.setBannerLocked("")
	w.mu.Unlock()
}

// ReportError shows msg on the banner. It lets the workspace receive
// clipboard failures.
func (w *Workspace) ReportError(msg string) {
	w.mu.Lock()
	w.setBannerLocked(msg)
	w.mu.Unlock()
}

func (w *Workspace) setBannerLocked(msg string) {
	if w.banner == msg {
		return
	}
	w.banner = msg
	if w.events != nil {
		w.events.Publish(sse.Event{Type: sse.TypeBanner, Data: map[string]string{"message": msg}})
	}
}

// Filter returns the documents whose title, content or any tag contains
// term (case-insensitive) and whose category equals category. An empty
// category or AllCategories matches everything.
func (w *Workspace) Filter(term, category string) []models.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	term = strings.ToLower(term)
	out := make([]models.Document, 0, len(w.docs))
	for _, d := range w.docs {
		if category != "" && category != AllCategories && d.Category != category {
			continue
		}
		if term == "" || matches(d, term) {
			out = append(out, d)
		}
	}
	return out
}

func matches(d models.Document, term string) bool {
	if strings.Contains(strings.ToLower(d.Title), term) || strings.Contains(strings.ToLower(d.Content), term) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), term) {
			return true
		}
	}
	return false
}

// Categories returns AllCategories followed by each distinct category in
// order of first appearance.
func (w *Workspace) Categories() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := []string{AllCategories}
	seen := map[string]bool{}
	for _, d := range w.docs {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}

// Snapshot returns the current workspace state.
func (w *Workspace) Snapshot() State {
	cats := w.Categories()
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := State{Count: len(w.docs), Loading: w.loading, Banner: w.banner, Categories: cats}
	if i := indexOf(w.docs, w.selected); w.selected != "" && i >= 0 {
		d := w.docs[i]
		s.Selected = &d
	}
	return s
}

func (w *Workspace) indexPut(d models.Document) {
	if w.index == nil {
		return
	}
	if err := w.index.Put(d); err != nil {
		w.logger.Warn("workspace: index failed", slog.String("id", d.ID), slog.String("error", err.Error()))
	}
}

func (w *Workspace) publishDocument(kind, id string) {
	if w.events != nil {
		w.events.PublishDocumentEvent(kind, id)
	}
}

func indexOf(docs []models.Document, id string) int {
	return slices.IndexFunc(docs, func(d models.Document) bool { return d.ID == id })
}

func sortByUpdated(docs []models.Document) {
	slices.SortStableFunc(docs, func(a, b models.Document) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
}
