package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/techdocs/internal/clipboard"
	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/editor"
	"github.com/starford/techdocs/internal/export"
	"github.com/starford/techdocs/internal/importer"
	"github.com/starford/techdocs/internal/search"
	"github.com/starford/techdocs/internal/workspace"
)

// Searcher runs full-text queries.
type Searcher interface {
	Search(q string, limit int) ([]search.Result, error)
}

// Deps are the components the API serves. Search and Events may be nil.
type Deps struct {
	Workspace *workspace.Workspace
	Clipboard *clipboard.Tracker
	Exporter  *export.Exporter
	Importer  *importer.Importer
	Surface   editor.Surface
	Search    Searcher
	Events    http.Handler
	Theme     export.Theme
}

// Handler holds API route handlers.
type Handler struct {
	ws        *workspace.Workspace
	clip      *clipboard.Tracker
	exporter  *export.Exporter
	importer  *importer.Importer
	surface   editor.Surface
	search    Searcher
	theme     export.Theme
	sanitizer *convert.Sanitizer
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	surface := d.Surface
	if surface == nil {
		surface = editor.HTMLSurface{}
	}
	return &Handler{
		ws:        d.Workspace,
		clip:      d.Clipboard,
		exporter:  d.Exporter,
		importer:  d.Importer,
		surface:   surface,
		search:    d.Search,
		theme:     d.Theme,
		sanitizer: convert.NewSanitizer(),
	}
}

// ListDocuments handles GET /api/documents.
//
//	@Summary		List documents filtered by search term and category
//	@Tags			documents
//	@Produce		json
//	@Param			q			query		string	false	"Case-insensitive match on title, content and tags"
//	@Param			category	query		string	false	"Category, or all"
//	@Param			preview		query		int		false	"Preview length in runes"
//	@Success		200			{object}	DocumentListResponse
//	@Security		BearerAuth
//	@Router			/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("preview"))
	docs := h.ws.Filter(q.Get("q"), q.Get("category"))
	items := make([]DocumentListItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, DocumentListItem{Document: d, Preview: workspace.Preview(d, limit)})
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: items, Total: len(items)})
}

// GetDocument handles GET /api/documents/{id}.
//
//	@Summary		Get a single document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	models.Document
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [get]
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ws.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// CreateDocument handles POST /api/documents.
//
//	@Summary		Create a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		DocumentRequest	true	"Document to create"
//	@Success		201		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents [post]
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := h.ws.Save(r.Context(), "", req.draft())
	if err != nil {
		writeError(w, "create document", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

// UpdateDocument handles PUT /api/documents/{id}.
//
//	@Summary		Overwrite a document
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Document id"
//	@Param			body	body		DocumentRequest	true	"New field values"
//	@Success		200		{object}	models.Document
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id} [put]
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req DocumentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	doc, err := h.ws.Save(r.Context(), id, req.draft())
	if err != nil {
		writeError(w, "update document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /api/documents/{id}.
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Param			id	path	string	true	"Document id"
//	@Success		204	"Document deleted"
//	@Security		BearerAuth
//	@Router			/documents/{id} [delete]
func (h *Handler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete document", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectDocument handles POST /api/documents/{id}/select.
func (h *Handler) SelectDocument(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Select(chi.URLParam(r, "id")); err != nil {
		writeError(w, "select document", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ws.Snapshot())
}

// ClearSelection handles DELETE /api/workspace/selection.
func (h *Handler) ClearSelection(w http.ResponseWriter, _ *http.Request) {
	_ = h.ws.Select("")
	w.WriteHeader(http.StatusNoContent)
}

// Workspace handles GET /api/workspace.
//
//	@Summary		Current selection, loading flag, banner and categories
//	@Tags			workspace
//	@Produce		json
//	@Success		200	{object}	workspace.State
//	@Security		BearerAuth
//	@Router			/workspace [get]
func (h *Handler) Workspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.ws.Snapshot())
}

// Reload handles POST /api/workspace/reload.
func (h *Handler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.ws.Load(r.Context()); err != nil {
		writeError(w, "reload workspace", err)
		return
	}
	writeJSON(w, http.StatusOK, h.ws.Snapshot())
}

// DismissBanner handles DELETE /api/workspace/banner.
func (h *Handler) DismissBanner(w http.ResponseWriter, _ *http.Request) {
	h.ws.DismissBanner()
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across documents
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	if h.search == nil {
		// Without an index, fall back to the workspace substring filter.
		docs := h.ws.Filter(q, "")
		if limit > 0 && len(docs) > limit {
			docs = docs[:limit]
		}
		results := make([]search.Result, 0, len(docs))
		for _, d := range docs {
			results = append(results, search.Result{ID: d.ID, Title: d.Title, Category: d.Category})
		}
		writeJSON(w, http.StatusOK, SearchResponse{Results: results})
		return
	}

	results, err := h.search.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
