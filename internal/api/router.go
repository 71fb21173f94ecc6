package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// d.Events, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(d Deps, authEnabled bool, token string) chi.Router {
	h := NewHandler(d)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Documents CRUD.
	r.Get("/documents", h.ListDocuments)
	r.Post("/documents", h.CreateDocument)
	r.Route("/documents/{id}", func(r chi.Router) {
		r.Get("/", h.GetDocument)
		r.Put("/", h.UpdateDocument)
		r.Delete("/", h.DeleteDocument)
		r.Post("/select", h.SelectDocument)
		r.Get("/render", h.RenderDocument)
		r.Get("/export", h.Export)
		r.Get("/blocks", h.BlockStates)
		r.Post("/blocks/{block}/copy", h.CopyBlock)
	})

	// Workspace state.
	r.Get("/workspace", h.Workspace)
	r.Post("/workspace/reload", h.Reload)
	r.Delete("/workspace/banner", h.DismissBanner)
	r.Delete("/workspace/selection", h.ClearSelection)

	// Stateless rendering and conversion.
	r.Post("/render", h.Render)
	r.Post("/convert", h.Convert)
	r.Post("/format", h.Format)

	r.Post("/import", h.Import)
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
