package api

import (
	"bytes"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/techdocs/internal/export"
	"github.com/starford/techdocs/internal/importer"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/workspace"
)

const maxUploadBytes = 10 << 20 // 10 MB

// Import handles POST /api/import (multipart/form-data, field "file").
//
// Optional form fields: "title" keeps an existing draft title, "raw=true"
// takes the file content verbatim, "html_as=markdown" converts HTML files
// to markdown and "save=true" stores the draft as a new document.
//
//	@Summary		Build a document draft from an uploaded file
//	@Tags			documents
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"File to import (.md, .markdown, .txt, .html, .htm)"
//	@Success		200		{object}	ImportResponse
//	@Success		201		{object}	ImportResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	name := filepath.Base(filepath.Clean(header.Filename))
	if name == "." || name == string(filepath.Separator) {
		writeJSON(w, http.StatusBadRequest, errorBody("filename is required"))
		return
	}
	var buf bytes.Buffer
	size, err := io.Copy(&buf, file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	base := models.NewDraft()
	base.Title = r.FormValue("title")

	var draft models.Draft
	if raw, _ := strconv.ParseBool(r.FormValue("raw")); raw {
		draft = workspace.ApplyImport(base, name, buf.String())
	} else {
		opts := importer.Options{HTMLAsMarkdown: r.FormValue("html_as") == string(models.FormatMarkdown)}
		draft, err = h.importer.Import(name, buf.Bytes(), opts)
		if err != nil {
			writeError(w, "import", err)
			return
		}
		if base.Title != "" {
			draft.Title = base.Title
		}
	}

	resp := ImportResponse{Filename: name, Size: size, Draft: draft}
	if save, _ := strconv.ParseBool(r.FormValue("save")); save {
		doc, err := h.ws.Save(r.Context(), "", draft)
		if err != nil {
			writeError(w, "import save", err)
			return
		}
		resp.Document = &doc
		writeJSON(w, http.StatusCreated, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export handles GET /api/documents/{id}/export.
//
//	@Summary		Download a document as a self-contained HTML file
//	@Tags			documents
//	@Produce		html
//	@Param			id		path	string	true	"Document id"
//	@Param			theme	query	string	false	"Colour theme"	Enums(light, dark)
//	@Success		200		{file}	file
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ws.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "export", err)
		return
	}
	theme := h.theme
	if t := r.URL.Query().Get("theme"); t != "" {
		theme = export.ParseTheme(t)
	}
	page, err := h.exporter.Bytes(doc, theme)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.FileName(doc)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(page)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
