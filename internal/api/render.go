package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/clipboard"
	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/sse"
)

// render builds the display of content. Markdown goes through the dialect
// parser with the document's copy states applied; word content is sanitized.
func (h *Handler) render(docID, content string, format models.Format) RenderResponse {
	resp := RenderResponse{ID: docID, Format: format, Nodes: []markdown.Node{}, Blocks: []BlockStateItem{}}
	if format == models.FormatWord {
		resp.HTML = h.sanitizer.Sanitize(content)
		return resp
	}

	var copied map[string]bool
	if h.clip != nil && docID != "" {
		copied = h.clip.Copied(docID)
	}
	nodes := markdown.Parse(content)
	if nodes != nil {
		resp.Nodes = nodes
	}
	resp.HTML = markdown.Render(nodes, markdown.Options{Copied: func(id string) bool { return copied[id] }})
	for _, cb := range markdown.CodeBlocks(nodes) {
		state := clipboard.StateIdle
		if copied[cb.ID] {
			state = clipboard.StateCopied
		}
		resp.Blocks = append(resp.Blocks, BlockStateItem{ID: cb.ID, Language: cb.Language, Color: cb.Color, State: state})
	}
	return resp
}

// RenderDocument handles GET /api/documents/{id}/render.
//
//	@Summary		Render a stored document
//	@Tags			render
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	RenderResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/render [get]
func (h *Handler) RenderDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ws.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "render document", err)
		return
	}
	writeJSON(w, http.StatusOK, h.render(doc.ID, doc.Content, doc.Format))
}

// Render handles POST /api/render, the live preview of unsaved content.
//
//	@Summary		Render ad-hoc content
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RenderRequest	true	"Content to render"
//	@Success		200		{object}	RenderResponse
//	@Security		BearerAuth
//	@Router			/render [post]
func (h *Handler) Render(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.render("", req.Content, models.ParseFormat(req.Format)))
}

// Convert handles POST /api/convert.
//
//	@Summary		Convert content between markdown and word
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ConvertRequest	true	"Conversion request"
//	@Success		200		{object}	ConvertResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/convert [post]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	from, to := models.Format(req.From), models.Format(req.To)
	if !from.Valid() || !to.Valid() {
		writeJSON(w, http.StatusBadRequest, errorBody("from and to must be markdown or word"))
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Content: convert.Toggle(req.Content, from, to), Format: to})
}

// Format handles POST /api/format.
//
//	@Summary		Apply a rich-text command to word content
//	@Tags			render
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FormatRequest	true	"Formatting request"
//	@Success		200		{object}	FormatResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/format [post]
func (h *Handler) Format(w http.ResponseWriter, r *http.Request) {
	var req FormatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	out, err := h.surface.Apply(req.Content, req.Selection, req.Command, req.Value)
	if err != nil {
		writeError(w, "format", err)
		return
	}
	writeJSON(w, http.StatusOK, FormatResponse{Content: out})
}

// codeBlock resolves a block of a stored markdown document.
func (h *Handler) codeBlock(docID, blockID string) (markdown.CodeBlock, error) {
	doc, err := h.ws.Get(docID)
	if err != nil {
		return markdown.CodeBlock{}, err
	}
	if doc.Format != models.FormatMarkdown {
		return markdown.CodeBlock{}, fmt.Errorf("%w: word documents have no code blocks", apperr.ErrNotFound)
	}
	cb, ok := markdown.FindCodeBlock(markdown.Parse(doc.Content), blockID)
	if !ok {
		return markdown.CodeBlock{}, fmt.Errorf("block %s: %w", blockID, apperr.ErrNotFound)
	}
	return cb, nil
}

// CopyBlock handles POST /api/documents/{id}/blocks/{block}/copy.
//
//	@Summary		Copy a code block to the clipboard
//	@Description	The block shows as copied for the acknowledgement window, then reverts to idle.
//	@Tags			clipboard
//	@Produce		json
//	@Param			id		path		string	true	"Document id"
//	@Param			block	path		string	true	"Block id (code-N)"
//	@Success		200		{object}	CopyResponse
//	@Failure		404		{object}	errResponse
//	@Failure		503		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/blocks/{block}/copy [post]
func (h *Handler) CopyBlock(w http.ResponseWriter, r *http.Request) {
	if h.clip == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("clipboard is not configured"))
		return
	}
	docID, blockID := chi.URLParam(r, "id"), chi.URLParam(r, "block")
	cb, err := h.codeBlock(docID, blockID)
	if err != nil {
		writeError(w, "copy block", err)
		return
	}
	key := clipboard.BlockKey{DocumentID: docID, BlockID: blockID}
	if err := h.clip.Copy(r.Context(), key, cb.Content); err != nil {
		if errors.Is(err, sse.ErrNoClients) {
			writeJSON(w, http.StatusServiceUnavailable, errorBody(clipboard.FailureMessage))
			return
		}
		writeError(w, "copy block", err)
		return
	}
	writeJSON(w, http.StatusOK, CopyResponse{Block: blockID, State: h.clip.State(key), TTLMs: h.clip.TTL().Milliseconds()})
}

// BlockStates handles GET /api/documents/{id}/blocks.
//
//	@Summary		List code blocks and their copy states
//	@Tags			clipboard
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{array}		BlockStateItem
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/documents/{id}/blocks [get]
func (h *Handler) BlockStates(w http.ResponseWriter, r *http.Request) {
	doc, err := h.ws.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "block states", err)
		return
	}
	writeJSON(w, http.StatusOK, h.render(doc.ID, doc.Content, doc.Format).Blocks)
}
