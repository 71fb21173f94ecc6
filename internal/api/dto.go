package api

import (
	"strings"

	"github.com/starford/techdocs/internal/clipboard"
	"github.com/starford/techdocs/internal/editor"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/search"
)

// DocumentRequest is the body for creating or updating a document.
type DocumentRequest struct {
	Title    string   `json:"title" example:"Deploying" validate:"required"`
	Content  string   `json:"content" example:"# Deploy\nRun it." validate:"required"`
	Category string   `json:"category" example:"Ops"`
	Tags     []string `json:"tags" example:"k8s,ci"`
	Format   string   `json:"format" example:"markdown" enums:"markdown,word"`
}

// draft converts the request into a draft. An empty format means markdown;
// any other unknown value is left for validation to reject.
func (req DocumentRequest) draft() models.Draft {
	format := models.Format(strings.ToLower(strings.TrimSpace(req.Format)))
	if format == "" {
		format = models.FormatMarkdown
	}
	return models.Draft{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     models.UniqueTags(req.Tags),
		Format:   format,
	}
}

// DocumentListItem is a document plus its plain-text preview.
type DocumentListItem struct {
	models.Document
	Preview string `json:"preview"`
}

// DocumentListResponse wraps filtered document listings.
type DocumentListResponse struct {
	Documents []DocumentListItem `json:"documents" validate:"required"`
	Total     int                `json:"total" example:"42" validate:"required"`
}

// RenderRequest is the body of an ad-hoc preview.
type RenderRequest struct {
	Content string `json:"content" validate:"required"`
	Format  string `json:"format" enums:"markdown,word"`
}

// RenderResponse carries the node tree and its HTML fragment. Nodes is empty
// for word content, which is displayed as sanitized HTML.
type RenderResponse struct {
	ID     string           `json:"id,omitempty"`
	Format models.Format    `json:"format"`
	Nodes  []markdown.Node  `json:"nodes"`
	HTML   string           `json:"html"`
	Blocks []BlockStateItem `json:"blocks"`
}

// ConvertRequest asks for a format conversion.
type ConvertRequest struct {
	Content string `json:"content"`
	From    string `json:"from" enums:"markdown,word" validate:"required"`
	To      string `json:"to" enums:"markdown,word" validate:"required"`
}

// ConvertResponse is the converted content.
type ConvertResponse struct {
	Content string        `json:"content"`
	Format  models.Format `json:"format"`
}

// FormatRequest applies a rich-text command to word content.
type FormatRequest struct {
	Content   string           `json:"content"`
	Selection editor.Selection `json:"selection"`
	Command   editor.Command   `json:"command" enums:"bold,italic,underline,align,list,block" validate:"required"`
	Value     string           `json:"value,omitempty"`
}

// FormatResponse is the formatted content.
type FormatResponse struct {
	Content string `json:"content"`
}

// BlockStateItem describes a code block and its copy state.
type BlockStateItem struct {
	ID       string          `json:"id"`
	Language string          `json:"language"`
	Color    string          `json:"color"`
	State    clipboard.State `json:"state"`
}

// CopyResponse is returned after a successful copy.
type CopyResponse struct {
	Block string          `json:"block"`
	State clipboard.State `json:"state"`
	TTLMs int64           `json:"ttl_ms" example:"2000"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []search.Result `json:"results" validate:"required"`
}

// ImportResponse is the draft built from an uploaded file. Document is set
// when the upload asked for the draft to be saved.
type ImportResponse struct {
	Filename string           `json:"filename"`
	Size     int64            `json:"size"`
	Draft    models.Draft     `json:"draft"`
	Document *models.Document `json:"document,omitempty"`
}
