// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes techdocs documents and the renderer over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
	"github.com/starford/techdocs/internal/search"
	"github.com/starford/techdocs/internal/workspace"
)

const defaultSearchLimit = 20

// Documents is the document collection the tools operate on.
type Documents interface {
	Filter(term, category string) []models.Document
	Get(id string) (models.Document, error)
	Save(ctx context.Context, id string, d models.Draft) (models.Document, error)
}

// Searcher runs full-text queries.
type Searcher interface {
	Search(q string, limit int) ([]search.Result, error)
}

// Server wraps the MCP server with techdocs tools.
type Server struct {
	mcp       *server.MCPServer
	docs      Documents
	search    Searcher
	sanitizer *convert.Sanitizer
}

// New creates a new MCP server with all tools registered. idx may be nil,
// in which case search_documents falls back to substring matching.
func New(docs Documents, idx Searcher) *Server {
	s := &Server{docs: docs, search: idx, sanitizer: convert.NewSanitizer()}

	s.mcp = server.NewMCPServer(
		"techdocs",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents, newest first, optionally filtered by a search term and category."),
		mcp.WithString("query", mcp.Description("Case-insensitive match on title, content and tags")),
		mcp.WithString("category", mcp.Description("Category name, or all")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_document",
		mcp.WithDescription("Read the raw content of a document."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Document id")),
	), s.readDocument)

	s.mcp.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a document. Markdown content MUST stay inside the techdocs dialect; "+
			"read it first via get_dialect_contract or the "+DialectURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Document title")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Document body")),
		mcp.WithString("category", mcp.Description("Category (default General)")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
		mcp.WithString("format", mcp.Description("markdown (default) or word")),
	), s.createDocument)

	s.mcp.AddTool(mcp.NewTool("render_markdown",
		mcp.WithDescription("Render dialect markdown to HTML."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Markdown source")),
	), s.renderMarkdown)

	s.mcp.AddTool(mcp.NewTool("convert_format",
		mcp.WithDescription("Convert content between markdown and word (HTML)."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Content to convert")),
		mcp.WithString("from", mcp.Required(), mcp.Description("markdown or word")),
		mcp.WithString("to", mcp.Required(), mcp.Description("markdown or word")),
	), s.convertFormat)

	s.mcp.AddTool(mcp.NewTool("search_documents",
		mcp.WithDescription("Full-text search through document titles, content and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchDocuments)

	s.mcp.AddTool(mcp.NewTool("get_dialect_contract",
		mcp.WithDescription("Returns the markdown dialect techdocs renders. "+
			"Call this before writing markdown content."),
	), s.getDialectContract)

	s.mcp.AddResource(
		mcp.NewResource(DialectURI, "Markdown Dialect",
			mcp.WithResourceDescription("The markdown subset the techdocs renderer understands."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDialectResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type documentSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Format    string    `json:"format"`
	UpdatedAt time.Time `json:"updated_at"`
}

func optionalString(req mcp.CallToolRequest, key string) string {
	if v, err := req.RequireString(key); err == nil {
		return v
	}
	return ""
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listDocuments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs := s.docs.Filter(optionalString(req, "query"), optionalString(req, "category"))
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentSummary{
			ID:        d.ID,
			Title:     d.Title,
			Category:  d.Category,
			Tags:      d.Tags,
			Format:    string(d.Format),
			UpdatedAt: d.UpdatedAt,
		})
	}
	return jsonResult(out), nil
}

func (s *Server) readDocument(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, err := s.docs.Get(id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(d.Content), nil
}

func (s *Server) createDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	draft := models.NewDraft()
	draft.Title = title
	draft.Content = content
	if c := optionalString(req, "category"); c != "" {
		draft.Category = c
	}
	draft.Tags = models.ParseTags(optionalString(req, "tags"))
	if f := optionalString(req, "format"); f != "" {
		draft.Format = models.Format(f)
	}

	d, err := s.docs.Save(ctx, "", draft)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", d.ID)), nil
}

func (s *Server) renderMarkdown(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(markdown.RenderHTML(markdown.Parse(content))), nil
}

func (s *Server) convertFormat(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from, to := models.Format(optionalString(req, "from")), models.Format(optionalString(req, "to"))
	if !from.Valid() || !to.Valid() {
		return mcp.NewToolResultError("from and to must be markdown or word"), nil
	}
	out := convert.Toggle(content, from, to)
	if to == models.FormatWord {
		out = s.sanitizer.Sanitize(out)
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) searchDocuments(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if s.search == nil {
		docs := s.docs.Filter(query, workspace.AllCategories)
		results := make([]search.Result, 0, len(docs))
		for _, d := range docs {
			results = append(results, search.Result{ID: d.ID, Title: d.Title, Category: d.Category})
		}
		return jsonResult(results), nil
	}
	results, err := s.search.Search(query, defaultSearchLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) getDialectContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DialectContract), nil
}

func (s *Server) readDialectResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      DialectURI,
			MIMEType: "text/markdown",
			Text:     DialectContract,
		},
	}, nil
}
