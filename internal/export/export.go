// Package export writes documents as self-contained HTML files.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Theme selects the export colour palette.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme maps anything other than "dark" to the light theme.
func ParseTheme(s string) Theme {
	if strings.EqualFold(strings.TrimSpace(s), string(ThemeDark)) {
		return ThemeDark
	}
	return ThemeLight
}

// Palette holds the CSS colours of a theme.
type Palette struct {
	Background template.CSS
	Text       template.CSS
	Heading    template.CSS
	Muted      template.CSS
	Rule       template.CSS
	Code       template.CSS
}

var palettes = map[Theme]Palette{
	ThemeLight: {Background: "#ffffff", Text: "#1f2937", Heading: "#333333", Muted: "#6b7280", Rule: "#eeeeee", Code: "#f5f5f5"},
	ThemeDark:  {Background: "#111827", Text: "#e5e7eb", Heading: "#f9fafb", Muted: "#9ca3af", Rule: "#374151", Code: "#1f2937"},
}

type page struct {
	Theme     Theme
	Palette   Palette
	Title     string
	Category  string
	Tags      []string
	UpdatedAt time.Time
	Body      template.HTML
}

// Exporter renders documents to HTML pages.
type Exporter struct {
	tmpl      *template.Template
	sanitizer *convert.Sanitizer
}

// New parses the embedded page template.
func New() (*Exporter, error) {
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("export: parse templates: %w", err)
	}
	return &Exporter{tmpl: tmpl, sanitizer: convert.NewSanitizer()}, nil
}

// Write renders d as a complete HTML page. Markdown content goes through the
// dialect renderer, word content through the sanitizer.
func (e *Exporter) Write(w io.Writer, d models.Document, theme Theme) error {
	palette, ok := palettes[theme]
	if !ok {
		theme, palette = ThemeLight, palettes[ThemeLight]
	}
	p := page{
		Theme:     theme,
		Palette:   palette,
		Title:     d.Title,
		Category:  d.Category,
		Tags:      d.Tags,
		UpdatedAt: d.UpdatedAt,
		Body:      e.Body(d),
	}
	if err := e.tmpl.ExecuteTemplate(w, "document.html", p); err != nil {
		return fmt.Errorf("export: render %s: %w", d.ID, err)
	}
	return nil
}

// Bytes is Write into a buffer.
func (e *Exporter) Bytes(d models.Document, theme Theme) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Write(&buf, d, theme); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Body returns the safe HTML body of d.
func (e *Exporter) Body(d models.Document) template.HTML {
	if d.Format == models.FormatWord {
		return template.HTML(e.sanitizer.Sanitize(d.Content))
	}
	return template.HTML(markdown.RenderHTML(markdown.Parse(d.Content)))
}

// FileName is the download name for d: its title with path and control
// characters replaced, plus ".html".
func FileName(d models.Document) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, strings.TrimSpace(d.Title))
	if name == "" {
		name = "document"
	}
	return name + ".html"
}
