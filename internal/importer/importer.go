// Package importer turns local files into document drafts.
package importer

import (
	"bytes"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"gopkg.in/yaml.v3"

	"github.com/starford/techdocs/internal/apperr"
	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/models"
)

// Options tune a single import.
type Options struct {
	// HTMLAsMarkdown converts .html files to markdown instead of importing
	// them as word content.
	HTMLAsMarkdown bool
}

// Importer converts file contents to drafts. Safe for concurrent use.
type Importer struct {
	sanitizer *convert.Sanitizer
	html      *md.Converter
}

// New creates an importer.
func New() *Importer {
	return &Importer{
		sanitizer: convert.NewSanitizer(),
		html:      md.NewConverter("", true, nil),
	}
}

// Import builds a draft from a file. The title comes from frontmatter when
// present, otherwise from the file name with its extension stripped.
func (im *Importer) Import(name string, data []byte, opts Options) (models.Draft, error) {
	if !utf8.Valid(data) {
		return models.Draft{}, fmt.Errorf("%w: %s is not UTF-8 text", apperr.ErrValidation, name)
	}
	d := models.NewDraft()
	d.Title = TitleFromFilename(name)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown":
		fm, body := splitFrontmatter(data)
		d.Content = body
		applyFrontmatter(&d, fm)
	case ".txt":
		d.Content = string(data)
	case ".html", ".htm":
		clean := im.sanitizer.Sanitize(string(data))
		if !opts.HTMLAsMarkdown {
			d.Content = strings.TrimSpace(clean)
			d.Format = models.FormatWord
			break
		}
		out, err := im.html.ConvertString(clean)
		if err != nil {
			return models.Draft{}, fmt.Errorf("importer: convert %s: %w", name, err)
		}
		d.Content = out
	default:
		return models.Draft{}, fmt.Errorf("%w: file type %q", apperr.ErrUnsupported, filepath.Ext(name))
	}
	return d, nil
}

// TitleFromFilename strips the directory and the last extension of name.
// Both slash styles are accepted.
func TitleFromFilename(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		return base
	}
	return stem
}

// splitFrontmatter separates YAML frontmatter (between leading --- lines)
// from the body. Missing or invalid frontmatter leaves the data as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	var fm map[string]any
	if err := yaml.Unmarshal(rest[:idx], &fm); err != nil {
		return nil, string(data)
	}
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	return fm, body
}

func applyFrontmatter(d *models.Draft, fm map[string]any) {
	if fm == nil {
		return
	}
	if s, ok := fm["title"].(string); ok && strings.TrimSpace(s) != "" {
		d.Title = strings.TrimSpace(s)
	}
	if s, ok := fm["category"].(string); ok {
		d.Category = strings.TrimSpace(s)
	}
	switch v := fm["tags"].(type) {
	case []any:
		tags := make([]string, 0, len(v))
		for _, it := range v {
			if s, ok := it.(string); ok {
				tags = append(tags, s)
			}
		}
		d.Tags = models.UniqueTags(tags)
	case string:
		d.Tags = models.ParseTags(v)
	}
	if s, ok := fm["format"].(string); ok {
		d.Format = models.ParseFormat(s)
	}
}
