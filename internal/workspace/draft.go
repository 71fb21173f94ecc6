package workspace

import (
	"strings"
	"unicode/utf8"

	"github.com/starford/techdocs/internal/convert"
	"github.com/starford/techdocs/internal/importer"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/models"
)

// DefaultPreviewLength is the list-view preview length in runes.
const DefaultPreviewLength = 150

// Preview returns d's content as plain text, cut to limit runes with "..."
// appended when it was longer.
func Preview(d models.Document, limit int) string {
	if limit <= 0 {
		limit = DefaultPreviewLength
	}
	var text string
	if d.Format == models.FormatWord {
		text = convert.StripTags(d.Content)
	} else {
		text = markdown.PlainText(d.Content)
	}
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	r := []rune(text)
	return strings.TrimRight(string(r[:limit]), " ") + "..."
}

// ToggleFormat switches a draft to format to, converting its content.
// Selecting the current format leaves the draft unchanged.
func ToggleFormat(d models.Draft, to models.Format) models.Draft {
	if !to.Valid() || d.Format == to {
		return d
	}
	d.Content = convert.Toggle(d.Content, d.Format, to)
	d.Format = to
	return d
}

// ApplyImport loads file content into a draft. The title is derived from
// the file name only when the draft has none.
func ApplyImport(d models.Draft, name, content string) models.Draft {
	d.Content = content
	if strings.TrimSpace(d.Title) == "" {
		d.Title = importer.TitleFromFilename(name)
	}
	return d
}
