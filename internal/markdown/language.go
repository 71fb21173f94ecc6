package markdown

import "strings"

// NeutralColor is the hint for languages without an entry.
const NeutralColor = "#6b7280"

var languageColors = map[string]string{
	"javascript": "#f7df1e",
	"js":         "#f7df1e",
	"python":     "#3776ab",
	"py":         "#3776ab",
	"java":       "#ed8b00",
	"cpp":        "#00599c",
	"c":          "#a8b9cc",
	"html":       "#e34f26",
	"css":        "#1572b6",
	"sql":        "#336791",
	"bash":       "#4eaa25",
	"shell":      "#4eaa25",
	"json":       "#292929",
	"xml":        "#0060ac",
	"yaml":       "#cb171e",
	"yml":        "#cb171e",
}

// LanguageColor returns the display color hint for a fence language.
func LanguageColor(lang string) string {
	if c, ok := languageColors[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return c
	}
	return NeutralColor
}
