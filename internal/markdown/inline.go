package markdown

import (
	"html"
	"regexp"
	"strings"
)

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Emphasize escapes s and converts **bold** to <strong> and *italic* to <em>.
// An italic marker adjacent to another '*' is left alone so that unmatched
// bold markers are not read as nested italics. The result is safe to inject.
func Emphasize(s string) string {
	s = html.EscapeString(s)
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	return italicize(s)
}

func italicize(s string) string {
	if !strings.Contains(s, "*") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		if s[i] != '*' || (i > 0 && s[i-1] == '*') {
			b.WriteByte(s[i])
			continue
		}
		j := strings.IndexByte(s[i+1:], '*')
		if j <= 0 {
			b.WriteByte(s[i])
			continue
		}
		end := i + 1 + j
		if end+1 < len(s) && s[end+1] == '*' {
			b.WriteByte(s[i])
			continue
		}
		b.WriteString("<em>")
		b.WriteString(s[i+1 : end])
		b.WriteString("</em>")
		i = end
	}
	return b.String()
}
