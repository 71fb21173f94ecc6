package convert

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer strips unsafe markup from word content before it is displayed
// or stored. Safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds the word-content policy: headings, paragraphs, inline
// emphasis, lists, quotes, code, links, images and tables, with a small set
// of attributes. Code-block containers and text alignment survive so that
// converted and formatted content round-trips through the sanitizer.
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "strong", "em", "u", "s", "b", "i",
		"ul", "ol", "li",
		"blockquote", "code", "pre", "div", "a", "img",
		"table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("href", "target", "rel").OnElements("a")
	p.AllowAttrs("src", "alt", "width", "height").OnElements("img")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	p.AllowStyles("text-align").MatchingEnum("left", "center", "right", "justify").
		OnElements("p", "div", "h1", "h2", "h3", "li")
	return &Sanitizer{policy: p}
}

// Sanitize returns src with disallowed elements and attributes removed.
func (s *Sanitizer) Sanitize(src string) string {
	return s.policy.Sanitize(src)
}

var strict = bluemonday.StrictPolicy()

// StripTags removes all markup and returns the plain text of s with
// whitespace collapsed. Adjacent elements are separated by a space.
func StripTags(s string) string {
	text := html.UnescapeString(strict.Sanitize(strings.ReplaceAll(s, "<", " <")))
	return strings.Join(strings.Fields(text), " ")
}
