package markdown

import (
	"html"
	"strconv"
	"strings"
)

// Options tune RenderHTML output.
type Options struct {
	// Copied reports whether a code block is in its acknowledgement state.
	Copied func(blockID string) bool
}

// RenderHTML renders nodes to an HTML fragment.
func RenderHTML(nodes []Node) string {
	return Render(nodes, Options{})
}

// Render renders nodes to an HTML fragment. Consecutive ordered items share
// one <ol>.
func Render(nodes []Node, opts Options) string {
	var b strings.Builder
	inOrdered := false
	for _, n := range nodes {
		if n.Kind != KindOrderedItem && inOrdered {
			b.WriteString("</ol>\n")
			inOrdered = false
		}
		switch n.Kind {
		case KindHeading:
			tag := "h" + strconv.Itoa(n.Level)
			b.WriteString("<" + tag + ">" + html.EscapeString(n.Text) + "</" + tag + ">\n")
		case KindParagraph:
			b.WriteString("<p>" + inlineText(n) + "</p>\n")
		case KindList:
			b.WriteString("<ul>\n")
			for _, it := range n.Items {
				b.WriteString("<li>" + it + "</li>\n")
			}
			b.WriteString("</ul>\n")
		case KindOrderedItem:
			if !inOrdered {
				b.WriteString("<ol>\n")
				inOrdered = true
			}
			b.WriteString("<li>" + inlineText(n) + "</li>\n")
		case KindCode:
			if n.Code != nil {
				writeCode(&b, *n.Code, opts)
			}
		case KindSpacer:
			b.WriteString("<div class=\"spacer\"></div>\n")
		}
	}
	if inOrdered {
		b.WriteString("</ol>\n")
	}
	return b.String()
}

func inlineText(n Node) string {
	if n.Markup {
		return n.Text
	}
	return html.EscapeString(n.Text)
}

func writeCode(b *strings.Builder, c CodeBlock, opts Options) {
	label, state := "Copy", "idle"
	if opts.Copied != nil && opts.Copied(c.ID) {
		label, state = "Copied!", "copied"
	}
	lang := html.EscapeString(c.Language)
	id := html.EscapeString(c.ID)
	b.WriteString(`<div class="code-block" id="` + id + `" data-language="` + lang + `" data-state="` + state + `">`)
	b.WriteString(`<div class="code-header"><span class="code-lang" style="color:` + html.EscapeString(c.Color) + `">` + lang + `</span>`)
	b.WriteString(`<button type="button" class="copy-button" data-block="` + id + `">` + label + `</button></div>`)
	b.WriteString(`<pre><code class="language-` + lang + `">` + html.EscapeString(c.Content) + "</code></pre></div>\n")
}
