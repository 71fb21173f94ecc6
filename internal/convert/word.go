// Package convert translates document content between the markdown dialect
// and the word (HTML fragment) format. Conversions are best-effort: a round
// trip may change whitespace and drop structures with no markdown equivalent.
package convert

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/starford/techdocs/internal/markdown"
)

var orderedRe = regexp.MustCompile(`^\d+\.\s+`)

// wordWriter accumulates the HTML output of ToWord.
type wordWriter struct {
	b     strings.Builder
	para  []string
	list  string // "ul", "ol" or ""
	items []string
}

// ToWord converts markdown to an HTML fragment. Headings become h1-h3,
// consecutive list items share one <ul> or <ol>, emphasis becomes
// <strong>/<em>, fenced code becomes a code-block container and blank-line
// separated text becomes <p> elements.
func ToWord(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	w := &wordWriter{}

	var (
		inCode bool
		lang   string
		code   []string
	)
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, "```") {
			w.flush()
			if inCode {
				w.code(lang, code)
				inCode, code = false, nil
			} else {
				inCode = true
				lang = ""
				if f := strings.Fields(strings.TrimPrefix(line, "```")); len(f) > 0 {
					lang = f[0]
				}
			}
			continue
		}
		if inCode {
			code = append(code, line)
			continue
		}

		switch {
		case strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* "):
			w.item("ul", strings.TrimSpace(line[2:]))
		case orderedRe.MatchString(line):
			w.item("ol", orderedRe.ReplaceAllString(line, ""))
		case strings.HasPrefix(line, "### "):
			w.heading(3, line[4:])
		case strings.HasPrefix(line, "## "):
			w.heading(2, line[3:])
		case strings.HasPrefix(line, "# "):
			w.heading(1, line[2:])
		case strings.TrimSpace(line) == "":
			w.flush()
		default:
			w.flushList()
			w.para = append(w.para, markdown.Emphasize(strings.TrimSpace(line)))
		}
	}
	if inCode {
		w.flush()
		w.code(lang, code)
	}
	w.flush()
	return strings.TrimSuffix(w.b.String(), "\n")
}

func (w *wordWriter) item(kind, text string) {
	w.flushPara()
	if w.list != kind {
		w.flushList()
		w.list = kind
	}
	w.items = append(w.items, markdown.Emphasize(text))
}

func (w *wordWriter) heading(level int, text string) {
	w.flush()
	tag := "h" + strconv.Itoa(level)
	w.b.WriteString("<" + tag + ">" + markdown.Emphasize(strings.TrimSpace(text)) + "</" + tag + ">\n")
}

func (w *wordWriter) code(lang string, lines []string) {
	w.b.WriteString(`<div class="code-block"><pre><code`)
	if lang != "" {
		w.b.WriteString(` class="language-` + html.EscapeString(lang) + `"`)
	}
	w.b.WriteString(">" + html.EscapeString(strings.Join(lines, "\n")) + "</code></pre></div>\n")
}

func (w *wordWriter) flush() {
	w.flushPara()
	w.flushList()
}

func (w *wordWriter) flushPara() {
	if len(w.para) == 0 {
		return
	}
	w.b.WriteString("<p>" + strings.Join(w.para, "<br>") + "</p>\n")
	w.para = nil
}

func (w *wordWriter) flushList() {
	if len(w.items) == 0 {
		w.list = ""
		return
	}
	w.b.WriteString("<" + w.list + ">")
	for _, it := range w.items {
		w.b.WriteString("<li>" + it + "</li>")
	}
	w.b.WriteString("</" + w.list + ">\n")
	w.list, w.items = "", nil
}
