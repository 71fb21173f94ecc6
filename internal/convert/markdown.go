package convert

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	blankRunRe = regexp.MustCompile(`\n{3,}`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

type listFrame struct {
	ordered bool
	n       int
}

// mdWriter accumulates the markdown output of ToMarkdown.
type mdWriter struct {
	b     strings.Builder
	lists []listFrame

	pre     int
	code    strings.Builder
	codeTag string
	skip    int
}

// ToMarkdown converts an HTML fragment to markdown. It understands h1-h3
// (deeper headings map to ###), strong/b, em/i, ul/ol/li, p, div, br and
// pre/code; every other tag is stripped and its text kept. Script and style
// contents are dropped. Entities are unescaped.
func ToMarkdown(src string) string {
	w := &mdWriter{}
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		tok := z.Token()
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			w.start(tok, tt == html.SelfClosingTagToken)
		case html.EndTagToken:
			w.end(tok)
		case html.TextToken:
			w.text(tok.Data)
		}
	}
	if w.pre > 0 {
		w.flushCode()
	}

	out := w.b.String()
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out = blankRunRe.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(out)
}

func (w *mdWriter) start(tok html.Token, selfClosing bool) {
	if w.skip > 0 {
		if !selfClosing && (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style) {
			w.skip++
		}
		return
	}
	if w.pre > 0 {
		switch tok.DataAtom {
		case atom.Pre:
			w.pre++
		case atom.Code:
			if w.codeTag == "" {
				w.codeTag = languageOf(tok)
			}
		case atom.Br:
			w.code.WriteByte('\n')
		}
		return
	}

	switch tok.DataAtom {
	case atom.Script, atom.Style:
		if !selfClosing {
			w.skip++
		}
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.block()
		level := int(tok.Data[1] - '0')
		if level > 3 {
			level = 3
		}
		w.b.WriteString(strings.Repeat("#", level) + " ")
	case atom.Strong, atom.B:
		w.b.WriteString("**")
	case atom.Em, atom.I:
		w.b.WriteString("*")
	case atom.Ul, atom.Ol:
		if len(w.lists) == 0 {
			w.block()
		} else {
			w.newline()
		}
		w.lists = append(w.lists, listFrame{ordered: tok.DataAtom == atom.Ol})
	case atom.Li:
		w.newline()
		if len(w.lists) == 0 {
			w.b.WriteString("- ")
			return
		}
		top := &w.lists[len(w.lists)-1]
		w.b.WriteString(strings.Repeat("  ", len(w.lists)-1))
		if top.ordered {
			top.n++
			w.b.WriteString(strconv.Itoa(top.n) + ". ")
		} else {
			w.b.WriteString("- ")
		}
	case atom.P, atom.Div, atom.Blockquote, atom.Table, atom.Tr:
		if len(w.lists) == 0 {
			w.block()
		}
	case atom.Br:
		w.b.WriteByte('\n')
	case atom.Pre:
		w.block()
		w.pre = 1
		w.code.Reset()
		w.codeTag = ""
	case atom.Code:
		w.b.WriteByte('`')
	}
}

func (w *mdWriter) end(tok html.Token) {
	if w.skip > 0 {
		if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
			w.skip--
		}
		return
	}
	if w.pre > 0 {
		if tok.DataAtom == atom.Pre {
			w.pre--
			if w.pre == 0 {
				w.flushCode()
			}
		}
		return
	}

	switch tok.DataAtom {
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		w.b.WriteString("\n\n")
	case atom.Strong, atom.B:
		w.b.WriteString("**")
	case atom.Em, atom.I:
		w.b.WriteString("*")
	case atom.Ul, atom.Ol:
		if len(w.lists) > 0 {
			w.lists = w.lists[:len(w.lists)-1]
		}
		if len(w.lists) == 0 {
			w.b.WriteString("\n\n")
		}
	case atom.P, atom.Div, atom.Blockquote, atom.Table, atom.Tr:
		if len(w.lists) == 0 {
			w.b.WriteString("\n\n")
		}
	case atom.Code:
		w.b.WriteByte('`')
	}
}

func (w *mdWriter) text(s string) {
	if w.skip > 0 {
		return
	}
	if w.pre > 0 {
		w.code.WriteString(s)
		return
	}
	s = spaceRunRe.ReplaceAllString(s, " ")
	if w.atLineStart() {
		s = strings.TrimLeft(s, " ")
	}
	w.b.WriteString(s)
}

func (w *mdWriter) flushCode() {
	body := strings.Trim(w.code.String(), "\n")
	w.b.WriteString("```" + w.codeTag + "\n" + body + "\n```\n\n")
	w.pre = 0
	w.code.Reset()
	w.codeTag = ""
}

func (w *mdWriter) atLineStart() bool {
	if w.b.Len() == 0 {
		return true
	}
	s := w.b.String()
	return s[len(s)-1] == '\n'
}

func (w *mdWriter) newline() {
	if !w.atLineStart() {
		w.b.WriteByte('\n')
	}
}

// block ensures the output is positioned at the start of a new paragraph.
func (w *mdWriter) block() {
	if w.b.Len() == 0 {
		return
	}
	s := w.b.String()
	switch {
	case strings.HasSuffix(s, "\n\n"):
	case strings.HasSuffix(s, "\n"):
		w.b.WriteByte('\n')
	default:
		w.b.WriteString("\n\n")
	}
}

func languageOf(tok html.Token) string {
	for _, a := range tok.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if lang, ok := strings.CutPrefix(c, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}
