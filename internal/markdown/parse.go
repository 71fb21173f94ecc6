package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

const fence = "```"

// DefaultLanguage is used for fences opened without a language token.
const DefaultLanguage = "text"

var orderedRe = regexp.MustCompile(`^\d+\.\s*`)

// parser carries the cross-line state of one Parse call.
type parser struct {
	nodes []Node

	inCode   bool
	codeLang string
	codeBuf  []string
	codeSeq  int

	listBuf []string
}

// Parse converts content into display nodes. It never fails: lines that do
// not match any construct become plain paragraphs and blank lines become
// spacers. An unterminated fence is flushed as a code block at end of input.
func Parse(content string) []Node {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}

	p := &parser{}
	for _, line := range strings.Split(content, "\n") {
		p.line(line)
	}
	if p.inCode {
		p.closeFence()
	}
	p.flushList()
	return p.nodes
}

func (p *parser) line(line string) {
	if strings.HasPrefix(line, fence) {
		p.flushList()
		if p.inCode {
			p.closeFence()
		} else {
			p.openFence(line)
		}
		return
	}
	if p.inCode {
		p.codeBuf = append(p.codeBuf, line)
		return
	}

	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") {
		p.listBuf = append(p.listBuf, Emphasize(strings.TrimSpace(line[2:])))
		return
	}
	p.flushList()

	if level, text, ok := heading(line); ok {
		p.emit(Node{Kind: KindHeading, Level: level, Text: text})
		return
	}
	if loc := orderedRe.FindStringIndex(line); loc != nil {
		p.emit(Node{Kind: KindOrderedItem, Text: line[loc[1]:]})
		return
	}
	if strings.Contains(line, "*") {
		p.emit(Node{Kind: KindParagraph, Text: Emphasize(line), Markup: true})
		return
	}
	if strings.TrimSpace(line) == "" {
		p.emit(Node{Kind: KindSpacer})
		return
	}
	p.emit(Node{Kind: KindParagraph, Text: line})
}

func (p *parser) emit(n Node) {
	p.nodes = append(p.nodes, n)
}

func (p *parser) openFence(line string) {
	p.inCode = true
	p.codeBuf = p.codeBuf[:0]
	p.codeLang = DefaultLanguage
	if f := strings.Fields(strings.TrimPrefix(line, fence)); len(f) > 0 {
		p.codeLang = strings.Trim(f[0], "`")
		if p.codeLang == "" {
			p.codeLang = DefaultLanguage
		}
	}
}

func (p *parser) closeFence() {
	p.codeSeq++
	p.emit(Node{Kind: KindCode, Code: &CodeBlock{
		ID:       "code-" + strconv.Itoa(p.codeSeq),
		Language: p.codeLang,
		Color:    LanguageColor(p.codeLang),
		Content:  strings.Join(p.codeBuf, "\n"),
	}})
	p.inCode = false
	p.codeBuf = nil
}

func (p *parser) flushList() {
	if len(p.listBuf) == 0 {
		return
	}
	p.emit(Node{Kind: KindList, Items: p.listBuf})
	p.listBuf = nil
}

// heading matches "### ", "## " and "# " prefixes, most specific first.
func heading(line string) (int, string, bool) {
	for level := 3; level >= 1; level-- {
		prefix := strings.Repeat("#", level) + " "
		if strings.HasPrefix(line, prefix) {
			return level, strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return 0, "", false
}
