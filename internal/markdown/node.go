// Package markdown parses the techdocs markdown dialect into a flat node tree
// and renders that tree to HTML.
//
// The dialect is deliberately small: headings 1-3, unordered and ordered list
// items, **bold** and *italic* emphasis, fenced code blocks and paragraphs.
package markdown

// Kind identifies a display node.
type Kind string

const (
	KindHeading     Kind = "heading"
	KindParagraph   Kind = "paragraph"
	KindList        Kind = "list"
	KindOrderedItem Kind = "ordered_item"
	KindCode        Kind = "code"
	KindSpacer      Kind = "spacer"
)

// Node is one element of a rendered document.
//
// Text holds the raw line text for headings, plain paragraphs and ordered
// items. When Markup is true Text already contains escaped inline HTML
// (<strong>, <em>) and must be injected as-is. List items are always markup.
type Node struct {
	Kind   Kind       `json:"kind"`
	Level  int        `json:"level,omitempty"`
	Text   string     `json:"text,omitempty"`
	Markup bool       `json:"markup,omitempty"`
	Items  []string   `json:"items,omitempty"`
	Code   *CodeBlock `json:"code,omitempty"`
}

// CodeBlock is a fenced region. ID is unique within one Parse call.
type CodeBlock struct {
	ID       string `json:"id"`
	Language string `json:"language"`
	Color    string `json:"color"`
	Content  string `json:"content"`
}

// CodeBlocks returns the code blocks of nodes in document order.
func CodeBlocks(nodes []Node) []CodeBlock {
	var out []CodeBlock
	for _, n := range nodes {
		if n.Kind == KindCode && n.Code != nil {
			out = append(out, *n.Code)
		}
	}
	return out
}

// FindCodeBlock looks up a block by id.
func FindCodeBlock(nodes []Node, id string) (CodeBlock, bool) {
	for _, n := range nodes {
		if n.Kind == KindCode && n.Code != nil && n.Code.ID == id {
			return *n.Code, true
		}
	}
	return CodeBlock{}, false
}
