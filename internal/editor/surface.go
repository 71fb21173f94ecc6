// Package editor exposes rich-text formatting as named commands applied to
// word (HTML fragment) content.
package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/starford/techdocs/internal/apperr"
)

// Command names a formatting operation.
type Command string

const (
	CmdBold      Command = "bold"
	CmdItalic    Command = "italic"
	CmdUnderline Command = "underline"
	CmdAlign     Command = "align"
	CmdList      Command = "list"
	CmdBlock     Command = "block"
)

// Selection is a half-open byte range [Start, End) of the content.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Surface applies formatting commands to content. value carries the
// command argument: an alignment, a list kind or a block tag.
type Surface interface {
	Apply(content string, sel Selection, cmd Command, value string) (string, error)
}

var (
	inlineTags = map[Command]string{
		CmdBold:      "strong",
		CmdItalic:    "em",
		CmdUnderline: "u",
	}
	alignments = map[string]bool{"left": true, "center": true, "right": true, "justify": true}
	listTags   = map[string]string{"unordered": "ul", "ordered": "ol"}
	blockTags  = map[string]bool{"p": true, "h1": true, "h2": true, "h3": true, "pre": true, "blockquote": true}
)

// HTMLSurface formats HTML fragments by wrapping the selection in tags.
type HTMLSurface struct{}

var _ Surface = HTMLSurface{}

// Apply implements Surface. An empty selection leaves inline commands as
// no-ops. Unknown commands return apperr.ErrUnsupported.
func (HTMLSurface) Apply(content string, sel Selection, cmd Command, value string) (string, error) {
	if err := checkSelection(content, sel); err != nil {
		return "", err
	}
	before, selected, after := content[:sel.Start], content[sel.Start:sel.End], content[sel.End:]
	value = strings.ToLower(strings.TrimSpace(value))

	switch cmd {
	case CmdBold, CmdItalic, CmdUnderline:
		if selected == "" {
			return content, nil
		}
		tag := inlineTags[cmd]
		return before + "<" + tag + ">" + selected + "</" + tag + ">" + after, nil

	case CmdAlign:
		if !alignments[value] {
			return "", fmt.Errorf("%w: alignment %q", apperr.ErrValidation, value)
		}
		return before + `<div style="text-align: ` + value + `">` + selected + "</div>" + after, nil

	case CmdList:
		tag, ok := listTags[value]
		if !ok {
			return "", fmt.Errorf("%w: list kind %q", apperr.ErrValidation, value)
		}
		var b strings.Builder
		b.WriteString("<" + tag + ">")
		for _, line := range splitLines(selected) {
			b.WriteString("<li>" + line + "</li>")
		}
		b.WriteString("</" + tag + ">")
		return before + b.String() + after, nil

	case CmdBlock:
		if !blockTags[value] {
			return "", fmt.Errorf("%w: block style %q", apperr.ErrValidation, value)
		}
		return before + "<" + value + ">" + selected + "</" + value + ">" + after, nil
	}
	return "", fmt.Errorf("%w: command %q", apperr.ErrUnsupported, cmd)
}

func checkSelection(content string, sel Selection) error {
	if sel.Start < 0 || sel.End < sel.Start || sel.End > len(content) {
		return fmt.Errorf("%w: selection [%d,%d) outside content of %d bytes",
			apperr.ErrValidation, sel.Start, sel.End, len(content))
	}
	if !boundary(content, sel.Start) || !boundary(content, sel.End) {
		return fmt.Errorf("%w: selection splits a character", apperr.ErrValidation)
	}
	return nil
}

func boundary(s string, i int) bool {
	return i == len(s) || utf8.RuneStart(s[i])
}

// splitLines splits selected text on newlines and <br> tags, dropping blanks.
func splitLines(s string) []string {
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(s)
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		out = []string{""}
	}
	return out
}
