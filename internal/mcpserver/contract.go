package mcpserver

// DialectURI is the resource URI of the dialect contract.
const DialectURI = "techdocs://dialect"

// DialectContract describes the markdown dialect the renderer understands.
// Content written by LLM consumers should stay inside it.
const DialectContract = `# techdocs Markdown Dialect

techdocs renders a deliberately small markdown dialect. Every line is read
on its own; there is no nesting and no reference syntax.

## Block constructs

| Line starts with        | Renders as                                  |
|-------------------------|---------------------------------------------|
| ` + "`# `" + `                    | level 1 heading                             |
| ` + "`## `" + `                   | level 2 heading                             |
| ` + "`### `" + `                  | level 3 heading                             |
| ` + "`- `" + ` or ` + "`* `" + `            | bullet item; consecutive items form a list  |
| digits then ` + "`.`" + `           | numbered item                               |
| three backticks         | opens or closes a code block                |
| blank line              | vertical spacer                             |
| anything else           | paragraph                                   |

Headings deeper than ` + "`###`" + ` are plain paragraphs.

## Code blocks

` + "```" + `markdown
` + "```" + `go
fmt.Println("hello")
` + "```" + `
` + "```" + `

- The word after the opening fence is the language. Without one the block
  is labelled ` + "`text`" + `.
- Lines inside a block are kept verbatim and never treated as markup.
- Every block gets a copy button. Blocks are numbered ` + "`code-1`" + `,
  ` + "`code-2`" + `, ... in document order.
- A block left open at the end of the document is closed automatically.

## Inline emphasis

- ` + "`**bold**`" + ` renders bold.
- ` + "`*italic*`" + ` renders italic.
- Emphasis applies in paragraphs and bullet items only. Headings and
  numbered items show asterisks literally.
- All other characters are escaped; raw HTML is shown as text.

## Word documents

Documents with format ` + "`word`" + ` hold HTML instead of markdown. Allowed
tags: p, br, strong, em, b, i, u, s, h1-h6, ul, ol, li, blockquote, pre,
code, div, a, img, table, thead, tbody, tr, th, td. Everything else is removed
before display.

Use the ` + "`convert_format`" + ` tool to move content between the two formats.
The markdown → word → markdown round trip keeps headings, lists, emphasis
and code blocks but is not byte-exact.
`
