package markdown

import (
	"reflect"
	"strings"
	"testing"
)

func TestParse_EndToEnd(t *testing.T) {
	got := Parse("# Title\n\nSome **bold** text\n\n- a\n- b\n")
	want := []Node{
		{Kind: KindHeading, Level: 1, Text: "Title"},
		{Kind: KindSpacer},
		{Kind: KindParagraph, Text: "Some <strong>bold</strong> text", Markup: true},
		{Kind: KindSpacer},
		{Kind: KindList, Items: []string{"a", "b"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse =\n%#v\nwant\n%#v", got, want)
	}
}

func TestParse_PlainLines(t *testing.T) {
	inputs := []string{
		"hello",
		"one\ntwo\n\nthree",
		"a\n\n\nb\n",
		"  indented text\nlast line",
	}
	for _, in := range inputs {
		nodes := Parse(in)
		lines := strings.Split(strings.TrimSuffix(in, "\n"), "\n")
		if len(nodes) != len(lines) {
			t.Fatalf("%q: got %d nodes, want %d", in, len(nodes), len(lines))
		}
		for i, line := range lines {
			n := nodes[i]
			if strings.TrimSpace(line) == "" {
				if n.Kind != KindSpacer {
					t.Errorf("%q line %d: kind = %s, want spacer", in, i, n.Kind)
				}
				continue
			}
			if n.Kind != KindParagraph || n.Text != line || n.Markup {
				t.Errorf("%q line %d: got %+v, want plain paragraph %q", in, i, n, line)
			}
		}
	}
}

func TestParse_FencedCode(t *testing.T) {
	for _, in := range []string{
		"```js\ncode\n```",
		"before\n```js\ncode\n```\nafter",
		"- item\n```js\ncode\n```\n",
	} {
		blocks := CodeBlocks(Parse(in))
		if len(blocks) != 1 {
			t.Fatalf("%q: got %d code blocks, want 1", in, len(blocks))
		}
		if blocks[0].Language != "js" || blocks[0].Content != "code" {
			t.Errorf("%q: block = %+v", in, blocks[0])
		}
		if blocks[0].ID != "code-1" {
			t.Errorf("%q: id = %q, want code-1", in, blocks[0].ID)
		}
	}
}

func TestParse_CodeContentIsRaw(t *testing.T) {
	nodes := Parse("```\n# not a heading\n- not a list\n**x** <b>\n```")
	if len(nodes) != 1 || nodes[0].Kind != KindCode {
		t.Fatalf("nodes = %+v", nodes)
	}
	c := nodes[0].Code
	if c.Language != DefaultLanguage {
		t.Errorf("language = %q, want text", c.Language)
	}
	if c.Content != "# not a heading\n- not a list\n**x** <b>" {
		t.Errorf("content = %q", c.Content)
	}
}

func TestParse_SequentialCodeIDs(t *testing.T) {
	blocks := CodeBlocks(Parse("```go\na\n```\ntext\n```py\nb\n```"))
	if len(blocks) != 2 || blocks[0].ID != "code-1" || blocks[1].ID != "code-2" {
		t.Fatalf("blocks = %+v", blocks)
	}
	if blocks[1].Color != LanguageColor("python") {
		t.Errorf("py color = %q", blocks[1].Color)
	}
	// ids restart for every pass.
	again := CodeBlocks(Parse("```go\na\n```"))
	if again[0].ID != "code-1" {
		t.Errorf("second pass id = %q", again[0].ID)
	}
}

func TestParse_UnterminatedFence(t *testing.T) {
	nodes := Parse("intro\n```sh\necho hi\nls")
	if len(nodes) != 2 {
		t.Fatalf("nodes = %+v", nodes)
	}
	c := nodes[1].Code
	if c == nil || c.Language != "sh" || c.Content != "echo hi\nls" {
		t.Errorf("flushed block = %+v", c)
	}
}

func TestParse_ListGrouping(t *testing.T) {
	nodes := Parse("- one\n* **two**\n- three\nafter\n- solo")
	if len(nodes) != 3 {
		t.Fatalf("nodes = %+v", nodes)
	}
	want := []string{"one", "<strong>two</strong>", "three"}
	if nodes[0].Kind != KindList || !reflect.DeepEqual(nodes[0].Items, want) {
		t.Errorf("first list = %+v", nodes[0])
	}
	if nodes[1].Kind != KindParagraph || nodes[1].Text != "after" {
		t.Errorf("flush node = %+v", nodes[1])
	}
	if nodes[2].Kind != KindList || len(nodes[2].Items) != 1 {
		t.Errorf("trailing list = %+v", nodes[2])
	}
}

func TestParse_ListFlushedByHeadingAndFence(t *testing.T) {
	nodes := Parse("- a\n## Sub\n- b\n```\nx\n```")
	kinds := make([]Kind, len(nodes))
	for i, n := range nodes {
		kinds[i] = n.Kind
	}
	want := []Kind{KindList, KindHeading, KindList, KindCode}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if nodes[1].Level != 2 || nodes[1].Text != "Sub" {
		t.Errorf("heading = %+v", nodes[1])
	}
}

func TestParse_Headings(t *testing.T) {
	cases := []struct {
		in    string
		level int
		text  string
	}{
		{"# One", 1, "One"},
		{"## Two", 2, "Two"},
		{"### Three", 3, "Three"},
	}
	for _, tc := range cases {
		nodes := Parse(tc.in)
		if len(nodes) != 1 || nodes[0].Kind != KindHeading || nodes[0].Level != tc.level || nodes[0].Text != tc.text {
			t.Errorf("Parse(%q) = %+v", tc.in, nodes)
		}
	}
	// Four hashes and missing space are not headings.
	for _, in := range []string{"#### Four", "#tag"} {
		if n := Parse(in); n[0].Kind != KindParagraph {
			t.Errorf("Parse(%q) kind = %s, want paragraph", in, n[0].Kind)
		}
	}
}

func TestParse_OrderedItemsNotGrouped(t *testing.T) {
	nodes := Parse("1. first\n2. second\n10.tight")
	if len(nodes) != 3 {
		t.Fatalf("nodes = %+v", nodes)
	}
	for i, want := range []string{"first", "second", "tight"} {
		if nodes[i].Kind != KindOrderedItem || nodes[i].Text != want {
			t.Errorf("node %d = %+v, want ordered item %q", i, nodes[i], want)
		}
	}
}

func TestParse_Empty(t *testing.T) {
	if n := Parse(""); len(n) != 0 {
		t.Errorf("Parse(\"\") = %+v", n)
	}
	if n := Parse("\n"); len(n) != 0 {
		t.Errorf("Parse(\"\\n\") = %+v", n)
	}
}

func TestParse_CRLF(t *testing.T) {
	nodes := Parse("# T\r\n\r\nbody\r\n")
	if len(nodes) != 3 || nodes[0].Text != "T" || nodes[2].Text != "body" {
		t.Errorf("nodes = %+v", nodes)
	}
}

func TestEmphasize(t *testing.T) {
	cases := map[string]string{
		"**bold** and *it*":    "<strong>bold</strong> and <em>it</em>",
		"a * b":                "a * b",
		"**unclosed":           "**unclosed",
		"2*3*4":                "2<em>3</em>4",
		"<script>*x*</script>": "&lt;script&gt;<em>x</em>&lt;/script&gt;",
		"**x*":                 "**x*",
		"**a** **b**":          "<strong>a</strong> <strong>b</strong>",
		"quote \"*q*\" & more": "quote &#34;<em>q</em>&#34; &amp; more",
	}
	for in, want := range cases {
		if got := Emphasize(in); got != want {
			t.Errorf("Emphasize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLanguageColor(t *testing.T) {
	if LanguageColor("JS") != LanguageColor("javascript") {
		t.Error("js aliases should share a color")
	}
	if LanguageColor("yml") != LanguageColor("yaml") {
		t.Error("yml aliases should share a color")
	}
	if LanguageColor("brainfuck") != NeutralColor {
		t.Error("unknown languages get the neutral color")
	}
}
