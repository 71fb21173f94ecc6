package convert

import (
	"strings"
	"testing"

	"github.com/starford/techdocs/internal/models"
)

func TestToWord(t *testing.T) {
	got := ToWord("# Title\n\nSome **bold** and *it* text\nnext line\n\n- a\n- b\n\n```js\nif (a < b) {}\n```\n\n## Sub\n1. one\n2. two")
	want := "<h1>Title</h1>\n" +
		"<p>Some <strong>bold</strong> and <em>it</em> text<br>next line</p>\n" +
		"<ul><li>a</li><li>b</li></ul>\n" +
		`<div class="code-block"><pre><code class="language-js">if (a &lt; b) {}</code></pre></div>` + "\n" +
		"<h2>Sub</h2>\n" +
		"<ol><li>one</li><li>two</li></ol>"
	if got != want {
		t.Errorf("ToWord =\n%s\nwant\n%s", got, want)
	}
}

func TestToWord_PlainCodeFence(t *testing.T) {
	got := ToWord("```\nx\n```")
	want := `<div class="code-block"><pre><code>x</code></pre></div>`
	if got != want {
		t.Errorf("ToWord = %q, want %q", got, want)
	}
}

func TestToWord_EscapesText(t *testing.T) {
	got := ToWord("<script>alert(1)</script>")
	if strings.Contains(got, "<script>") {
		t.Errorf("raw markup leaked: %q", got)
	}
}

func TestToMarkdown(t *testing.T) {
	in := `<h1>Title</h1><p>Some <b>bold</b> and <i>it</i> &amp; more</p>` +
		`<ul><li>a</li><li>b<ul><li>nested</li></ul></li></ul>` +
		`<ol><li>one</li><li>two</li></ol>` +
		`<div class="code-block"><pre><code class="language-go">a &lt; b</code></pre></div>` +
		`<h5>Deep</h5><p>x<br>y <span style="color:red">span</span></p><script>bad()</script>`
	want := "# Title\n\n" +
		"Some **bold** and *it* & more\n\n" +
		"- a\n- b\n  - nested\n\n" +
		"1. one\n2. two\n\n" +
		"```go\na < b\n```\n\n" +
		"### Deep\n\n" +
		"x\ny span"
	if got := ToMarkdown(in); got != want {
		t.Errorf("ToMarkdown =\n%q\nwant\n%q", got, want)
	}
}

func TestRoundTrip_EndToEndDocument(t *testing.T) {
	src := "# Title\n\nSome **bold** text\n\n- a\n- b"
	if got := ToMarkdown(ToWord(src)); got != src {
		t.Errorf("round trip =\n%q\nwant\n%q", got, src)
	}
}

func TestToggle(t *testing.T) {
	word := "<p>  keep   <b>exact</b> bytes </p>"
	if got := Toggle(word, models.FormatWord, models.FormatWord); got != word {
		t.Errorf("word->word must be identity, got %q", got)
	}
	md := "# x\n\n*y*  "
	if got := Toggle(md, models.FormatMarkdown, models.FormatMarkdown); got != md {
		t.Errorf("markdown->markdown must be identity, got %q", got)
	}
	if got := Toggle("", models.FormatMarkdown, models.FormatWord); got != "" {
		t.Errorf("empty content should stay empty, got %q", got)
	}
	if got := Toggle("# h", models.FormatMarkdown, models.FormatWord); got != "<h1>h</h1>" {
		t.Errorf("markdown->word = %q", got)
	}
	if got := Toggle("<h2>h</h2>", models.FormatWord, models.FormatMarkdown); got != "## h" {
		t.Errorf("word->markdown = %q", got)
	}
	if got := Toggle("# h", models.FormatMarkdown, models.Format("rtf")); got != "# h" {
		t.Errorf("unknown target should be a no-op, got %q", got)
	}
}

func TestSanitize(t *testing.T) {
	s := NewSanitizer()
	in := `<h1 onclick="x()">T</h1><p style="text-align:center;color:red">c</p>` +
		`<script>alert(1)</script><a href="javascript:alert(1)">bad</a>` +
		`<div class="code-block"><pre><code>x</code></pre></div>`
	got := s.Sanitize(in)
	for _, banned := range []string{"onclick", "<script", "javascript:", "color:red"} {
		if strings.Contains(got, banned) {
			t.Errorf("sanitized output still contains %q: %s", banned, got)
		}
	}
	for _, kept := range []string{"<h1>T</h1>", "text-align: center", `<div class="code-block"><pre><code>x</code></pre></div>`} {
		if !strings.Contains(got, kept) {
			t.Errorf("sanitized output lost %q: %s", kept, got)
		}
	}
}

func TestStripTags(t *testing.T) {
	if got := StripTags("<p>a &amp; <b>b</b></p>"); got != "a & b" {
		t.Errorf("StripTags = %q", got)
	}
	if got := StripTags("<h1>Title</h1><p>body</p><script>x()</script>"); got != "Title body" {
		t.Errorf("StripTags = %q", got)
	}
}
