package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdownToXHTML_PlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "hello world", MarkdownToXHTML("hello world"))
}

func TestMarkdownToXHTML_ReservedCharactersEscaped(t *testing.T) {
	assert.Equal(t, "a &lt;b&gt; &amp; c", MarkdownToXHTML("a <b> & c"))
}

func TestMarkdownToXHTML_Bold(t *testing.T) {
	assert.Equal(t, "<strong>x</strong>", MarkdownToXHTML("**x**"))
	assert.Equal(t, "<strong>x</strong>", MarkdownToXHTML("__x__"))
}

func TestMarkdownToXHTML_Italic(t *testing.T) {
	assert.Equal(t, "<em>x</em>", MarkdownToXHTML("*x*"))
	assert.Equal(t, "<em>x</em>", MarkdownToXHTML("_x_"))
}

func TestMarkdownToXHTML_BoldWinsOverItalic(t *testing.T) {
	assert.Equal(t, "<strong>x</strong> and <em>y</em>", MarkdownToXHTML("**x** and *y*"))
}

func TestMarkdownToXHTML_ItalicInsideBold(t *testing.T) {
	assert.Equal(t, "<strong><em>x</em></strong>", MarkdownToXHTML("**_x_**"))
}

func TestMarkdownToXHTML_InlineCode(t *testing.T) {
	assert.Equal(t, "run <code>go test</code> now", MarkdownToXHTML("run `go test` now"))
}

func TestMarkdownToXHTML_Blockquote(t *testing.T) {
	assert.Equal(t, "<blockquote>quoted line</blockquote>\nafter",
		MarkdownToXHTML("> quoted line\nafter"))
}

func TestMarkdownToXHTML_FenceContentsNotInterpreted(t *testing.T) {
	// Markup inside a fence stays literal.
	assert.Equal(t, "<pre><code>**x**</code></pre>", MarkdownToXHTML("```**x**```"))
}

func TestMarkdownToXHTML_FenceContentsEscaped(t *testing.T) {
	assert.Equal(t, "<pre><code>if a &lt; b {}</code></pre>", MarkdownToXHTML("```if a < b {}```"))
}

func TestMarkdownToXHTML_TextAroundFence(t *testing.T) {
	got := MarkdownToXHTML("before **b**\n```code *here*```\nafter")
	assert.Equal(t, "before <strong>b</strong>\n<pre><code>code *here*</code></pre>\nafter", got)
}

func TestMarkdownToXHTML_MultipleFences(t *testing.T) {
	got := MarkdownToXHTML("```a```and```b```")
	assert.Equal(t, "<pre><code>a</code></pre>and<pre><code>b</code></pre>", got)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "bold and code", StripTags("<strong>bold</strong> and <code>code</code>"))
	assert.Equal(t, "plain", StripTags("plain"))
}
