// Package render turns model replies written in lightweight markdown into
// the XHTML subset chat clients display, and splits the result into
// transport-sized chunks.
package render

import (
	"html"
	"regexp"
	"strings"
)

var (
	fenceRE      = regexp.MustCompile("(?s)```.*?```")
	boldRE       = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicRE     = regexp.MustCompile(`\*(.*?)\*|_(.*?)_`)
	inlineCodeRE = regexp.MustCompile("`([^`\n]+?)`")
	blockquoteRE = regexp.MustCompile(`(?m)^&gt; (.+)$`)
	tagRE        = regexp.MustCompile(`<[^>]+>`)
)

// MarkdownToXHTML converts a reply to display markup. Fenced code blocks are
// carved out first and their contents escaped verbatim, so nothing inside a
// fence is ever read as formatting. The rest is escaped and then rewritten
// in fixed order: bold before italic (so ** wins over *), then inline code,
// then block quotes.
func MarkdownToXHTML(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range fenceRE.FindAllStringIndex(text, -1) {
		b.WriteString(renderSegment(text[last:loc[0]]))
		b.WriteString(renderFence(text[loc[0]:loc[1]]))
		last = loc[1]
	}
	b.WriteString(renderSegment(text[last:]))
	return b.String()
}

func renderFence(seg string) string {
	code := strings.Trim(seg, "`")
	return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
}

func renderSegment(seg string) string {
	if seg == "" {
		return ""
	}
	out := html.EscapeString(seg)

	out = boldRE.ReplaceAllStringFunc(out, func(m string) string {
		g := boldRE.FindStringSubmatch(m)
		inner := g[1]
		if strings.HasPrefix(m, "__") {
			inner = g[2]
		}
		return "<strong>" + inner + "</strong>"
	})
	out = italicRE.ReplaceAllStringFunc(out, func(m string) string {
		g := italicRE.FindStringSubmatch(m)
		inner := g[1]
		if strings.HasPrefix(m, "_") {
			inner = g[2]
		}
		return "<em>" + inner + "</em>"
	})
	out = inlineCodeRE.ReplaceAllStringFunc(out, func(m string) string {
		return "<code>" + strings.Trim(m, "`") + "</code>"
	})
	out = blockquoteRE.ReplaceAllString(out, "<blockquote>$1</blockquote>")
	return out
}

// StripTags removes all markup, leaving plain text. Used for the plain-text
// delivery fallback.
func StripTags(s string) string {
	return tagRE.ReplaceAllString(s, "")
}
