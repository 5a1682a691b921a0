// Package normalize turns article markdown into the plain text that is
// tokenized and indexed. It is unrelated to display rendering: markup,
// URLs and raw HTML are dropped, every piece of prose and code is kept.
package normalize

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	latinThenHan = regexp.MustCompile(`([A-Za-z])(\p{Han})`)
	hanThenLatin = regexp.MustCompile(`(\p{Han})([A-Za-z])`)
	whitespace   = regexp.MustCompile(`[\s\p{Z}]+`)
)

var parser = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
).Parser()

// Document returns the text indexed for an article: the description with
// spacing normalized, a space, then the body rendered from markdown and
// normalized the same way. The description is front-matter text, not
// markdown, so its characters are indexed as written.
func Document(description, body string) string {
	return clean(description) + " " + clean(PlainText([]byte(body)))
}

func clean(s string) string {
	return strings.TrimSpace(Spacing(s))
}

// Spacing inserts a space between a Latin letter and an adjacent Han
// character and collapses whitespace runs to a single space.
func Spacing(s string) string {
	s = latinThenHan.ReplaceAllString(s, "$1 $2")
	s = hanThenLatin.ReplaceAllString(s, "$1 $2")
	return whitespace.ReplaceAllString(s, " ")
}

// PlainText renders markdown to its textual content. Block elements end
// with a newline.
func PlainText(source []byte) string {
	doc := parser.Parse(text.NewReader(source))

	var b strings.Builder
	writeChildren(&b, doc, source)
	return b.String()
}

func writeChildren(b *strings.Builder, n ast.Node, source []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeNode(b, c, source)
	}
}

func writeNode(b *strings.Builder, n ast.Node, source []byte) {
	switch n.Kind() {
	case ast.KindText:
		t := n.(*ast.Text)
		b.Write(t.Segment.Value(source))
		if t.SoftLineBreak() || t.HardLineBreak() {
			b.WriteByte('\n')
		}

	case ast.KindString:
		b.Write(n.(*ast.String).Value)

	case ast.KindAutoLink:
		b.Write(n.(*ast.AutoLink).Label(source))

	case ast.KindRawHTML, ast.KindHTMLBlock:
		// dropped

	case ast.KindCodeBlock, ast.KindFencedCodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(source))
		}
		b.WriteByte('\n')

	case ast.KindParagraph, ast.KindHeading, ast.KindList, ast.KindListItem,
		ast.KindBlockquote, ast.KindTextBlock,
		east.KindTable, east.KindTableHeader, east.KindTableRow, east.KindTableCell,
		east.KindFootnote, east.KindFootnoteList:
		writeChildren(b, n, source)
		b.WriteByte('\n')

	default:
		// emphasis, links, images, code spans, strikethrough: keep the text
		writeChildren(b, n, source)
	}
}
