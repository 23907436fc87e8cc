// Package richtext turns responder Markdown into pre-rendered HTML and
// projects that HTML back to plain text.
//
// Raw HTML inside the Markdown source is dropped by the renderer, so the
// output can be shown without escaping it again.
package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// HasMarkup reports whether the Markdown source contains anything beyond
// plain paragraphs of text.
func HasMarkup(markdown string) bool {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindDocument, ast.KindParagraph, ast.KindText, ast.KindString:
			return ast.WalkContinue, nil
		}
		found = true
		return ast.WalkStop, nil
	})
	return found
}

// FromMarkdown renders Markdown (GFM) to HTML.
func FromMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// PlainText strips markup from an HTML fragment. Block boundaries become
// line breaks and runs of blank lines collapse to one.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("- ")
	})

	lines := strings.Split(doc.Text(), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
