package toc

import (
	"bytes"
	"fmt"
	"io"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// MarkdownExtractor renders Markdown writeups to HTML using goldmark.
// A heading may carry its own id with the attribute syntax: "## Setup {#setup}".
type MarkdownExtractor struct {
	md goldmark.Markdown
}

func NewMarkdownExtractor(highlightStyle string) *MarkdownExtractor {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(highlightStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
	return &MarkdownExtractor{md: md}
}

// Extract renders the markdown and takes its sections from the rendered
// HTML, so raw <h1>/<h2> blocks count the same as "#" and "##" headings.
func (e *MarkdownExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rendered bytes.Buffer
	if err := e.md.Convert(src, &rendered); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	nodes, err := parseFragment(&rendered)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title:       titleFromFilename(filename),
		ContentType: "text/html",
		Sections:    annotate(nodes),
	}
	if len(doc.Sections) > 0 && doc.Sections[0].Level == 1 {
		doc.Title = doc.Sections[0].Text
	}

	markCodeBlocks(nodes)
	doc.Content, err = renderFragment(nodes)
	if err != nil {
		return nil, err
	}
	return doc, nil
}
