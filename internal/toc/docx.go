package toc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fumiama/go-docx"
	"golang.org/x/net/html"
)

// DOCXExtractor handles .docx writeups. Heading 1 and Heading 2 paragraph
// styles become sections; the content is rendered as plain HTML.
type DOCXExtractor struct{}

func (e *DOCXExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docnav-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}

	doc := &Document{
		Title:       titleFromFilename(filename),
		ContentType: "text/html",
		Sections:    []Section{},
	}
	if size == 0 {
		tmp.Close()
		return doc, nil
	}

	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}
	parsed, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc.Content, doc.Sections = renderParagraphs(parsed.Document.Body.Items)
	return doc, nil
}

// renderParagraphs turns docx body items into HTML, assigning heading ids as
// it goes.
func renderParagraphs(items []interface{}) ([]byte, []Section) {
	var buf bytes.Buffer
	ids := newIDAssigner(nil)
	sections := []Section{}

	for _, item := range items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		level := docxHeadingLevel(para)
		if recognized(level) {
			id := ids.next("")
			sections = append(sections, Section{ID: id, Text: text, Level: level})
			fmt.Fprintf(&buf, "<h%d id=\"%s\">%s</h%d>", level, html.EscapeString(id), html.EscapeString(text), level)
			continue
		}
		if level > 0 {
			fmt.Fprintf(&buf, "<h%d>%s</h%d>", level, html.EscapeString(text), level)
			continue
		}
		fmt.Fprintf(&buf, "<p>%s</p>", html.EscapeString(text))
	}
	return buf.Bytes(), sections
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	switch strings.TrimPrefix(style, "heading") {
	case "1":
		return 1
	case "2":
		return 2
	case "3":
		return 3
	case "4":
		return 4
	case "5":
		return 5
	case "6":
		return 6
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
