package toc

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLExtractor handles rendered HTML writeups.
type HTMLExtractor struct{}

func (e *HTMLExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	nodes, err := parseFragment(r)
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Title:       titleFromFilename(filename),
		ContentType: "text/html",
	}
	if title := takeTitle(&nodes); title != "" {
		doc.Title = title
	}

	doc.Sections = annotate(nodes)
	markCodeBlocks(nodes)
	doc.Content, err = renderFragment(nodes)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// parseFragment parses markup the way it would be parsed when assigned into
// a container element: document-level wrappers are dropped.
func parseFragment(r io.Reader) ([]*html.Node, error) {
	container := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(r, container)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return nodes, nil
}

func renderFragment(nodes []*html.Node) ([]byte, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("render html: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// annotate writes ids onto recognized headings and returns the sections in
// document order.
func annotate(nodes []*html.Node) []Section {
	var headings []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && recognized(headingLevel(n.Data)) {
			headings = append(headings, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}

	existing := make([]string, 0, len(headings))
	for _, h := range headings {
		existing = append(existing, getAttr(h, "id"))
	}
	ids := newIDAssigner(existing)

	sections := make([]Section, 0, len(headings))
	for i, h := range headings {
		id := ids.next(existing[i])
		setAttr(h, "id", id)
		sections = append(sections, Section{
			ID:    id,
			Text:  textContent(h),
			Level: headingLevel(h.Data),
		})
	}
	return sections
}

// markCodeBlocks tags every <pre> with the code-block class.
func markCodeBlocks(nodes []*html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Pre {
			addClass(n, "code-block")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
}

// takeTitle removes the first <title> element from the fragment and returns
// its text.
func takeTitle(nodes *[]*html.Node) string {
	var found *html.Node
	var find func(*html.Node)
	find = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	for _, n := range *nodes {
		find(n)
	}
	if found == nil {
		return ""
	}

	title := textContent(found)
	if found.Parent != nil {
		found.Parent.RemoveChild(found)
	} else {
		kept := (*nodes)[:0]
		for _, n := range *nodes {
			if n != found {
				kept = append(kept, n)
			}
		}
		*nodes = kept
	}
	return title
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func addClass(n *html.Node, class string) {
	classes := strings.Fields(getAttr(n, "class"))
	for _, c := range classes {
		if c == class {
			return
		}
	}
	setAttr(n, "class", strings.Join(append(classes, class), " "))
}
