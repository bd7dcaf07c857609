package toc

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Extractor turns raw document bytes into annotated content and sections.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions an extractor exists for.
var SupportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts ...Option) (Extractor, error) {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown":
		return NewMarkdownExtractor(o.highlightStyle), nil
	case ".html", ".htm", "":
		return &HTMLExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Option configures extractors built by ForFile.
type Option func(*options)

type options struct {
	highlightStyle string
}

func defaultOptions() options {
	return options{highlightStyle: "github"}
}

// WithHighlightStyle sets the chroma style used for markdown code blocks.
func WithHighlightStyle(style string) Option {
	return func(o *options) {
		if style != "" {
			o.highlightStyle = style
		}
	}
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
