package readtime

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/dgallion1/docnav/internal/toc"
)

// Estimator computes reading times for the document formats the site serves.
type Estimator struct {
	WPM                  int
	PDFFallbackPdftotext bool

	mdConverter *converter.Converter
}

func NewEstimator(wpm int, pdfFallback bool) *Estimator {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	return &Estimator{
		WPM:                  wpm,
		PDFFallbackPdftotext: pdfFallback,
		mdConverter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Estimate reads r and estimates its reading time. The file extension picks
// how prose is recovered from the bytes.
func (e *Estimator) Estimate(r io.Reader, filename string) (Estimate, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".md", ".markdown", ".txt":
		src, err := io.ReadAll(r)
		if err != nil {
			return Estimate{}, err
		}
		return FromMarkdown(string(src), e.WPM), nil

	case ".html", ".htm", "":
		src, err := io.ReadAll(r)
		if err != nil {
			return Estimate{}, err
		}
		return e.fromHTML(string(src))

	case ".docx":
		doc, err := (&toc.DOCXExtractor{}).Extract(r, filename)
		if err != nil {
			return Estimate{}, err
		}
		return e.fromHTML(string(doc.Content))

	case ".pdf":
		text, err := pdfText(r, e.PDFFallbackPdftotext)
		if err != nil {
			return Estimate{}, err
		}
		return FromMarkdown(text, e.WPM), nil
	}
	return Estimate{}, fmt.Errorf("unsupported file extension: %s", ext)
}

// EstimateBytes is Estimate over an in-memory document.
func (e *Estimator) EstimateBytes(data []byte, filename string) (Estimate, error) {
	return e.Estimate(bytes.NewReader(data), filename)
}

func (e *Estimator) fromHTML(src string) (Estimate, error) {
	md, err := e.mdConverter.ConvertString(src)
	if err != nil {
		return Estimate{}, fmt.Errorf("convert html: %w", err)
	}
	return FromMarkdown(md, e.WPM), nil
}
