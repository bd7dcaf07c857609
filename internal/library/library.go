package library

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/microcosm-cc/bluemonday"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/readtime"
	"github.com/dgallion1/docnav/internal/toc"
)

var (
	// ErrNotFound is returned when no document matches a slug.
	ErrNotFound = errors.New("document not found")
	// ErrTooLarge is returned for documents above the configured size limit.
	ErrTooLarge = errors.New("document too large")
)

// DocumentPattern matches the files listed by the library.
const DocumentPattern = "**/*.{md,markdown,html,htm,docx}"

// Entry is a loaded, annotated and sanitized document.
type Entry struct {
	Slug        string
	Path        string
	ModTime     time.Time
	Title       string
	HTML        []byte
	Sections    []toc.Section
	ReadingTime readtime.Estimate
}

// Summary describes a document in listings.
type Summary struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Sections    int    `json:"sections"`
	ReadingTime string `json:"reading_time"`
}

// Library serves writeups from a content directory.
type Library struct {
	fsys      fs.FS
	maxBytes  int64
	style     string
	estimator *readtime.Estimator
	sanitizer *bluemonday.Policy
	log       *slog.Logger

	Stats *ExtractStats

	mu    sync.Mutex
	cache map[string]*Entry
}

func New(cfg config.Config, log *slog.Logger) *Library {
	return &Library{
		fsys:      os.DirFS(cfg.ContentDir),
		maxBytes:  cfg.MaxDocumentBytes,
		style:     cfg.HighlightStyle,
		estimator: readtime.NewEstimator(cfg.ReadingWPM, cfg.PDFFallbackPdftotext),
		sanitizer: newSanitizer(),
		log:       log,
		Stats:     NewExtractStats(time.Hour),
		cache:     make(map[string]*Entry),
	}
}

// List returns a summary of every document in the content directory, sorted
// by slug. Documents that fail to load are listed with an unknown reading time.
func (l *Library) List(ctx context.Context) ([]Summary, error) {
	matches, err := doublestar.Glob(l.fsys, DocumentPattern)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	sort.Strings(matches)

	summaries := make([]Summary, 0, len(matches))
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		slug := strings.TrimSuffix(name, path.Ext(name))
		entry, err := l.load(slug, name)
		if err != nil {
			l.log.Warn("document unreadable", "path", name, "error", err)
			summaries = append(summaries, Summary{
				Slug:        slug,
				Title:       path.Base(slug),
				ReadingTime: readtime.Unknown,
			})
			continue
		}
		summaries = append(summaries, Summary{
			Slug:        slug,
			Title:       entry.Title,
			Sections:    len(entry.Sections),
			ReadingTime: entry.ReadingTime.Label,
		})
	}
	return summaries, nil
}

// Get loads the document for slug. "<slug>.html" is tried first, then the
// slug as given, then the other supported extensions.
func (l *Library) Get(ctx context.Context, slug string) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slug = strings.Trim(slug, "/")
	if slug == "" || !fs.ValidPath(slug) {
		return nil, ErrNotFound
	}

	candidates := []string{
		slug + ".html",
		slug,
		slug + ".htm",
		slug + ".md",
		slug + ".markdown",
		slug + ".docx",
	}
	for _, name := range candidates {
		info, err := fs.Stat(l.fsys, name)
		if err != nil || info.IsDir() {
			continue
		}
		return l.load(slug, name)
	}
	return nil, ErrNotFound
}

func (l *Library) load(slug, name string) (*Entry, error) {
	info, err := fs.Stat(l.fsys, name)
	if err != nil {
		return nil, ErrNotFound
	}
	if info.Size() > l.maxBytes {
		return nil, fmt.Errorf("%s: %w (%d bytes)", name, ErrTooLarge, info.Size())
	}

	l.mu.Lock()
	cached, ok := l.cache[name]
	l.mu.Unlock()
	if ok && cached.ModTime.Equal(info.ModTime()) {
		if cached.Slug == slug {
			return cached, nil
		}
		alias := *cached
		alias.Slug = slug
		return &alias, nil
	}

	entry, err := l.extract(slug, name, info.ModTime())
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.cache[name] = entry
	l.mu.Unlock()
	return entry, nil
}

func (l *Library) extract(slug, name string, modTime time.Time) (*Entry, error) {
	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%s: %w", name, ErrTooLarge)
	}

	ex, err := toc.ForFile(name, toc.WithHighlightStyle(l.style))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := ex.Extract(bytes.NewReader(data), name)
	l.Stats.Observe(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}

	est, err := l.estimator.EstimateBytes(data, name)
	if err != nil {
		l.log.Warn("reading time unavailable", "path", name, "error", err)
		est = readtime.Estimate{Label: readtime.Unknown}
	}

	l.log.Info("document loaded",
		"path", name,
		"sections", len(doc.Sections),
		"words", est.Words,
	)

	return &Entry{
		Slug:        slug,
		Path:        name,
		ModTime:     modTime,
		Title:       doc.Title,
		HTML:        l.sanitizer.SanitizeBytes(doc.Content),
		Sections:    doc.Sections,
		ReadingTime: est,
	}, nil
}
