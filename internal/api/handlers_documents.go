package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docnav/internal/library"
	"github.com/dgallion1/docnav/internal/readtime"
	"github.com/dgallion1/docnav/internal/toc"
)

type documentResponse struct {
	Slug        string            `json:"slug"`
	Title       string            `json:"title"`
	HTML        string            `json:"html"`
	Sections    []toc.Section     `json:"sections"`
	ReadingTime readtime.Estimate `json:"reading_time"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.docs.List(r.Context())
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		jsonError(w, "failed to list documents", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "*")
	entry, err := s.docs.Get(r.Context(), slug)
	if err != nil {
		s.documentError(w, slug, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Slug:        entry.Slug,
		Title:       entry.Title,
		HTML:        string(entry.HTML),
		Sections:    entry.Sections,
		ReadingTime: entry.ReadingTime,
	})
}

// documentError maps library errors to HTTP responses.
func (s *Server) documentError(w http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		jsonError(w, "document not found: "+slug, http.StatusNotFound)
	case errors.Is(err, library.ErrTooLarge):
		jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		s.log.Error("load document failed", "slug", slug, "error", err)
		jsonError(w, "failed to load document", http.StatusInternalServerError)
	}
}

func (s *Server) handleExtractStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"window": "1h",
		"stats":  s.docs.Stats.Snapshot(),
	})
}
