package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docnav/internal/views"
)

const maxSampleBytes = 1 << 20

type openViewRequest struct {
	Slug string `json:"slug"`
}

type navigateRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleOpenView(w http.ResponseWriter, r *http.Request) {
	var req openViewRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSampleBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" {
		jsonError(w, "slug is required", http.StatusBadRequest)
		return
	}

	v, err := s.views.Open(r.Context(), req.Slug)
	if err != nil {
		if errors.Is(err, views.ErrTooManyViews) {
			jsonError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		s.documentError(w, req.Slug, err)
		return
	}
	writeJSON(w, http.StatusCreated, v.Snapshot())
}

// view resolves the {viewID} parameter, writing a 404 when it is unknown.
func (s *Server) view(w http.ResponseWriter, r *http.Request) *views.View {
	id := chi.URLParam(r, "viewID")
	v := s.views.Get(id)
	if v == nil {
		jsonError(w, "view not found: "+id, http.StatusNotFound)
	}
	return v
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	v := s.view(w, r)
	if v == nil {
		return
	}
	writeJSON(w, http.StatusOK, v.Snapshot())
}

func (s *Server) handleCloseView(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "viewID")
	if !s.views.Close(id) {
		jsonError(w, "view not found: "+id, http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	v := s.view(w, r)
	if v == nil {
		return
	}
	var sample views.Sample
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSampleBytes)).Decode(&sample); err != nil {
		jsonError(w, "invalid sample: "+err.Error(), http.StatusBadRequest)
		return
	}

	v.Viewport.Update(sample)
	writeJSON(w, http.StatusOK, map[string]any{"state": v.Tracker.Sample()})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	v := s.view(w, r)
	if v == nil {
		return
	}
	var req navigateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSampleBytes)).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	v.Tracker.NavigateTo(req.ID)
	var scroll *views.ScrollCommand
	if cmd, ok := v.Viewport.TakeScroll(); ok {
		scroll = &cmd
	}
	writeJSON(w, http.StatusOK, map[string]any{"scroll": scroll})
}
