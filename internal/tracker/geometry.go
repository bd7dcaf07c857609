package tracker

import (
	"math"

	"github.com/dgallion1/docnav/internal/toc"
)

const (
	// BottomTolerance is how close to the end of the document the viewport
	// must be for the last section to become active.
	BottomTolerance = 100.0

	// MidpointRatio places the activation line at half the viewport height.
	MidpointRatio = 0.5

	// NavigateOffset is where a navigated-to anchor lands below the viewport top.
	NavigateOffset = 100.0
)

// Metrics are the live scroll measurements of the host viewport.
type Metrics struct {
	ScrollTop      float64 `json:"scroll_top"`
	ViewportHeight float64 `json:"viewport_height"`
	DocumentHeight float64 `json:"document_height"`
}

// Anchors resolves a section id to its anchor's on-screen offset from the
// viewport top. ok is false when the anchor no longer exists.
type Anchors interface {
	AnchorTop(id string) (top float64, ok bool)
}

// Progress reports how far the viewport has scrolled through the document,
// as a percentage in [0, 100]. Documents no taller than the viewport report 0.
func Progress(m Metrics) float64 {
	track := m.DocumentHeight - m.ViewportHeight
	if track <= 0 || math.IsNaN(track) {
		return 0
	}
	p := m.ScrollTop / track * 100
	switch {
	case math.IsNaN(p) || p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// NearBottom reports whether the viewport is within BottomTolerance of the
// end of the document.
func NearBottom(m Metrics) bool {
	return m.ScrollTop+m.ViewportHeight >= m.DocumentHeight-BottomTolerance
}

// ResolveActive picks the active section id for the given measurements.
//
// Near the bottom of the document the last section always wins. Otherwise
// only anchors at or above the viewport midpoint qualify, and the one
// nearest the midpoint line (smallest midpoint - top) is chosen, i.e. the
// last heading the reader has scrolled past the middle of the screen. Ties
// keep the earlier section. When nothing qualifies prev is returned
// unchanged.
func ResolveActive(sections []toc.Section, anchors Anchors, m Metrics, prev string) string {
	if len(sections) == 0 {
		return prev
	}
	if NearBottom(m) {
		return sections[len(sections)-1].ID
	}

	midpoint := m.ViewportHeight * MidpointRatio
	active := ""
	closest := math.Inf(1)
	for _, s := range sections {
		top, ok := anchors.AnchorTop(s.ID)
		if !ok {
			continue
		}
		if top > midpoint {
			continue
		}
		if d := math.Abs(midpoint - top); d < closest {
			active = s.ID
			closest = d
		}
	}
	if active == "" {
		return prev
	}
	return active
}
