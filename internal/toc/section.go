package toc

import "strconv"

// Section is one navigable heading in a document.
type Section struct {
	ID    string `json:"id"`    // Stable within the document
	Text  string `json:"text"`  // Heading text content
	Level int    `json:"level"` // 1 or 2
}

// Document is the result of an extraction pass: the annotated content plus
// the sections found in it, in document order.
type Document struct {
	Title       string    `json:"title"`
	Content     []byte    `json:"-"`
	ContentType string    `json:"content_type"`
	Sections    []Section `json:"sections"`
}

// MaxLevel is the deepest heading rank that produces a section.
const MaxLevel = 2

func recognized(level int) bool {
	return level >= 1 && level <= MaxLevel
}

// idAssigner hands out section ids for one extraction pass.
//
// Source ids are reserved up front so a synthesized heading-<n> never takes
// an id that a later heading already carries.
type idAssigner struct {
	reserved map[string]bool
	used     map[string]bool
	ordinal  int
}

func newIDAssigner(existing []string) *idAssigner {
	a := &idAssigner{
		reserved: make(map[string]bool, len(existing)),
		used:     make(map[string]bool, len(existing)),
	}
	for _, id := range existing {
		if id != "" {
			a.reserved[id] = true
		}
	}
	return a
}

// next returns the id for the next recognized heading. existing is the id
// the heading already carries, or "".
func (a *idAssigner) next(existing string) string {
	n := a.ordinal
	a.ordinal++

	if existing != "" && !a.used[existing] {
		a.used[existing] = true
		return existing
	}

	base := "heading-" + strconv.Itoa(n)
	id := base
	for k := 1; a.used[id] || a.reserved[id]; k++ {
		id = base + "-" + strconv.Itoa(k)
	}
	a.used[id] = true
	return id
}
