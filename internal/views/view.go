package views

import (
	"errors"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/toc"
	"github.com/dgallion1/docnav/internal/tracker"
)

// ErrTooManyViews is returned when the store is at capacity.
var ErrTooManyViews = errors.New("too many open views")

// View is one open document display and its navigation state.
type View struct {
	ID        string
	Slug      string
	Title     string
	CreatedAt time.Time

	Tracker  *tracker.Tracker
	Viewport *RemoteViewport

	mu        sync.Mutex
	updatedAt time.Time
	listeners map[int]func(tracker.State)
	nextID    int
}

// Touch marks the view as active now.
func (v *View) Touch() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updatedAt = time.Now()
}

// UpdatedAt returns when the view was last used.
func (v *View) UpdatedAt() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.updatedAt
}

// OnState registers fn to receive navigation state changes until the
// returned func is called.
func (v *View) OnState(fn func(tracker.State)) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.listeners, id)
		v.mu.Unlock()
	}
}

func (v *View) publish(s tracker.State) {
	v.mu.Lock()
	v.updatedAt = time.Now()
	fns := make([]func(tracker.State), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Snapshot is the JSON form of a view.
type Snapshot struct {
	ID       string        `json:"view_id"`
	Slug     string        `json:"slug"`
	Title    string        `json:"title"`
	Sections []toc.Section `json:"sections"`
	State    tracker.State `json:"state"`
}

func (v *View) Snapshot() Snapshot {
	return Snapshot{
		ID:       v.ID,
		Slug:     v.Slug,
		Title:    v.Title,
		Sections: v.Tracker.Sections(),
		State:    v.Tracker.State(),
	}
}

// Store is a thread-safe in-memory view registry with idle eviction.
type Store struct {
	mu    sync.Mutex
	views map[string]*View
	ttl   time.Duration
	max   int
}

func NewStore(ttl time.Duration, max int) *Store {
	return &Store{
		views: make(map[string]*View),
		ttl:   ttl,
		max:   max,
	}
}

// Put adds v, evicting idle views first when the store is full.
func (s *Store) Put(v *View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.views) >= s.max {
		s.cleanupLocked(time.Now())
		if len(s.views) >= s.max {
			return ErrTooManyViews
		}
	}
	s.views[v.ID] = v
	return nil
}

func (s *Store) Get(id string) *View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.views[id]
}

// Delete removes the view and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.views[id]
	delete(s.views, id)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.views)
}

// Cleanup removes views idle for longer than the TTL and returns how many
// were removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(time.Now())
}

func (s *Store) cleanupLocked(now time.Time) int {
	removed := 0
	for id, v := range s.views {
		if now.Sub(v.UpdatedAt()) > s.ttl {
			delete(s.views, id)
			removed++
		}
	}
	return removed
}
