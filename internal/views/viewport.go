package views

import (
	"sync"

	"github.com/dgallion1/docnav/internal/tracker"
)

// Sample is one scroll measurement reported by a client. Anchors maps section
// ids to their offset from the viewport top; a nil map keeps the previous
// anchors, an empty map clears them.
type Sample struct {
	tracker.Metrics
	Anchors map[string]float64 `json:"anchors,omitempty"`
}

// ScrollCommand asks the client to scroll to Top.
type ScrollCommand struct {
	Top    float64 `json:"top"`
	Smooth bool    `json:"smooth"`
}

// RemoteViewport is a tracker.Viewport backed by samples a client sends over
// the network. Scroll requests are queued until the transport collects them.
type RemoteViewport struct {
	mu      sync.Mutex
	metrics tracker.Metrics
	anchors map[string]float64
	scroll  *ScrollCommand

	subs   map[int]func()
	nextID int
}

func NewRemoteViewport() *RemoteViewport {
	return &RemoteViewport{
		anchors: make(map[string]float64),
		subs:    make(map[int]func()),
	}
}

// Update stores s and notifies every subscriber.
func (v *RemoteViewport) Update(s Sample) {
	v.mu.Lock()
	v.metrics = s.Metrics
	if s.Anchors != nil {
		anchors := make(map[string]float64, len(s.Anchors))
		for id, top := range s.Anchors {
			anchors[id] = top
		}
		v.anchors = anchors
	}
	subs := make([]func(), 0, len(v.subs))
	for _, fn := range v.subs {
		subs = append(subs, fn)
	}
	v.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (v *RemoteViewport) Metrics() tracker.Metrics {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.metrics
}

func (v *RemoteViewport) AnchorTop(id string) (float64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	top, ok := v.anchors[id]
	return top, ok
}

// ScrollTo replaces any scroll request that has not been collected yet.
func (v *RemoteViewport) ScrollTo(top float64, smooth bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.scroll = &ScrollCommand{Top: top, Smooth: smooth}
}

// TakeScroll returns and clears the pending scroll request.
func (v *RemoteViewport) TakeScroll() (ScrollCommand, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scroll == nil {
		return ScrollCommand{}, false
	}
	cmd := *v.scroll
	v.scroll = nil
	return cmd, true
}

// Subscribe registers fn to run after every Update. The returned cancel func
// is safe to call more than once.
func (v *RemoteViewport) Subscribe(fn func()) func() {
	v.mu.Lock()
	id := v.nextID
	v.nextID++
	v.subs[id] = fn
	v.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subs, id)
			v.mu.Unlock()
		})
	}
}

// Subscribers reports how many subscriptions are attached.
func (v *RemoteViewport) Subscribers() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.subs)
}
