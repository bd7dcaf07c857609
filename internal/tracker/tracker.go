package tracker

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/dgallion1/docnav/internal/toc"
)

// DefaultInterval is the minimum spacing between two recomputations driven
// by scroll notifications.
const DefaultInterval = 120 * time.Millisecond

// Viewport is the host environment a document is displayed in.
type Viewport interface {
	Anchors
	Metrics() Metrics
	ScrollTo(top float64, smooth bool)
}

// Notifier delivers scroll notifications to a subscriber until cancel is
// called.
type Notifier interface {
	Subscribe(fn func()) (cancel func())
}

// State is the navigation state derived from the latest scroll sample.
type State struct {
	ActiveID string  `json:"active_id"`
	Progress float64 `json:"progress"`
}

// Tracker maintains the navigation state of one document view.
type Tracker struct {
	// sampling serializes Sample so OnChange sees states in the order they
	// were computed.
	sampling sync.Mutex

	mu       sync.Mutex
	sections []toc.Section
	vp       Viewport
	state    State

	interval time.Duration
	onChange func(State)
	log      *slog.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithInterval sets the throttle interval used by Watch.
func WithInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.interval = d
		}
	}
}

// WithOnChange registers a callback invoked after a sample changes the state.
// Calls are never concurrent and arrive in sampling order.
func WithOnChange(fn func(State)) Option {
	return func(t *Tracker) {
		t.onChange = fn
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// New creates a tracker for the given sections. The sections are copied and
// stay fixed for the tracker's lifetime.
func New(sections []toc.Section, vp Viewport, opts ...Option) *Tracker {
	t := &Tracker{
		sections: append([]toc.Section(nil), sections...),
		vp:       vp,
		interval: DefaultInterval,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, fn := range opts {
		fn(t)
	}
	return t
}

// Sections returns the tracked sections in document order.
func (t *Tracker) Sections() []toc.Section {
	return append([]toc.Section{}, t.sections...)
}

// State returns the current navigation state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Sample recomputes the navigation state from the viewport's live metrics.
func (t *Tracker) Sample() State {
	t.sampling.Lock()
	defer t.sampling.Unlock()

	m := t.vp.Metrics()

	t.mu.Lock()
	next := State{
		ActiveID: ResolveActive(t.sections, t.vp, m, t.state.ActiveID),
		Progress: Progress(m),
	}
	changed := next != t.state
	t.state = next
	onChange := t.onChange
	t.mu.Unlock()

	if changed && onChange != nil {
		onChange(next)
	}
	return next
}

// NavigateTo smoothly scrolls the anchor for id to NavigateOffset below the
// viewport top. Ids that do not resolve to an anchor are ignored.
func (t *Tracker) NavigateTo(id string) {
	top, ok := t.vp.AnchorTop(id)
	if !ok {
		t.log.Debug("navigate target not found", "id", id)
		return
	}
	m := t.vp.Metrics()
	t.vp.ScrollTo(math.Max(0, m.ScrollTop+top-NavigateOffset), true)
}

// ScrollToTop smoothly scrolls back to the start of the document.
func (t *Tracker) ScrollToTop() {
	t.vp.ScrollTo(0, true)
}

// Watch subscribes to n and recomputes the state on scroll notifications,
// at most once per interval. Notifications that arrive while waiting are
// folded into a single trailing sample. The subscription is released when
// Watch returns, which happens once ctx is done.
func (t *Tracker) Watch(ctx context.Context, n Notifier) error {
	pending := make(chan struct{}, 1)
	cancel := n.Subscribe(func() {
		select {
		case pending <- struct{}{}:
		default:
		}
	})
	defer cancel()

	t.Sample()

	hold := time.NewTimer(t.interval)
	defer hold.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-pending:
		}

		t.Sample()

		hold.Reset(t.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-hold.C:
		}
	}
}
