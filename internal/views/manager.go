package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docnav/internal/config"
	"github.com/dgallion1/docnav/internal/library"
	"github.com/dgallion1/docnav/internal/tracker"
)

// Documents resolves slugs to loaded documents.
type Documents interface {
	Get(ctx context.Context, slug string) (*library.Entry, error)
}

// Manager owns the open views and evicts idle ones in the background.
type Manager struct {
	views    *Store
	docs     Documents
	interval time.Duration
	sweep    time.Duration
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewManager(cfg config.Config, docs Documents, log *slog.Logger) *Manager {
	return &Manager{
		views:    NewStore(cfg.ViewTTL, cfg.MaxViews),
		docs:     docs,
		interval: cfg.ThrottleInterval,
		sweep:    sweepInterval(cfg.ViewTTL),
		log:      log,
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	return min(max(ttl/4, time.Second), 5*time.Minute)
}

// Start launches the idle-view sweeper.
func (m *Manager) Start(ctx context.Context) {
	sweepCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ticker := time.NewTicker(m.sweep)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if n := m.views.Cleanup(); n > 0 {
					m.log.Info("idle views evicted", "count", n, "open", m.views.Len())
				}
			}
		}
	}()
}

// Stop halts the sweeper and waits for it to exit.
func (m *Manager) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}

// Open loads the document for slug and creates a view with a fresh tracker.
func (m *Manager) Open(ctx context.Context, slug string) (*View, error) {
	entry, err := m.docs.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	v := &View{
		ID:        uuid.NewString(),
		Slug:      entry.Slug,
		Title:     entry.Title,
		CreatedAt: now,
		Viewport:  NewRemoteViewport(),
		updatedAt: now,
		listeners: make(map[int]func(tracker.State)),
	}
	v.Tracker = tracker.New(entry.Sections, v.Viewport,
		tracker.WithInterval(m.interval),
		tracker.WithOnChange(v.publish),
		tracker.WithLogger(m.log.With("view_id", v.ID)),
	)

	if err := m.views.Put(v); err != nil {
		return nil, fmt.Errorf("open view for %s: %w", slug, err)
	}
	m.log.Info("view opened", "view_id", v.ID, "slug", v.Slug, "sections", len(entry.Sections))
	return v, nil
}

// Get returns the view for id, or nil.
func (m *Manager) Get(id string) *View {
	v := m.views.Get(id)
	if v != nil {
		v.Touch()
	}
	return v
}

// Close discards the view. Its navigation state is not kept anywhere.
func (m *Manager) Close(id string) bool {
	ok := m.views.Delete(id)
	if ok {
		m.log.Info("view closed", "view_id", id)
	}
	return ok
}

// Len returns the number of open views.
func (m *Manager) Len() int {
	return m.views.Len()
}
