// Package sessionhub keeps one portal Store per browser session, keyed by an
// opaque random id carried in the session cookie.
package sessionhub

import (
	"sync"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/portal"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Factory builds a fresh, signed-out portal Store. shared is true for the
// one Store the hub hands to browsers without a session.
type Factory func(shared bool) *portal.Store

// DefaultLimit caps live sessions when SetLimit is not called.
const DefaultLimit = 10000

type entry struct {
	store    *portal.Store
	lastSeen time.Time
}

type Hub struct {
	mu       sync.Mutex
	sessions map[string]*entry
	public   *portal.Store
	newStore Factory
	idle     time.Duration
	limit    int
	closed   bool
	now      func() time.Time
	log      *zap.Logger
}

// New returns a Hub whose sessions are closed after idle without a request.
func New(newStore Factory, idle time.Duration, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]*entry),
		newStore: newStore,
		idle:     idle,
		limit:    DefaultLimit,
		now:      time.Now,
		log:      logger,
	}
}

// SetClock replaces the time source. For tests.
func (h *Hub) SetClock(now func() time.Time) {
	h.mu.Lock()
	h.now = now
	h.mu.Unlock()
}

// SetLimit caps the number of live sessions. When a new session would
// exceed it, the least recently used one is closed. n <= 0 keeps the
// current limit.
func (h *Hub) SetLimit(n int) {
	if n <= 0 {
		return
	}
	h.mu.Lock()
	h.limit = n
	h.mu.Unlock()
}

// Public returns the signed-out Store shared by every browser without a
// session of its own. It is built on first use and is never swept.
func (h *Hub) Public() *portal.Store {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.public == nil && !h.closed {
		h.public = h.newStore(true)
	}
	return h.public
}

// Create opens a new session and returns its id.
func (h *Hub) Create() (string, *portal.Store) {
	s := h.newStore(false)
	id := uuid.NewString()
	h.mu.Lock()
	var evicted []*portal.Store
	for len(h.sessions) >= h.limit {
		evicted = append(evicted, h.evictOldestLocked())
	}
	h.sessions[id] = &entry{store: s, lastSeen: h.now()}
	n, limit := len(h.sessions), h.limit
	h.mu.Unlock()

	for _, old := range evicted {
		old.Close()
	}
	if len(evicted) > 0 {
		h.log.Warn("hub session limit reached; evicted least recently used",
			zap.Int("evicted", len(evicted)), zap.Int("limit", limit))
	}
	h.log.Debug("hub session opened", zap.Int("open", n))
	return id, s
}

func (h *Hub) evictOldestLocked() *portal.Store {
	var oldID string
	var oldest *entry
	for id, e := range h.sessions {
		if oldest == nil || e.lastSeen.Before(oldest.lastSeen) {
			oldID, oldest = id, e
		}
	}
	delete(h.sessions, oldID)
	return oldest.store
}

// Get returns the session for id and marks it used.
func (h *Hub) Get(id string) (*portal.Store, bool) {
	if id == "" {
		return nil, false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = h.now()
	return e.store, true
}

// Remove closes the session for id, if any.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	e, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// Sweep closes sessions idle for longer than the idle limit and returns how
// many it closed.
func (h *Hub) Sweep() int {
	h.mu.Lock()
	cutoff := h.now().Add(-h.idle)
	var stale []*portal.Store
	for id, e := range h.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.store)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close closes every session and the shared public Store.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.sessions
	h.sessions = make(map[string]*entry)
	public := h.public
	h.public = nil
	h.closed = true
	h.mu.Unlock()
	if public != nil {
		public.Close()
	}
	for _, e := range all {
		e.store.Close()
	}
	if len(all) > 0 {
		h.log.Info("hub sessions closed", zap.Int("count", len(all)))
	}
}
