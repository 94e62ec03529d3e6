// Package registry holds the in-memory view of every tracker seen on the
// live channel.
//
// A Registry is a passive store: it never evicts on its own. Offline state
// is derived when a tracker is read, from the time its last packet arrived.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/pkg/metrics"
)

const (
	DefaultMaxHistory   = 50
	DefaultOfflineAfter = 60 * time.Second
)

// Observer is notified after every upsert, outside the registry lock.
type Observer func(p domain.TrackerPacket, receivedAt time.Time)

type entry struct {
	latest     domain.TrackerPacket
	history    []domain.HistoryPoint
	lastUpdate time.Time
}

// Registry maps a tracker identity to its state.
type Registry struct {
	mu           sync.RWMutex
	trackers     map[string]*entry
	maxHistory   int
	offlineAfter time.Duration
	now          func() time.Time
	observers    []Observer
}

// Option customises a Registry at construction.
type Option func(*Registry)

// WithClock overrides the wall clock used for receipt times.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithObserver registers fn to receive every upserted packet.
func WithObserver(fn Observer) Option {
	return func(r *Registry) { r.observers = append(r.observers, fn) }
}

// New creates an empty Registry. Non-positive limits fall back to defaults.
func New(maxHistory int, offlineAfter time.Duration, opts ...Option) *Registry {
	if maxHistory <= 0 {
		maxHistory = DefaultMaxHistory
	}
	if offlineAfter <= 0 {
		offlineAfter = DefaultOfflineAfter
	}
	r := &Registry{
		trackers:     make(map[string]*entry),
		maxHistory:   maxHistory,
		offlineAfter: offlineAfter,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert applies a packet. The newest maxHistory points are retained, in
// arrival order. Packets are not validated and the last write wins.
func (r *Registry) Upsert(p domain.TrackerPacket) {
	now := r.now()
	point := domain.HistoryPoint{Lat: p.Lat, Lng: p.Lng, Timestamp: p.Timestamp}

	r.mu.Lock()
	e, ok := r.trackers[p.UserID]
	if !ok {
		e = &entry{history: make([]domain.HistoryPoint, 0, 1)}
		r.trackers[p.UserID] = e
	}
	e.history = append(e.history, point)
	if over := len(e.history) - r.maxHistory; over > 0 {
		e.history = append(e.history[:0:0], e.history[over:]...)
	}
	e.latest = p
	e.lastUpdate = now
	observers := r.observers
	metrics.TrackersGauge.Set(float64(len(r.trackers)))
	r.mu.Unlock()

	for _, fn := range observers {
		fn(p, now)
	}
}

// Remove deletes a tracker. Removing an unknown identity is a no-op.
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.trackers, userID)
	metrics.TrackersGauge.Set(float64(len(r.trackers)))
	r.mu.Unlock()
}

// Clear drops every tracker.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.trackers = make(map[string]*entry)
	metrics.TrackersGauge.Set(0)
	r.mu.Unlock()
}

// Get returns a copy of one tracker's state.
func (r *Registry) Get(userID string) (domain.TrackerState, bool) {
	now := r.now()
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.trackers[userID]
	if !ok {
		return domain.TrackerState{}, false
	}
	return r.view(e, now), true
}

// Snapshot returns copies of all states sorted by identity.
func (r *Registry) Snapshot() []domain.TrackerState {
	now := r.now()
	r.mu.RLock()
	out := make([]domain.TrackerState, 0, len(r.trackers))
	for _, e := range r.trackers {
		out = append(out, r.view(e, now))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LatestPacket.UserID < out[j].LatestPacket.UserID
	})
	return out
}

// Len returns the number of tracked identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trackers)
}

func (r *Registry) view(e *entry, now time.Time) domain.TrackerState {
	history := make([]domain.HistoryPoint, len(e.history))
	copy(history, e.history)
	return domain.TrackerState{
		LatestPacket: e.latest,
		History:      history,
		LastUpdate:   e.lastUpdate,
		IsOffline:    now.Sub(e.lastUpdate) > r.offlineAfter,
	}
}
