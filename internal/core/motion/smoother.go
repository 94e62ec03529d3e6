// Package motion smooths tracker positions for display.
//
// A received packet does not move a marker instantly. Instead the marker is
// eased linearly from where it is currently drawn to the new target over
// the nominal update interval, independent of network timing.
package motion

import (
	"sort"
	"sync"
	"time"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// Track animates one entity.
type Track struct {
	from     domain.Coordinates
	to       domain.Coordinates
	start    time.Time
	duration time.Duration
}

// NewTrack places an entity at p with no animation pending.
func NewTrack(p domain.Coordinates, now time.Time, duration time.Duration) *Track {
	return &Track{from: p, to: p, start: now, duration: duration}
}

// Position returns the animated position at now.
func (t *Track) Position(now time.Time) domain.Coordinates {
	f := t.progress(now)
	return domain.Coordinates{
		Lat: t.from.Lat + (t.to.Lat-t.from.Lat)*f,
		Lng: t.from.Lng + (t.to.Lng-t.from.Lng)*f,
	}
}

// Retarget restarts the animation from the current animated position
// toward target.
func (t *Track) Retarget(target domain.Coordinates, now time.Time) {
	t.from = t.Position(now)
	t.to = target
	t.start = now
}

// Settled reports whether the animation has reached its target.
func (t *Track) Settled(now time.Time) bool {
	return t.progress(now) >= 1
}

func (t *Track) progress(now time.Time) float64 {
	if t.duration <= 0 {
		return 1
	}
	elapsed := now.Sub(t.start)
	switch {
	case elapsed <= 0:
		return 0
	case elapsed >= t.duration:
		return 1
	}
	return float64(elapsed) / float64(t.duration)
}

// Frame is one rendered position.
type Frame struct {
	UserID   string               `json:"user_id"`
	Position domain.Coordinates   `json:"position"`
	Target   domain.Coordinates   `json:"target"`
	Status   domain.TrackerStatus `json:"status,omitempty"`
	Settled  bool                 `json:"settled"`
}

// Smoother keeps one Track per identity.
type Smoother struct {
	mu       sync.Mutex
	duration time.Duration
	tracks   map[string]*Track
	status   map[string]domain.TrackerStatus
}

// NewSmoother animates every update over duration.
func NewSmoother(duration time.Duration) *Smoother {
	return &Smoother{
		duration: duration,
		tracks:   make(map[string]*Track),
		status:   make(map[string]domain.TrackerStatus),
	}
}

// Observe feeds a new packet. Its signature matches registry.Observer.
func (s *Smoother) Observe(p domain.TrackerPacket, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status[p.UserID] = p.Status
	if tr, ok := s.tracks[p.UserID]; ok {
		tr.Retarget(p.Position(), now)
		return
	}
	s.tracks[p.UserID] = NewTrack(p.Position(), now, s.duration)
}

// Forget drops an identity.
func (s *Smoother) Forget(userID string) {
	s.mu.Lock()
	delete(s.tracks, userID)
	delete(s.status, userID)
	s.mu.Unlock()
}

// Reset drops every identity.
func (s *Smoother) Reset() {
	s.mu.Lock()
	s.tracks = make(map[string]*Track)
	s.status = make(map[string]domain.TrackerStatus)
	s.mu.Unlock()
}

// Frame returns every entity's animated position at now, sorted by identity.
func (s *Smoother) Frame(now time.Time) []Frame {
	s.mu.Lock()
	out := make([]Frame, 0, len(s.tracks))
	for id, tr := range s.tracks {
		out = append(out, Frame{
			UserID:   id,
			Position: tr.Position(now),
			Target:   tr.to,
			Status:   s.status[id],
			Settled:  tr.Settled(now),
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
