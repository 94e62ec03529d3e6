// Package geo adapts fixes posted by the device into a ports.LocationSource.
package geo

import (
	"context"
	"sync"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

const (
	fixBuffer   = 16
	errorBuffer = 4
)

type watcher struct {
	fixes chan domain.LocationFix
	errs  chan error
}

// Hub fans fixes out to every active watch. Slow watchers drop samples
// rather than block the publisher.
type Hub struct {
	mu       sync.Mutex
	watchers map[*watcher]struct{}
}

func NewHub() *Hub {
	return &Hub{watchers: make(map[*watcher]struct{})}
}

// Watch implements ports.LocationSource. Both channels are closed once ctx
// ends.
func (h *Hub) Watch(ctx context.Context) (<-chan domain.LocationFix, <-chan error) {
	w := &watcher{
		fixes: make(chan domain.LocationFix, fixBuffer),
		errs:  make(chan error, errorBuffer),
	}
	h.mu.Lock()
	h.watchers[w] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.watchers, w)
		close(w.fixes)
		close(w.errs)
		h.mu.Unlock()
	}()
	return w.fixes, w.errs
}

// Publish delivers fix to every watch and returns how many accepted it.
// Zero means nobody is reporting right now.
func (h *Hub) Publish(fix domain.LocationFix) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for w := range h.watchers {
		select {
		case w.fixes <- fix:
			n++
		default:
		}
	}
	return n
}

// ReportError forwards a device-side geolocation failure.
func (h *Hub) ReportError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers {
		select {
		case w.errs <- err:
		default:
		}
	}
}

// Watching reports the number of active watches.
func (h *Hub) Watching() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers)
}
