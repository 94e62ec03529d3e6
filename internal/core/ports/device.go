package ports

import (
	"context"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// LocationSource streams device fixes until ctx is cancelled. The caller
// does not control the sampling rate. Errors are reported on the second
// channel and do not end the watch.
type LocationSource interface {
	Watch(ctx context.Context) (<-chan domain.LocationFix, <-chan error)
}

// Connectivity reports whether the durable store is reachable.
type Connectivity interface {
	Online() bool
	// Changes emits the new value on every online/offline transition. The
	// channel is closed when ctx ends.
	Changes(ctx context.Context) <-chan bool
}
