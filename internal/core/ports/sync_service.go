package ports

import (
	"context"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// SyncService drives the live tracking session of this node.
type SyncService interface {
	Enable(session domain.Session) domain.SyncStatus
	Disable()
	SetBroadcast(on bool)
	SetSimulation(on bool)
	SetStatus(ctx context.Context, status domain.TrackerStatus) error
	Status() domain.SyncStatus
	Presence(ctx context.Context) ([]domain.Presence, error)
}
