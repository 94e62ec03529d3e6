package ports

import (
	"context"
	"time"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// TrackerLogRepository is the append-only durable position log.
type TrackerLogRepository interface {
	Insert(ctx context.Context, row domain.TrackerLog) error
	// InsertMany bulk-inserts rows. Rows that already exist for the same
	// (identity, timestamp) are skipped, so a retried batch is safe.
	InsertMany(ctx context.Context, rows []domain.TrackerLog) error
	// FindByIdentity returns up to limit rows newer than since, oldest first.
	FindByIdentity(ctx context.Context, identity string, since time.Time, limit int) ([]domain.TrackerLog, error)
}
