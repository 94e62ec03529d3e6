// Package buffer keeps log rows that could not reach the durable store.
//
// The queue lives in a single storage slot and is bounded: once the cap is
// reached the oldest rows are dropped first.
package buffer

import (
	"context"
	"fmt"
	"sync"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

const DefaultCap = 500

// Slot is the single named storage location the queue is persisted in.
type Slot interface {
	Load(ctx context.Context) ([]domain.TrackerLog, error)
	Save(ctx context.Context, rows []domain.TrackerLog) error
}

// Queue is a bounded FIFO of pending log rows.
type Queue struct {
	mu       sync.Mutex
	slot     Slot
	capacity int
}

// NewQueue wraps slot. A non-positive capacity falls back to DefaultCap.
func NewQueue(slot Slot, capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	return &Queue{slot: slot, capacity: capacity}
}

// Push appends row. It reports false when the row carries the same
// timestamp as the last buffered one and was skipped.
func (q *Queue) Push(ctx context.Context, row domain.TrackerLog) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rows, err := q.slot.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("buffer push: load: %w", err)
	}
	if n := len(rows); n > 0 && rows[n-1].Timestamp.Equal(row.Timestamp) {
		return false, nil
	}

	rows = append(rows, row)
	if over := len(rows) - q.capacity; over > 0 {
		rows = rows[over:]
	}
	if err := q.slot.Save(ctx, rows); err != nil {
		return false, fmt.Errorf("buffer push: save: %w", err)
	}
	return true, nil
}

// Pending returns the buffered rows in insertion order.
func (q *Queue) Pending(ctx context.Context) ([]domain.TrackerLog, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.slot.Load(ctx)
}

// Len returns the number of buffered rows, or 0 when the slot is unreadable.
func (q *Queue) Len(ctx context.Context) int {
	rows, err := q.Pending(ctx)
	if err != nil {
		return 0
	}
	return len(rows)
}

// Drain hands the deduplicated pending rows to flush. When flush succeeds
// the flushed rows are removed; rows pushed meanwhile are kept. When it
// fails the slot is left untouched. Drain returns how many rows were
// flushed.
func (q *Queue) Drain(ctx context.Context, flush func(context.Context, []domain.TrackerLog) error) (int, error) {
	pending, err := q.Pending(ctx)
	if err != nil {
		return 0, fmt.Errorf("buffer drain: load: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	batch := Dedup(pending)
	if err := flush(ctx, batch); err != nil {
		return 0, err
	}

	flushed := make(map[domain.LogKey]struct{}, len(batch))
	for _, row := range batch {
		flushed[row.Key()] = struct{}{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	current, err := q.slot.Load(ctx)
	if err != nil {
		return len(batch), fmt.Errorf("buffer drain: reload: %w", err)
	}
	remaining := current[:0:0]
	for _, row := range current {
		if _, ok := flushed[row.Key()]; !ok {
			remaining = append(remaining, row)
		}
	}
	if err := q.slot.Save(ctx, remaining); err != nil {
		return len(batch), fmt.Errorf("buffer drain: save: %w", err)
	}
	return len(batch), nil
}

// Dedup keeps the first row for each (timestamp, identity) key.
func Dedup(rows []domain.TrackerLog) []domain.TrackerLog {
	seen := make(map[domain.LogKey]struct{}, len(rows))
	out := make([]domain.TrackerLog, 0, len(rows))
	for _, row := range rows {
		k := row.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, row)
	}
	return out
}
