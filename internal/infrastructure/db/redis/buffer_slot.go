package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

const DefaultBufferKey = "tracker:offline-logs"

// BufferSlot stores the offline log queue as one JSON array under a single
// key. It has no expiry.
type BufferSlot struct {
	client *redis.Client
	key    string
}

// NewBufferSlot returns a slot bound to key, or DefaultBufferKey when empty.
func NewBufferSlot(client *redis.Client, key string) *BufferSlot {
	if key == "" {
		key = DefaultBufferKey
	}
	return &BufferSlot{client: client, key: key}
}

// Load returns the stored rows. A missing key is an empty queue.
func (s *BufferSlot) Load(ctx context.Context) ([]domain.TrackerLog, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("buffer load: %w", err)
	}
	return decodeRows(raw)
}

// Save replaces the stored rows. An empty queue removes the key.
func (s *BufferSlot) Save(ctx context.Context, rows []domain.TrackerLog) error {
	if len(rows) == 0 {
		if err := s.client.Del(ctx, s.key).Err(); err != nil {
			return fmt.Errorf("buffer clear: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("buffer encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("buffer save: %w", err)
	}
	return nil
}

func decodeRows(raw []byte) ([]domain.TrackerLog, error) {
	var rows []domain.TrackerLog
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("buffer decode: %w", err)
	}
	return rows, nil
}
