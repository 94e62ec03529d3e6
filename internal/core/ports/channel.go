package ports

import (
	"context"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// Channel is the pub/sub topic shared by all live participants. Delivery is
// best effort: no ordering or durability is assumed.
type Channel interface {
	// Subscribe returns once the subscription is acknowledged or ctx ends.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
	Publish(ctx context.Context, topic string, msg domain.ChannelMessage) error
	Track(ctx context.Context, topic string, p domain.Presence) error
	Untrack(ctx context.Context, topic, userID string) error
	Present(ctx context.Context, topic string) ([]domain.Presence, error)
}

// Subscription is an acknowledged subscription to a topic.
type Subscription interface {
	Messages() <-chan domain.ChannelMessage
	Close() error
}
