// Package pubsub implements the live channel on Redis. Messages go through
// Redis Pub/Sub; presence is a key per participant with a TTL that the owner
// keeps refreshing.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/ports"
)

const (
	defaultPresenceTTL = 30 * time.Second
	messageBuffer      = 64
	scanCount          = 100
)

// RedisChannel implements ports.Channel.
type RedisChannel struct {
	client      *redis.Client
	presenceTTL time.Duration
	log         zerolog.Logger
}

// NewRedisChannel wraps client. Presence keys expire after presenceTTL.
func NewRedisChannel(client *redis.Client, presenceTTL time.Duration, log zerolog.Logger) *RedisChannel {
	if presenceTTL <= 0 {
		presenceTTL = defaultPresenceTTL
	}
	return &RedisChannel{client: client, presenceTTL: presenceTTL, log: log}
}

// Subscribe blocks until Redis confirms the subscription or ctx ends.
func (c *RedisChannel) Subscribe(ctx context.Context, topic string) (ports.Subscription, error) {
	ps := c.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return newSubscription(ps, c.log), nil
}

func (c *RedisChannel) Publish(ctx context.Context, topic string, msg domain.ChannelMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := c.client.Publish(ctx, topic, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Track announces p on topic until the TTL lapses. Calling it again
// refreshes the entry.
func (c *RedisChannel) Track(ctx context.Context, topic string, p domain.Presence) error {
	id := p.UserID
	if id == "" {
		id = p.SessionID
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode presence: %w", err)
	}
	if err := c.client.Set(ctx, presenceKey(topic, id), payload, c.presenceTTL).Err(); err != nil {
		return fmt.Errorf("track presence: %w", err)
	}
	return nil
}

// Untrack removes the presence entry of userID. Anonymous entries are left
// to expire.
func (c *RedisChannel) Untrack(ctx context.Context, topic, userID string) error {
	if userID == "" {
		return nil
	}
	if err := c.client.Del(ctx, presenceKey(topic, userID)).Err(); err != nil {
		return fmt.Errorf("untrack presence: %w", err)
	}
	return nil
}

// Present lists the live presence entries of topic.
func (c *RedisChannel) Present(ctx context.Context, topic string) ([]domain.Presence, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, presenceKey(topic, "*"), scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan presence: %w", err)
	}
	if len(keys) == 0 {
		return []domain.Presence{}, nil
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read presence: %w", err)
	}
	out := make([]domain.Presence, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // expired between SCAN and MGET
		}
		var p domain.Presence
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			c.log.Debug().Err(err).Msg("skipping malformed presence entry")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func presenceKey(topic, id string) string {
	return "presence:" + topic + ":" + strings.ToLower(id)
}

// subscription decodes Pub/Sub payloads into channel messages.
type subscription struct {
	ps   *redis.PubSub
	out  chan domain.ChannelMessage
	done chan struct{}
	once sync.Once
	err  error
}

func newSubscription(ps *redis.PubSub, log zerolog.Logger) *subscription {
	s := &subscription{
		ps:   ps,
		out:  make(chan domain.ChannelMessage, messageBuffer),
		done: make(chan struct{}),
	}
	go func() {
		defer close(s.out)
		for m := range ps.Channel() {
			msg, err := decodeMessage(m.Payload)
			if err != nil {
				log.Debug().Err(err).Str("channel", m.Channel).Msg("dropping malformed message")
				continue
			}
			select {
			case s.out <- msg:
			case <-s.done:
				return
			}
		}
	}()
	return s
}

func (s *subscription) Messages() <-chan domain.ChannelMessage { return s.out }

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
	})
	return s.err
}

var errNoEvent = errors.New("message has no event")

func decodeMessage(payload string) (domain.ChannelMessage, error) {
	var msg domain.ChannelMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return msg, fmt.Errorf("decode message: %w", err)
	}
	if msg.Event == "" {
		return msg, errNoEvent
	}
	if msg.Event == domain.EventLocationUpdate && msg.Packet == nil {
		return msg, errors.New("location update without packet")
	}
	return msg, nil
}
