package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/updownhq/terminal/internal/domain"
)

// SignalBus carries book, chart, order, and market announcements between the
// feed pollers and the websocket hub over Redis pub/sub. It implements
// domain.SignalBus.
type SignalBus struct {
	client *Client
}

// NewSignalBus creates a SignalBus backed by the given client.
func NewSignalBus(client *Client) *SignalBus {
	return &SignalBus{client: client}
}

// Publish sends a payload on a channel.
func (b *SignalBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Subscribe listens on the given channels until ctx is cancelled. Channels
// containing '*' are treated as patterns. The returned channel is closed
// when the subscription ends.
func (b *SignalBus) Subscribe(ctx context.Context, channels ...string) (<-chan domain.BusMessage, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("redis: subscribe: no channels")
	}

	hasPattern := false
	for _, ch := range channels {
		if strings.Contains(ch, "*") {
			hasPattern = true
			break
		}
	}

	var pubsub *redis.PubSub
	if hasPattern {
		pubsub = b.client.rdb.PSubscribe(ctx, channels...)
	} else {
		pubsub = b.client.rdb.Subscribe(ctx, channels...)
	}

	// Wait for subscription confirmation so callers cannot miss messages
	// published right after Subscribe returns.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("redis: subscribe %v: %w", channels, err)
	}

	out := make(chan domain.BusMessage, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()
		src := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-src:
				if !ok {
					return
				}
				select {
				case out <- domain.BusMessage{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
