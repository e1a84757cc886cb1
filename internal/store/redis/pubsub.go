// Package redis carries menu change events between the process that made a
// change and every admin connected to the live feed.
package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MenuChangesChannel carries one JSON event per audited menu mutation.
const MenuChangesChannel = "menu:changes"

// subscriberBuffer is how far a subscriber may fall behind before newer
// events are dropped for it.
const subscriberBuffer = 64

// PubSub publishes change events and relays them to local subscribers.
type PubSub struct {
	client redis.UniversalClient
}

// New connects to a single Redis node and checks it with PING.
func New(ctx context.Context, addr, password string, db int) (*PubSub, error) {
	ps := NewWithClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))

	if err := ps.Ping(ctx); err != nil {
		_ = ps.client.Close()
		return nil, fmt.Errorf("redis.New: %w", err)
	}

	return ps, nil
}

// NewWithClient wraps an existing client, e.g. a cluster or sentinel client.
func NewWithClient(client redis.UniversalClient) *PubSub {
	return &PubSub{client: client}
}

// Ping reports whether Redis is reachable.
func (ps *PubSub) Ping(ctx context.Context) error {
	if err := ps.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (ps *PubSub) Close() error {
	if err := ps.client.Close(); err != nil {
		return fmt.Errorf("redis.PubSub.Close: %w", err)
	}
	return nil
}

func (ps *PubSub) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := ps.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis.PubSub.Publish: %w", err)
	}
	return nil
}

// Subscribe returns a channel of payloads that closes when ctx is done or the
// subscription ends, and a cleanup func that releases the subscription. A
// reader that falls more than subscriberBuffer events behind loses the newest
// events instead of stalling delivery.
func (ps *PubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	sub := ps.client.Subscribe(ctx, channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, fmt.Errorf("redis.PubSub.Subscribe: receive confirmation: %w", err)
	}

	out := make(chan []byte, subscriberBuffer)
	go relay(ctx, channel, sub.Channel(), out)

	var once sync.Once
	cleanup := func() {
		once.Do(func() { _ = sub.Close() })
	}

	return out, cleanup, nil
}

// relay copies payloads from in to out until ctx is done or in is closed,
// then closes out.
func relay(ctx context.Context, channel string, in <-chan *redis.Message, out chan<- []byte) {
	defer close(out)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("channel", channel).Msg("redis: relay panicked")
		}
	}()

	dropped := 0
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- []byte(msg.Payload):
			default:
				dropped++
				log.Warn().
					Str("channel", channel).
					Int("dropped", dropped).
					Msg("redis: subscriber behind, event dropped")
			}
		}
	}
}
