package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannel is the redis pub/sub channel used when none is configured.
const DefaultChannel = "portfolio:events"

// RedisBus publishes events over redis pub/sub so that other processes (the
// public site, a second editor) receive them. Incoming messages are fanned out
// to local subscribers through a LocalBus.
type RedisBus struct {
	client  *redis.Client
	channel string
	local   *LocalBus
	pubsub  *redis.PubSub
	logger  *zap.Logger
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewRedisBus subscribes to channel and starts relaying messages. The client
// is not closed by Close.
func NewRedisBus(ctx context.Context, client *redis.Client, channel string, logger *zap.Logger) (*RedisBus, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pubsub := client.Subscribe(ctx, channel)
	// Wait for the subscription to be confirmed so no publish is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	relayCtx, cancel := context.WithCancel(context.Background())
	b := &RedisBus{
		client:  client,
		channel: channel,
		local:   NewLocalBus(),
		pubsub:  pubsub,
		logger:  logger,
		cancel:  cancel,
	}
	b.wg.Add(1)
	go b.relay(relayCtx)
	return b, nil
}

func (b *RedisBus) relay(ctx context.Context) {
	defer b.wg.Done()
	ch := b.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var e Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				b.logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			_ = b.local.Publish(ctx, e)
		}
	}
}

// Publish sends e to every process subscribed to the channel, this one included.
func (b *RedisBus) Publish(ctx context.Context, e Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Kind, err)
	}
	return nil
}

func (b *RedisBus) Subscribe(kinds ...Kind) (<-chan Event, func()) {
	return b.local.Subscribe(kinds...)
}

func (b *RedisBus) Close() error {
	b.cancel()
	err := b.pubsub.Close()
	b.wg.Wait()
	_ = b.local.Close()
	return err
}
