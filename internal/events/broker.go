// Package events fans conversation updates out to websocket subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"portfolio-backend/internal/models"
)

// Broker is a publish/subscribe transport keyed by channel name.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns once the subscription is active, with a channel of
	// payloads and a function that ends the subscription. The payload channel
	// is closed after cancel or when ctx ends.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

const (
	subscriberBuffer = 16
	subscribeTimeout = 5 * time.Second
)

// SessionChannel is the channel a session's updates are published on.
func SessionChannel(sessionID uuid.UUID) string {
	return "chat_updates:" + sessionID.String()
}

// Publisher encodes websocket messages and publishes them per session.
type Publisher struct {
	broker Broker
}

func NewPublisher(broker Broker) *Publisher {
	return &Publisher{broker: broker}
}

// PublishUpdate sends a websocket message to every subscriber of the session.
func (p *Publisher) PublishUpdate(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", msg.Type, err)
	}
	return p.broker.Publish(ctx, SessionChannel(sessionID), data)
}

// ──── Redis ────

type RedisBroker struct {
	client *redis.Client
}

func NewRedisBroker(client *redis.Client) *RedisBroker {
	return &RedisBroker{client: client}
}

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}

func (b *RedisBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	pubsub := b.client.Subscribe(ctx, channel)

	// Wait for the server to confirm, or publishes in the gap are lost.
	rctx, rcancel := context.WithTimeout(ctx, subscribeTimeout)
	_, err := pubsub.Receive(rctx)
	rcancel()
	if err != nil {
		pubsub.Close()
		cancel()
		return nil, nil, fmt.Errorf("redis subscribe %s: %w", channel, err)
	}

	out := make(chan []byte, subscriberBuffer)
	ch := pubsub.Channel()

	go func() {
		defer close(out)
		defer pubsub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				offer(out, []byte(msg.Payload))
			}
		}
	}()

	return out, cancel, nil
}

// offer delivers payload without blocking. When ch is full the oldest queued
// payload is discarded, so the most recent update always gets through.
func offer(ch chan []byte, payload []byte) {
	for {
		select {
		case ch <- payload:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// ──── In-process ────

// LocalBroker delivers within the process. A slow subscriber loses its oldest
// queued messages rather than blocking publishers; every update carries the
// full view, so the newest one is complete on its own.
type LocalBroker struct {
	mu   sync.RWMutex
	subs map[string]map[*localSub]struct{}
}

type localSub struct {
	ch   chan []byte
	once sync.Once
}

func NewLocalBroker() *LocalBroker {
	return &LocalBroker{subs: make(map[string]map[*localSub]struct{})}
}

func (b *LocalBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[channel] {
		offer(sub.ch, payload)
	}
	return nil
}

func (b *LocalBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error) {
	ctx, stop := context.WithCancel(ctx)
	sub := &localSub{ch: make(chan []byte, subscriberBuffer)}

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*localSub]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			stop()
			b.mu.Lock()
			delete(b.subs[channel], sub)
			if len(b.subs[channel]) == 0 {
				delete(b.subs, channel)
			}
			b.mu.Unlock()
			close(sub.ch)
		})
	}

	go func() {
		<-ctx.Done()
		cancel()
	}()

	return sub.ch, cancel, nil
}

// Subscribers reports how many subscriptions a channel has.
func (b *LocalBroker) Subscribers(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}
