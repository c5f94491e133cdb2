// Package redisbus shares change events between coordinator processes over
// Redis pub/sub.
package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"parcels/internal/adapters/out/broadcast"
	"parcels/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "parcels:changes"

var _ ports.ChangeBroadcaster = &Broadcaster{}

// Broadcaster publishes events to a Redis channel. Every process running a
// Relay on that channel delivers them to its own subscribers.
type Broadcaster struct {
	client  redis.UniversalClient
	channel string
}

func NewBroadcaster(client redis.UniversalClient, channel string) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		client:  client,
		channel: channel,
	}
}

func (b *Broadcaster) Broadcast(ctx context.Context, event string, payload any) error {
	envelope, err := broadcast.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	message, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", b.channel, err)
	}
	return nil
}

// Relay forwards events from the Redis channel to a local sink.
type Relay struct {
	client  redis.UniversalClient
	channel string
	sink    broadcast.Sink
	logger  *slog.Logger
}

func NewRelay(client redis.UniversalClient, channel string, sink broadcast.Sink, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		client:  client,
		channel: channel,
		sink:    sink,
		logger:  logger.With("component", "redis_relay", "channel", channel),
	}
}

// Run subscribes and relays until ctx is cancelled. The subscription is
// confirmed before Run starts relaying; a failed confirmation is returned.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe to %s: %w", r.channel, err)
	}
	r.logger.InfoContext(ctx, "Relaying change events")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("redis subscription closed")
			}
			r.relay(ctx, msg.Payload)
		}
	}
}

func (r *Relay) relay(ctx context.Context, payload string) {
	var envelope broadcast.Envelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil || envelope.Event == "" {
		r.logger.WarnContext(ctx, "Skipping malformed change event", "error", err)
		return
	}
	r.sink.Publish(ctx, envelope.Event, envelope.Data)
}
