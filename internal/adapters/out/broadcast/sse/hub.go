// Package sse keeps the set of Server-Sent Events subscribers of one process.
package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"parcels/internal/core/ports"
)

const (
	DefaultRetry     = 5 * time.Second
	DefaultHeartbeat = 25 * time.Second
)

var (
	_ ports.ChangeBroadcaster = &Hub{}

	ErrSubscriptionClosed = errors.New("subscription is closed")
)

var heartbeatFrame = []byte(": ping\n\n")

// Options configure a Hub. Zero values fall back to the defaults.
type Options struct {
	// Retry is the reconnection delay suggested to clients on subscribe.
	Retry time.Duration
	// Heartbeat is the interval of the keep-alive comment frame.
	Heartbeat time.Duration
}

// Hub is the in-process change broadcaster. Writes to one subscriber are
// serialized; a slow subscriber delays a broadcast until its write fails or
// its write deadline expires.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}

	retry     time.Duration
	heartbeat time.Duration
	logger    *slog.Logger
}

func NewHub(opts Options, logger *slog.Logger) *Hub {
	if opts.Retry <= 0 {
		opts.Retry = DefaultRetry
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	return &Hub{
		subs:      make(map[*Subscription]struct{}),
		retry:     opts.Retry,
		heartbeat: opts.Heartbeat,
		logger:    logger.With("component", "sse_hub"),
	}
}

// Subscribe registers ch, sends the retry hint and starts its heartbeat. The
// subscription ends when ctx is cancelled, a write fails or Unsubscribe is
// called; Done reports it.
func (h *Hub) Subscribe(ctx context.Context, ch ports.StreamChannel) (*Subscription, error) {
	sub := newSubscription(ch)

	if err := sub.write(fmt.Appendf(nil, "retry: %d\n\n", h.retry.Milliseconds())); err != nil {
		sub.close()
		return nil, fmt.Errorf("send retry hint: %w", err)
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	count := len(h.subs)
	h.mu.Unlock()

	h.logger.DebugContext(ctx, "Subscriber connected", "subscribers", count)

	go h.keepAlive(ctx, sub)
	return sub, nil
}

// Unsubscribe removes sub and closes its channel. Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub]
	delete(h.subs, sub)
	h.mu.Unlock()

	sub.close()
	if ok {
		h.logger.Debug("Subscriber disconnected", "subscribers", h.Count())
	}
}

// Broadcast serializes payload once and writes it to every subscriber.
func (h *Hub) Broadcast(ctx context.Context, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	h.Publish(ctx, event, data)
	return nil
}

// Publish writes an already serialized event to every subscriber. A
// subscriber whose write fails is removed without affecting the others.
func (h *Hub) Publish(ctx context.Context, event string, data []byte) {
	frame := fmt.Appendf(nil, "event: %s\ndata: %s\n\n", event, data)

	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subs))
	for sub := range h.subs {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		if err := sub.write(frame); err != nil {
			h.logger.WarnContext(ctx, "Dropping subscriber after failed write", "event", event, "error", err)
			h.Unsubscribe(sub)
		}
	}
}

// Count returns the number of active subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[*Subscription]struct{})
	h.mu.Unlock()

	for sub := range subs {
		sub.close()
	}
}

func (h *Hub) keepAlive(ctx context.Context, sub *Subscription) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.Unsubscribe(sub)
			return
		case <-sub.Done():
			return
		case <-ticker.C:
			if err := sub.write(heartbeatFrame); err != nil {
				h.Unsubscribe(sub)
				return
			}
		}
	}
}

// Subscription is one registered stream channel.
type Subscription struct {
	ch ports.StreamChannel

	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newSubscription(ch ports.StreamChannel) *Subscription {
	return &Subscription{
		ch:   ch,
		done: make(chan struct{}),
	}
}

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) write(frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return ErrSubscriptionClosed
	default:
	}
	return s.ch.Write(frame)
}

func (s *Subscription) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		_ = s.ch.Close()
	})
}
