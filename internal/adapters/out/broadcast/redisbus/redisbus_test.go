package redisbus_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"parcels/internal/adapters/out/broadcast/redisbus"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	event string
	data  string
}

type recordingSink struct {
	mu     sync.Mutex
	events []received
}

func (s *recordingSink) Publish(_ context.Context, event string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, received{event: event, data: string(data)})
}

func (s *recordingSink) snapshot() []received {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]received(nil), s.events...)
}

func newClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRelay_DeliversBroadcastEvents(t *testing.T) {
	client := newClient(t)
	sink := &recordingSink{}
	relay := redisbus.NewRelay(client, "test:changes", sink, slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	broadcaster := redisbus.NewBroadcaster(client, "test:changes")
	require.Eventually(t, func() bool {
		return client.PubSubNumSub(ctx, "test:changes").Val()["test:changes"] == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, broadcaster.Broadcast(ctx, "updated", map[string]any{"id": 12, "status": "delivered"}))
	require.NoError(t, client.Publish(ctx, "test:changes", "not json").Err())
	require.NoError(t, broadcaster.Broadcast(ctx, "deleted", map[string]any{"id": 12}))

	require.Eventually(t, func() bool { return len(sink.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []received{
		{event: "updated", data: `{"id":12,"status":"delivered"}`},
		{event: "deleted", data: `{"id":12}`},
	}, sink.snapshot())

	cancel()
	assert.NoError(t, <-done)
}

func TestBroadcaster_UnreachableRedis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	err := redisbus.NewBroadcaster(client, "").Broadcast(t.Context(), "created", map[string]any{"id": 1})

	assert.Error(t, err)
}
