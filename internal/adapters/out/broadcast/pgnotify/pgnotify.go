// Package pgnotify shares change events between coordinator processes through
// PostgreSQL LISTEN/NOTIFY, for deployments without Redis.
package pgnotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parcels/internal/adapters/out/broadcast"
	"parcels/internal/core/ports"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const DefaultChannel = "parcel_changes"

var _ ports.ChangeBroadcaster = &Broadcaster{}

// Broadcaster sends events with pg_notify. Notifications are delivered only
// to listeners connected at the time; there is no replay.
type Broadcaster struct {
	db      *gorm.DB
	channel string
}

func NewBroadcaster(db *gorm.DB, channel string) *Broadcaster {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Broadcaster{
		db:      db,
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
	if err := b.db.WithContext(ctx).Exec("SELECT pg_notify(?, ?)", b.channel, string(message)).Error; err != nil {
		return fmt.Errorf("notify %s: %w", b.channel, err)
	}
	return nil
}

// Relay listens on the channel with a dedicated connection and forwards
// notifications to a local sink.
type Relay struct {
	dsn     string
	channel string
	sink    broadcast.Sink
	logger  *slog.Logger
}

func NewRelay(dsn, channel string, sink broadcast.Sink, logger *slog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		dsn:     dsn,
		channel: channel,
		sink:    sink,
		logger:  logger.With("component", "pg_relay", "channel", channel),
	}
}

// Run listens until ctx is cancelled. Connection loss is handled by the
// listener, which reconnects in the background.
func (r *Relay) Run(ctx context.Context) error {
	listener := pq.NewListener(r.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnectionAttemptFailed, pq.ListenerEventDisconnected:
			r.logger.Warn("Listener connection problem", "error", err)
		case pq.ListenerEventReconnected:
			r.logger.Info("Listener reconnected, events sent meanwhile are lost")
		case pq.ListenerEventConnected:
		}
	})
	defer func() { _ = listener.Close() }()

	if err := listener.Listen(r.channel); err != nil {
		return fmt.Errorf("listen on %s: %w", r.channel, err)
	}
	r.logger.InfoContext(ctx, "Relaying change events")

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-listener.Notify:
			if !ok {
				return errors.New("listener closed")
			}
			// nil after a reconnect
			if n == nil {
				continue
			}
			r.relay(ctx, n.Extra)
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				r.logger.WarnContext(ctx, "Listener ping failed", "error", err)
			}
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
