// Package broadcast carries lifecycle change events to live subscribers.
//
// The sse package holds the in-process subscriber set. redisbus and pgnotify
// relay events between coordinator processes through Redis pub/sub or
// PostgreSQL LISTEN/NOTIFY and hand them to the local sse hub.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
)

// Envelope is the cross-process form of one event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope serializes payload once for every relay hop.
func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s event: %w", event, err)
	}
	return Envelope{Event: event, Data: data}, nil
}

// Sink receives events that are already serialized.
type Sink interface {
	Publish(ctx context.Context, event string, data []byte)
}
