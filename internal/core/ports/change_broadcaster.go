package ports

import "context"

// ChangeBroadcaster announces lifecycle changes to live subscribers.
// Delivery is best effort: there is no acknowledgement or replay.
type ChangeBroadcaster interface {
	Broadcast(ctx context.Context, event string, payload any) error
}

// StreamChannel is one long-lived subscriber connection.
type StreamChannel interface {
	// Write sends one complete frame.
	Write(frame []byte) error
	Close() error
}
