package sse

import (
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// ResponseChannel writes frames to an HTTP response and flushes each one.
type ResponseChannel struct {
	w            http.ResponseWriter
	rc           *http.ResponseController
	writeTimeout time.Duration
	closed       atomic.Bool
}

// NewResponseChannel wraps w. A positive writeTimeout bounds every write so a
// stalled client cannot hold a broadcast indefinitely.
func NewResponseChannel(w http.ResponseWriter, writeTimeout time.Duration) *ResponseChannel {
	return &ResponseChannel{
		w:            w,
		rc:           http.NewResponseController(w),
		writeTimeout: writeTimeout,
	}
}

// PrepareHeaders sets the event stream headers and commits the response.
func (c *ResponseChannel) PrepareHeaders() error {
	h := c.w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.w.WriteHeader(http.StatusOK)
	return c.rc.Flush()
}

func (c *ResponseChannel) Write(frame []byte) error {
	if c.closed.Load() {
		return ErrSubscriptionClosed
	}
	if c.writeTimeout > 0 {
		err := c.rc.SetWriteDeadline(time.Now().Add(c.writeTimeout))
		if err != nil && !errors.Is(err, http.ErrNotSupported) {
			return err
		}
	}
	if _, err := c.w.Write(frame); err != nil {
		return err
	}
	return c.rc.Flush()
}

// Close marks the channel closed. The connection itself ends when the
// handler returns.
func (c *ResponseChannel) Close() error {
	c.closed.Store(true)
	return nil
}
