package http

import (
	"parcels/internal/adapters/out/broadcast/sse"
	"parcels/internal/pkg/logging"

	"github.com/labstack/echo/v4"
)

// StreamParcelEvents handles GET /api/v1/events/parcels. The connection stays
// open until the client leaves or the hub drops the subscription.
func (s *Server) StreamParcelEvents(ctx echo.Context) error {
	req := ctx.Request()
	logger := logging.FromContext(req.Context(), s.logger)

	channel := sse.NewResponseChannel(ctx.Response(), s.opts.StreamWriteTimeout)
	if err := channel.PrepareHeaders(); err != nil {
		return s.fail(ctx, err)
	}

	sub, err := s.stream.Subscribe(req.Context(), channel)
	if err != nil {
		logger.WarnContext(req.Context(), "stream subscription failed", "error", err)
		return nil
	}
	defer s.stream.Unsubscribe(sub)

	select {
	case <-req.Context().Done():
	case <-sub.Done():
	}
	return nil
}
