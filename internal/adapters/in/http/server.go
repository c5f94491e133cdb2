package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"parcels/internal/adapters/out/broadcast/sse"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/application/usecases/queries"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/ports"
	"parcels/internal/generated/servers"
	"parcels/internal/pkg/errs"

	"github.com/labstack/echo/v4"
)

var _ servers.ServerInterface = &Server{}

// Use cases the server dispatches to.
type (
	CreateParcelHandler interface {
		Handle(ctx context.Context, cmd commands.CreateParcelCommand) (commands.CreateParcelResult, error)
	}

	CreateParcelFromWizardHandler interface {
		Handle(ctx context.Context, cmd commands.CreateParcelFromWizardCommand) (commands.CreateParcelResult, error)
	}

	UpdateParcelHandler interface {
		Handle(ctx context.Context, cmd commands.UpdateParcelCommand) error
	}

	ConfirmReceiptHandler interface {
		Handle(ctx context.Context, cmd commands.ConfirmReceiptCommand) error
	}

	DeleteParcelHandler interface {
		Handle(ctx context.Context, cmd commands.DeleteParcelCommand) error
	}

	GetParcelHandler interface {
		Handle(ctx context.Context, query queries.GetParcelQuery) (queries.GetParcelQueryResponse, error)
	}

	GetParcelStatsHandler interface {
		Handle(ctx context.Context, query queries.GetParcelStatsQuery) (queries.GetParcelStatsQueryResponse, error)
	}

	GetRecipientNotificationsHandler interface {
		Handle(
			ctx context.Context,
			query queries.GetRecipientNotificationsQuery,
		) (queries.GetRecipientNotificationsQueryResponse, error)
	}

	// EventStream registers live subscribers.
	EventStream interface {
		Subscribe(ctx context.Context, ch ports.StreamChannel) (*sse.Subscription, error)
		Unsubscribe(sub *sse.Subscription)
	}

	// SchemaReloader refreshes the parcel table capabilities.
	SchemaReloader interface {
		Reload(ctx context.Context) (*schema.Snapshot, error)
	}
)

// Handlers groups the use cases served over HTTP.
type Handlers struct {
	CreateParcel              CreateParcelHandler
	CreateParcelFromWizard    CreateParcelFromWizardHandler
	UpdateParcel              UpdateParcelHandler
	ConfirmReceipt            ConfirmReceiptHandler
	DeleteParcel              DeleteParcelHandler
	GetParcel                 GetParcelHandler
	GetParcelStats            GetParcelStatsHandler
	GetRecipientNotifications GetRecipientNotificationsHandler
}

// Options tune the server. AdminRoles defaults to commands.DefaultAdminRoles.
type Options struct {
	AdminRoles         []string
	StreamWriteTimeout time.Duration
}

// Server implements servers.ServerInterface on top of the lifecycle commands.
type Server struct {
	handlers Handlers
	stream   EventStream
	schema   SchemaReloader
	opts     Options
	logger   *slog.Logger
}

func NewServer(handlers Handlers, stream EventStream, schema SchemaReloader, opts Options, logger *slog.Logger) *Server {
	if len(opts.AdminRoles) == 0 {
		opts.AdminRoles = commands.DefaultAdminRoles
	}
	return &Server{
		handlers: handlers,
		stream:   stream,
		schema:   schema,
		opts:     opts,
		logger:   logger.With("component", "http"),
	}
}

// CreateParcel handles POST /api/v1/parcels.
func (s *Server) CreateParcel(ctx echo.Context) error {
	var body servers.NewParcel
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	status, err := statusOf(body.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateParcelCommand(commands.CreateParcelParams{
		Origin:        participantRef(body.Origin),
		Destination:   participantRef(body.Destination),
		Description:   body.Description,
		Status:        status,
		BagID:         optionalID(body.BagId),
		SealID:        optionalID(body.SealId),
		ParentID:      optionalID(body.ParentId),
		Urgent:        deref(body.Urgent),
		ReceiptNumber: deref(body.ReceiptNumber),
	})
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.handlers.CreateParcel.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, createdParcel(result))
}

// CreateParcelFromWizard handles POST /api/v1/parcels/wizard.
func (s *Server) CreateParcelFromWizard(ctx echo.Context) error {
	var body servers.NewWizardParcel
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	status, err := statusOf(body.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateParcelFromWizardCommand(commands.CreateParcelFromWizardParams{
		Origin:        wizardParticipant(body.Origin),
		Destination:   wizardParticipant(body.Destination),
		Description:   body.Description,
		Status:        status,
		BagID:         optionalID(body.BagId),
		SealID:        optionalID(body.SealId),
		ParentID:      optionalID(body.ParentId),
		Urgent:        deref(body.Urgent),
		ReceiptNumber: deref(body.ReceiptNumber),
	})
	if err != nil {
		return s.fail(ctx, err)
	}

	result, err := s.handlers.CreateParcelFromWizard.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusCreated, createdParcel(result))
}

// GetParcel handles GET /api/v1/parcels/{id}.
func (s *Server) GetParcel(ctx echo.Context, id servers.ParcelId) error {
	return s.respondWithParcel(ctx, kernel.ID(id))
}

// UpdateParcel handles PUT /api/v1/parcels/{id}.
func (s *Server) UpdateParcel(ctx echo.Context, id servers.ParcelId) error {
	var body servers.ParcelPatch
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	patch := parcel.Patch{
		Description:         body.Description,
		Urgent:              body.Urgent,
		ReceiptNumber:       body.ReceiptNumber,
		OriginSectorID:      optionalID(body.OriginSectorId),
		DestinationSectorID: optionalID(body.DestinationSectorId),
	}
	if body.Status != nil {
		status, err := parcel.ParseStatus(string(*body.Status))
		if err != nil {
			return s.fail(ctx, err)
		}
		patch.Status = &status
	}

	cmd, err := commands.NewUpdateParcelCommand(kernel.ID(id), patch)
	if err != nil {
		return s.fail(ctx, err)
	}
	if err = s.handlers.UpdateParcel.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}
	return s.respondWithParcel(ctx, kernel.ID(id))
}

// ConfirmReceipt handles PUT /api/v1/parcels/{id}/confirm-receipt.
func (s *Server) ConfirmReceipt(ctx echo.Context, id servers.ParcelId) error {
	cmd, err := commands.NewConfirmReceiptCommand(kernel.ID(id))
	if err != nil {
		return s.fail(ctx, err)
	}
	if err = s.handlers.ConfirmReceipt.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}
	return s.respondWithParcel(ctx, kernel.ID(id))
}

// DeleteParcel handles DELETE /api/v1/parcels/{id}.
func (s *Server) DeleteParcel(ctx echo.Context, id servers.ParcelId, params servers.DeleteParcelParams) error {
	cmd, err := commands.NewDeleteParcelCommand(kernel.ID(id), caller(params.XUserId, params.XUserRole))
	if err != nil {
		return s.fail(ctx, err)
	}
	if err = s.handlers.DeleteParcel.Handle(ctx.Request().Context(), cmd); err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.DeletedParcel{Id: id, Deleted: true})
}

// GetParcelStats handles GET /api/v1/stats/parcels.
func (s *Server) GetParcelStats(ctx echo.Context) error {
	stats, err := s.handlers.GetParcelStats.Handle(ctx.Request().Context(), queries.NewGetParcelStatsQuery(time.Now()))
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, servers.ParcelStats{
		Total:          stats.Total,
		Pending:        stats.Pending,
		InTransit:      stats.InTransit,
		Delivered:      stats.Delivered,
		Returned:       stats.Returned,
		DeliveredToday: stats.DeliveredToday,
		Urgent:         stats.Urgent,
	})
}

// GetRecipientNotifications handles GET /api/v1/people/{id}/notifications.
func (s *Server) GetRecipientNotifications(ctx echo.Context, id servers.PersonId) error {
	query, err := queries.NewGetRecipientNotificationsQuery(kernel.ID(id))
	if err != nil {
		return s.fail(ctx, err)
	}
	feed, err := s.handlers.GetRecipientNotifications.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, recipientNotifications(feed))
}

// ReloadSchema handles POST /api/v1/admin/schema/reload.
func (s *Server) ReloadSchema(ctx echo.Context, params servers.ReloadSchemaParams) error {
	who := caller(params.XUserId, params.XUserRole)
	if !who.HasRole(s.opts.AdminRoles) {
		return s.fail(ctx, errs.NewPermissionDeniedError("reload schema", who.Role))
	}

	snapshot, err := s.schema.Reload(ctx.Request().Context())
	if err != nil {
		return s.fail(ctx, err)
	}

	loadedAt := snapshot.LoadedAt()
	description := snapshot.DescriptionColumn()
	return ctx.JSON(http.StatusOK, servers.SchemaCapabilities{
		Version:               int64(snapshot.Version()),
		Table:                 snapshot.Table(),
		DescriptionColumn:     &description,
		OptionalColumns:       snapshot.OptionalColumns(),
		HasEventsTable:        snapshot.HasEventsTable(),
		TrackingCodeMaxLength: snapshot.TrackingCodeMaxLength(),
		LoadedAt:              &loadedAt,
	})
}

func (s *Server) respondWithParcel(ctx echo.Context, id kernel.ID) error {
	query, err := queries.NewGetParcelQuery(id)
	if err != nil {
		return s.fail(ctx, err)
	}
	view, err := s.handlers.GetParcel.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}
	return ctx.JSON(http.StatusOK, parcelView(view))
}

func caller(userID, role *string) commands.Caller {
	return commands.Caller{
		UserID: strings.TrimSpace(deref(userID)),
		Role:   strings.TrimSpace(deref(role)),
	}
}
