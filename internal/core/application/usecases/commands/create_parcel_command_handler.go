package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/services"
	"parcels/internal/core/ports"
)

// DefaultMaxCodeRetries bounds the tracking code collision retries of one creation.
const DefaultMaxCodeRetries = 5

// CreateParcelResult is what the caller gets back from a successful creation.
type CreateParcelResult struct {
	ID             kernel.ID
	TrackingCode   string
	Barcode        string
	RoutingPayload string
	Status         parcel.Status
	HubRequired    bool
	HubSectorID    *kernel.ID
}

// CreateOptions tunes tracking code generation.
type CreateOptions struct {
	Generator      services.TrackingCodeGenerator
	Resolver       services.CollisionResolver
	Clock          services.Clock
	MaxCodeRetries int
}

// CreateParcelCommandHandler creates parcels.
//
// Every rule that can reject the request (participants, seal sector, bag
// availability, parent) is checked before the first write. The insert is
// retried with a derived tracking code when the code is already taken; the
// seal and bag are linked in the same transaction as the insert.
type CreateParcelCommandHandler struct {
	uowFactory  UoWFactory
	hub         ports.HubSectorProvider
	schema      ports.SchemaProvider
	broadcaster ports.ChangeBroadcaster
	generator   services.TrackingCodeGenerator
	resolver    services.CollisionResolver
	clock       services.Clock
	maxRetries  int
	logger      *slog.Logger
}

func NewCreateParcelCommandHandler(
	uowFactory UoWFactory,
	hub ports.HubSectorProvider,
	schema ports.SchemaProvider,
	broadcaster ports.ChangeBroadcaster,
	opts CreateOptions,
	logger *slog.Logger,
) CreateParcelCommandHandler {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxCodeRetries <= 0 {
		opts.MaxCodeRetries = DefaultMaxCodeRetries
	}
	return CreateParcelCommandHandler{
		uowFactory:  uowFactory,
		hub:         hub,
		schema:      schema,
		broadcaster: broadcaster,
		generator:   opts.Generator,
		resolver:    opts.Resolver,
		clock:       opts.Clock,
		maxRetries:  opts.MaxCodeRetries,
		logger:      logger.With("component", "create_parcel"),
	}
}

// Handle creates the parcel and returns its tracking identifiers.
func (h *CreateParcelCommandHandler) Handle(ctx context.Context, cmd CreateParcelCommand) (CreateParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return CreateParcelResult{}, err
	}
	return h.create(ctx, func(context.Context, ports.DirectoryRepository) (CreateParcelCommand, error) {
		return cmd, nil
	})
}

// commandSource yields the creation command once the transaction is open.
// The wizard uses it to resolve names against the same snapshot the insert sees.
type commandSource func(ctx context.Context, dir ports.DirectoryRepository) (CreateParcelCommand, error)

func (h *CreateParcelCommandHandler) create(ctx context.Context, source commandSource) (CreateParcelResult, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return CreateParcelResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	cmd, err := source(ctx, uow.DirectoryRepository())
	if err != nil {
		return CreateParcelResult{}, err
	}

	now := h.clock()
	origin, err := resolveParticipant(ctx, uow.DirectoryRepository(), cmd.Origin())
	if err != nil {
		return CreateParcelResult{}, fmt.Errorf("origin: %w", err)
	}
	destination, err := resolveParticipant(ctx, uow.DirectoryRepository(), cmd.Destination())
	if err != nil {
		return CreateParcelResult{}, fmt.Errorf("destination: %w", err)
	}

	p, err := parcel.NewParcel(origin.participant, destination.participant, cmd.Description(), cmd.Status(), now)
	if err != nil {
		return CreateParcelResult{}, err
	}
	p.SetUrgent(cmd.Urgent())
	p.SetReceiptNumber(cmd.ReceiptNumber())

	linked, err := h.loadAttachments(ctx, uow, p, cmd)
	if err != nil {
		return CreateParcelResult{}, err
	}

	hubID, _ := lookupHub(ctx, h.hub, h.logger)
	p.ApplyHubRouting(services.RequiresHub(p.OriginSectorID(), p.DestinationSectorID(), hubID), hubID)

	if err = h.insert(ctx, uow, p, routingLabel{origin: origin, destination: destination, attached: linked}); err != nil {
		return CreateParcelResult{}, err
	}

	if err = linked.link(ctx, uow, p.ID(), now); err != nil {
		return CreateParcelResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CreateParcelResult{}, err
	}

	h.logger.InfoContext(ctx, "Parcel created",
		"parcel_id", p.ID(), "tracking_code", p.TrackingCode(), "hub_required", p.HubRequired())
	publishEvents(ctx, h.broadcaster, h.logger, p)

	return CreateParcelResult{
		ID:             p.ID(),
		TrackingCode:   p.TrackingCode(),
		Barcode:        p.Barcode(),
		RoutingPayload: p.RoutingPayload(),
		Status:         p.Status(),
		HubRequired:    p.HubRequired(),
		HubSectorID:    p.HubSectorID(),
	}, nil
}

// loadAttachments locks and validates the requested seal and bag, and reads
// the parent.
func (h *CreateParcelCommandHandler) loadAttachments(
	ctx context.Context,
	uow UoW,
	p *parcel.Parcel,
	cmd CreateParcelCommand,
) (attachments, error) {
	var a attachments

	if id := cmd.SealID(); id != nil {
		s, err := uow.SealRepository().GetForUpdate(ctx, *id)
		if err != nil {
			return attachments{}, err
		}
		if err = s.ValidateAttachment(p.OriginSectorID()); err != nil {
			return attachments{}, err
		}
		if err = p.AttachSeal(s.ID()); err != nil {
			return attachments{}, err
		}
		a.seal = s
	}

	if id := cmd.BagID(); id != nil {
		b, err := uow.BagRepository().GetForUpdate(ctx, *id)
		if err != nil {
			return attachments{}, err
		}
		if err = b.ValidateLink(); err != nil {
			return attachments{}, err
		}
		if err = p.AttachBag(b.ID()); err != nil {
			return attachments{}, err
		}
		a.bag = b
	}

	if id := cmd.ParentID(); id != nil {
		parent, err := uow.ParcelRepository().Get(ctx, *id)
		if err != nil {
			return attachments{}, fmt.Errorf("parent: %w", err)
		}
		if err = p.SetParent(parent.ID()); err != nil {
			return attachments{}, err
		}
	}

	return a, nil
}

// insert stores the parcel, deriving a new tracking code from the generated
// one after each collision.
func (h *CreateParcelCommandHandler) insert(
	ctx context.Context,
	uow UoW,
	p *parcel.Parcel,
	label routingLabel,
) error {
	maxLength := h.schema.Capabilities().TrackingCodeMaxLength()
	generated := h.generator.Generate(services.TrackingRef{
		OriginPersonID:      p.Origin().PersonID(),
		OriginSectorID:      p.OriginSectorID(),
		DestinationPersonID: p.Destination().PersonID(),
		DestinationSectorID: p.DestinationSectorID(),
	})
	if maxLength > 0 && len(generated) > maxLength {
		generated = generated[:maxLength]
	}

	code := generated
	for attempt := 0; ; attempt++ {
		if err := p.AssignTrackingCode(code); err != nil {
			return err
		}
		payload, err := label.render(p)
		if err != nil {
			return err
		}
		p.SetRoutingPayload(payload)

		err = uow.ParcelRepository().Add(ctx, p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, parcel.ErrTrackingCodeTaken) {
			return err
		}
		if attempt >= h.maxRetries {
			return fmt.Errorf("tracking code still taken after %d retries: %w", attempt, err)
		}

		code = h.resolver.Resolve(generated, maxLength)
		h.logger.DebugContext(ctx, "Tracking code collision, retrying",
			"taken", p.TrackingCode(), "next", code, "attempt", attempt+1)
	}
}

type routingParticipant struct {
	SectorID   kernel.ID  `json:"sectorId"`
	SectorName string     `json:"sectorName,omitempty"`
	PersonID   *kernel.ID `json:"personId,omitempty"`
	PersonName string     `json:"personName,omitempty"`
}

// routingPayload is the scannable document printed on the parcel label.
type routingPayload struct {
	TrackingCode  string             `json:"trackingCode"`
	Description   string             `json:"description"`
	Origin        routingParticipant `json:"origin"`
	Destination   routingParticipant `json:"destination"`
	PostedAt      time.Time          `json:"postedAt"`
	SealCode      string             `json:"sealCode,omitempty"`
	BagNumber     string             `json:"bagNumber,omitempty"`
	ReceiptNumber string             `json:"receiptNumber,omitempty"`
	Urgent        bool               `json:"urgent"`
	Priority      string             `json:"priority"`
	HubSectorID   *kernel.ID         `json:"hubSectorId,omitempty"`
}

// routingLabel holds what the payload needs beyond the parcel itself.
type routingLabel struct {
	origin      resolvedParticipant
	destination resolvedParticipant
	attached    attachments
}

func (l routingLabel) render(p *parcel.Parcel) (string, error) {
	payload := routingPayload{
		TrackingCode: p.TrackingCode(),
		Description:  p.Description(),
		Origin: routingParticipant{
			SectorID:   p.OriginSectorID(),
			SectorName: l.origin.sectorName,
			PersonID:   p.Origin().PersonID(),
			PersonName: l.origin.personName,
		},
		Destination: routingParticipant{
			SectorID:   p.DestinationSectorID(),
			SectorName: l.destination.sectorName,
			PersonID:   p.Destination().PersonID(),
			PersonName: l.destination.personName,
		},
		PostedAt:      p.CreatedAt().UTC(),
		ReceiptNumber: p.ReceiptNumber(),
		Urgent:        p.Urgent(),
		Priority:      "normal",
		HubSectorID:   p.HubSectorID(),
	}
	if p.Urgent() {
		payload.Priority = "high"
	}
	if l.attached.seal != nil {
		payload.SealCode = l.attached.seal.Code()
	}
	if l.attached.bag != nil {
		payload.BagNumber = l.attached.bag.Number()
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal routing payload: %w", err)
	}
	return string(data), nil
}
