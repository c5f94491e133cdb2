package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	httpadapter "parcels/internal/adapters/in/http"
	"parcels/internal/adapters/out/broadcast/pgnotify"
	"parcels/internal/adapters/out/broadcast/redisbus"
	"parcels/internal/adapters/out/broadcast/sse"
	"parcels/internal/adapters/out/postgres"
	"parcels/internal/adapters/out/postgres/parcelrepo"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/adapters/out/postgres/settingsrepo"
	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/application/usecases/queries"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/services"
	"parcels/internal/core/ports"
	"parcels/internal/jobs"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const relayRestartDelay = 5 * time.Second

type relay interface {
	Run(ctx context.Context) error
}

type CompositionRoot struct {
	cfg    Config
	gormDB *gorm.DB
	logger *slog.Logger

	schema      *schema.Cache
	literals    parcelrepo.StatusLiterals
	uowFactory  *postgres.GormUnitOfWorkFactory
	hubSector   *settingsrepo.HubSectorProvider
	hub         *sse.Hub
	broadcaster ports.ChangeBroadcaster
	relays      []relay
	redis       *redis.Client
	closeOnce   sync.Once
}

// NewCompositionRoot wires the service. It loads the schema snapshot once; a
// missing table or mandatory column fails startup.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	literals, err := parcelrepo.ParseStatusLiterals(cfg.ParcelStatusLiterals)
	if err != nil {
		return nil, err
	}
	hubOverride, err := cfg.HubSectorOverride()
	if err != nil {
		return nil, err
	}

	cache := schema.NewCache(schema.NewIntrospector(gormDB, "", ""), logger)
	if _, err = cache.Reload(ctx); err != nil {
		return nil, fmt.Errorf("load parcel schema: %w", err)
	}

	heartbeat, err := cfg.HeartbeatInterval()
	if err != nil {
		return nil, err
	}
	retry, err := cfg.RetryHint()
	if err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		logger:     logger,
		schema:     cache,
		literals:   literals,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB, cache, literals),
		hubSector:  settingsrepo.NewHubSectorProvider(gormDB, hubOverride),
		hub:        sse.NewHub(sse.Options{Retry: retry, Heartbeat: heartbeat}, logger),
	}
	if err = c.wireBroadcaster(); err != nil {
		return nil, err
	}
	return c, nil
}

// wireBroadcaster picks the backend. With a message bus, commands publish to
// the bus and a relay feeds the local hub, so every instance sees every event.
func (c *CompositionRoot) wireBroadcaster() error {
	backend, err := c.cfg.Backend()
	if err != nil {
		return err
	}

	switch backend {
	case BroadcastRedis:
		c.redis = redis.NewClient(&redis.Options{
			Addr:     c.cfg.RedisAddr,
			Password: c.cfg.RedisPassword,
		})
		c.broadcaster = redisbus.NewBroadcaster(c.redis, c.cfg.BroadcastChannel)
		c.relays = append(c.relays, redisbus.NewRelay(c.redis, c.cfg.BroadcastChannel, c.hub, c.logger))
	case BroadcastPostgres:
		c.broadcaster = pgnotify.NewBroadcaster(c.gormDB, c.cfg.BroadcastChannel)
		c.relays = append(c.relays, pgnotify.NewRelay(c.cfg.DSN(), c.cfg.BroadcastChannel, c.hub, c.logger))
	default:
		c.broadcaster = c.hub
	}

	c.logger.Info("Change broadcaster configured", "backend", backend)
	return nil
}

func (c *CompositionRoot) uow() commands.UoWFactory {
	return FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateParcelCommandHandler() (*commands.CreateParcelCommandHandler, error) {
	retries, err := c.cfg.MaxCodeRetries()
	if err != nil {
		return nil, err
	}
	h := commands.NewCreateParcelCommandHandler(
		c.uow(),
		c.hubSector,
		c.schema,
		c.broadcaster,
		commands.CreateOptions{
			Generator:      services.NewTrackingCodeGenerator("", nil, nil),
			Resolver:       services.NewCollisionResolver(nil),
			MaxCodeRetries: retries,
		},
		c.logger,
	)
	return &h, nil
}

func (c *CompositionRoot) CreateCreateParcelFromWizardCommandHandler(
	create *commands.CreateParcelCommandHandler,
) *commands.CreateParcelFromWizardCommandHandler {
	h := commands.NewCreateParcelFromWizardCommandHandler(create)
	return &h
}

func (c *CompositionRoot) CreateUpdateParcelCommandHandler() *commands.UpdateParcelCommandHandler {
	h := commands.NewUpdateParcelCommandHandler(c.uow(), c.hubSector, c.broadcaster, nil, c.logger)
	return &h
}

func (c *CompositionRoot) CreateConfirmReceiptCommandHandler() *commands.ConfirmReceiptCommandHandler {
	h := commands.NewConfirmReceiptCommandHandler(c.uow(), c.broadcaster, nil, c.logger)
	return &h
}

func (c *CompositionRoot) CreateDeleteParcelCommandHandler() *commands.DeleteParcelCommandHandler {
	h := commands.NewDeleteParcelCommandHandler(c.uow(), c.broadcaster, c.cfg.AdminRoleList(), c.logger)
	return &h
}

func (c *CompositionRoot) CreateGetParcelQueryHandler() queries.GetParcelQueryHandler {
	reader := queries.ParcelReaderFunc(func(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
		return c.uowFactory.Create().ParcelRepository().Get(ctx, id)
	})
	return queries.NewGetParcelQueryHandler(c.gormDB, reader)
}

func (c *CompositionRoot) CreateGetParcelStatsQueryHandler() queries.GetParcelStatsQueryHandler {
	return queries.NewGetParcelStatsQueryHandler(c.gormDB, c.literals, c.schema)
}

func (c *CompositionRoot) CreateGetRecipientNotificationsQueryHandler() queries.GetRecipientNotificationsQueryHandler {
	return queries.NewGetRecipientNotificationsQueryHandler(c.gormDB, c.literals, c.schema)
}

// CreateHTTPServer builds the API server with every use case wired in.
func (c *CompositionRoot) CreateHTTPServer() (*httpadapter.Server, error) {
	create, err := c.CreateCreateParcelCommandHandler()
	if err != nil {
		return nil, err
	}
	writeTimeout, err := c.cfg.WriteTimeout()
	if err != nil {
		return nil, err
	}

	return httpadapter.NewServer(
		httpadapter.Handlers{
			CreateParcel:              create,
			CreateParcelFromWizard:    c.CreateCreateParcelFromWizardCommandHandler(create),
			UpdateParcel:              c.CreateUpdateParcelCommandHandler(),
			ConfirmReceipt:            c.CreateConfirmReceiptCommandHandler(),
			DeleteParcel:              c.CreateDeleteParcelCommandHandler(),
			GetParcel:                 c.CreateGetParcelQueryHandler(),
			GetParcelStats:            c.CreateGetParcelStatsQueryHandler(),
			GetRecipientNotifications: c.CreateGetRecipientNotificationsQueryHandler(),
		},
		c.hub,
		c.schema,
		httpadapter.Options{
			AdminRoles:         c.cfg.AdminRoleList(),
			StreamWriteTimeout: writeTimeout,
		},
		c.logger,
	), nil
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.schema, c.cfg.SchemaRefreshSchedule, c.logger)
}

// StartRelays runs the message bus relays until ctx is cancelled, restarting
// a relay whose subscription fails.
func (c *CompositionRoot) StartRelays(ctx context.Context) {
	for _, r := range c.relays {
		go func() {
			for {
				if err := r.Run(ctx); err != nil {
					c.logger.ErrorContext(ctx, "Change relay stopped, restarting", "error", err)
				}
				select {
				case <-ctx.Done():
					return
				case <-time.After(relayRestartDelay):
				}
			}
		}()
	}
}

// Close ends live streams and releases the message bus client.
func (c *CompositionRoot) Close() {
	c.closeOnce.Do(func() {
		c.hub.Close()
		if c.redis != nil {
			if err := c.redis.Close(); err != nil {
				c.logger.Warn("Closing redis client failed", "error", err)
			}
		}
	})
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
