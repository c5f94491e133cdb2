package parcelrepo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"parcels/internal/adapters/out/postgres/parcelrepo"
	"parcels/internal/adapters/out/postgres/pgtest"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/pkg/errs"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

// ParcelRepositoryIntegrationTestSuite runs the repository against a real
// PostgreSQL with the full optional column set.
type ParcelRepositoryIntegrationTestSuite struct {
	suite.Suite
	pg         *pgtest.Container
	snapshot   *schema.Snapshot
	repository *parcelrepo.GormParcelRepository
	now        time.Time
}

func (suite *ParcelRepositoryIntegrationTestSuite) SetupSuite() {
	ctx := context.Background()

	pg, err := pgtest.Start(ctx)
	suite.Require().NoError(err)
	suite.pg = pg

	suite.Require().NoError(pgtest.CreateSchema(pg.DB, pgtest.Options{TrackingCodeLength: 32}))
	suite.snapshot, err = schema.NewIntrospector(pg.DB, "", "").Load(ctx, 1)
	suite.Require().NoError(err)

	suite.now = time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)
}

func (suite *ParcelRepositoryIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(pgtest.Truncate(suite.pg.DB))
	suite.Require().NoError(suite.pg.DB.Exec(`INSERT INTO sectors (id, name) VALUES (3, 'Hub'), (5, 'Legal'), (12, 'Finance')`).Error)
	suite.Require().NoError(suite.pg.DB.Exec(`INSERT INTO people (id, name, sector_id) VALUES (17, 'Ana Souza', 5), (41, 'Bruno Lima', 12)`).Error)

	suite.repository = parcelrepo.NewGormParcelRepository(suite.pg.DB, suite.snapshot, parcelrepo.DefaultStatusLiterals())
}

func (suite *ParcelRepositoryIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *ParcelRepositoryIntegrationTestSuite) newParcel(code string) *parcel.Parcel {
	origin, err := kernel.NewPersonParticipant(5, 17, 5)
	suite.Require().NoError(err)
	destination, err := kernel.NewPersonParticipant(12, 41, 12)
	suite.Require().NoError(err)

	p, err := parcel.NewParcel(origin, destination, "contract copies", parcel.InTransit, suite.now)
	suite.Require().NoError(err)
	suite.Require().NoError(p.AssignTrackingCode(code))
	return p
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestAdd_WritesOptionalColumns() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-20240309-0050170124-000001")
	hub := kernel.ID(3)
	p.ApplyHubRouting(true, &hub)
	p.SetReceiptNumber("RC-2024/77")
	p.SetRoutingPayload(`{"code":"PRC-20240309-0050170124-000001"}`)

	suite.Require().NoError(suite.repository.Add(ctx, p))

	suite.True(p.IsStored())
	suite.Require().Len(p.DomainEvents(), 1)
	suite.Equal(parcel.EventCreated, p.DomainEvents()[0].Action)

	var stored struct {
		HubFlag       string
		HubSectorID   int64
		Urgent        string
		ReceiptNumber string
		Barcode       string
		Status        string
	}
	suite.Require().NoError(suite.pg.DB.Raw(
		`SELECT hub_flag, hub_sector_id, urgent, receipt_number, barcode, status FROM parcels WHERE id = ?`,
		p.ID().Int64(),
	).Scan(&stored).Error)

	suite.Equal("Y", stored.HubFlag)
	suite.Equal(int64(3), stored.HubSectorID)
	suite.Equal("N", stored.Urgent)
	suite.Equal("RC-2024/77", stored.ReceiptNumber)
	suite.Equal(p.TrackingCode(), stored.Barcode)
	suite.Equal("in_transit", stored.Status)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestAdd_DuplicateCodeKeepsTransactionUsable() {
	ctx := suite.T().Context()
	suite.Require().NoError(suite.repository.Add(ctx, suite.newParcel("PRC-DUP")))

	err := suite.pg.DB.Transaction(func(tx *gorm.DB) error {
		repository := parcelrepo.NewGormParcelRepository(tx, suite.snapshot, parcelrepo.DefaultStatusLiterals())

		duplicate := suite.newParcel("PRC-DUP")
		err := repository.Add(ctx, duplicate)
		suite.Require().Error(err)
		suite.True(errors.Is(err, parcel.ErrTrackingCodeTaken))
		suite.True(errors.Is(err, errs.ErrConstraintViolation))
		suite.False(duplicate.IsStored())

		return repository.Add(ctx, suite.newParcel("PRC-DUP-2"))
	})
	suite.Require().NoError(err)

	suite.assertParcelCount(2)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestAdd_ReleasesSavepoint() {
	ctx := suite.T().Context()
	tx := suite.pg.DB.Begin()
	defer tx.Rollback()
	repository := parcelrepo.NewGormParcelRepository(tx, suite.snapshot, parcelrepo.DefaultStatusLiterals())

	suite.Require().NoError(repository.Add(ctx, suite.newParcel("PRC-SP")))

	err := tx.Exec("RELEASE SAVEPOINT " + parcelrepo.LastSavepoint()).Error
	suite.Require().Error(err)
	suite.Contains(err.Error(), "does not exist")
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestGet_RestoresParcel() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-GET")
	p.SetUrgent(true)
	suite.Require().NoError(suite.repository.Add(ctx, p))

	got, err := suite.repository.Get(ctx, p.ID())

	suite.Require().NoError(err)
	suite.Equal(p.ID(), got.ID())
	suite.Equal("PRC-GET", got.TrackingCode())
	suite.Equal("PRC-GET", got.Barcode())
	suite.Equal("contract copies", got.Description())
	suite.Equal(parcel.InTransit, got.Status())
	suite.True(got.Urgent())
	suite.Equal(kernel.ID(5), got.OriginSectorID())
	suite.Equal(kernel.ID(17), *got.Origin().PersonID())
	suite.Equal(kernel.ID(12), *got.Destination().HomeSectorID())
	suite.True(got.CreatedAt().Equal(suite.now))
	suite.Nil(got.DeliveredAt())
	suite.Empty(got.DomainEvents())
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestGet_NotFound() {
	got, err := suite.repository.Get(suite.T().Context(), kernel.ID(999))

	suite.Nil(got)
	suite.True(errors.Is(err, errs.ErrObjectNotFound))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestUpdate_PersistsDelivery() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-UPD")
	suite.Require().NoError(suite.repository.Add(ctx, p))

	suite.Require().NoError(p.ConfirmReceipt(suite.now.Add(time.Hour)))
	suite.Require().NoError(suite.repository.Update(ctx, p))

	got, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal(parcel.Delivered, got.Status())
	suite.Require().NotNil(got.DeliveredAt())
	suite.True(got.DeliveredAt().Equal(suite.now.Add(time.Hour)))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestUpdate_PersistsHubRouting() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-HUB")
	hub := kernel.ID(3)
	p.ApplyHubRouting(true, &hub)
	suite.Require().NoError(suite.repository.Add(ctx, p))

	p.ApplyHubRouting(false, &hub)
	suite.Require().NoError(suite.repository.Update(ctx, p))

	got, err := suite.repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.False(got.HubRequired())
	suite.Nil(got.HubSectorID())
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestGetForUpdate_LockedRowIsBusy() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-LOCK")
	suite.Require().NoError(suite.repository.Add(ctx, p))

	holder := suite.pg.DB.Begin()
	defer holder.Rollback()
	_, err := parcelrepo.NewGormParcelRepository(holder, suite.snapshot, parcelrepo.DefaultStatusLiterals()).
		GetForUpdate(ctx, p.ID())
	suite.Require().NoError(err)

	contender := suite.pg.DB.Begin()
	defer contender.Rollback()
	_, err = parcelrepo.NewGormParcelRepository(contender, suite.snapshot, parcelrepo.DefaultStatusLiterals()).
		GetForUpdate(ctx, p.ID())

	suite.Require().Error(err)
	suite.True(errors.Is(err, errs.ErrResourceBusy))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestDelete_RemainingDependentIsConflict() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-FK")
	suite.Require().NoError(suite.repository.Add(ctx, p))
	suite.Require().NoError(suite.pg.DB.Exec(
		`INSERT INTO seals (code, sector_id, status, parcel_id) VALUES ('S-1', 5, 'used', ?)`, p.ID().Int64(),
	).Error)

	err := suite.repository.Delete(ctx, p.ID())

	suite.Require().Error(err)
	suite.True(errors.Is(err, errs.ErrConflict))
	suite.assertParcelCount(1)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestDelete_AfterClearingReferences() {
	ctx := suite.T().Context()
	p := suite.newParcel("PRC-DEL")
	suite.Require().NoError(p.AttachBag(kernel.ID(8)))
	suite.Require().NoError(suite.repository.Add(ctx, p))
	suite.Require().NoError(suite.pg.DB.Exec(
		`INSERT INTO parcel_events (parcel_id, name) VALUES (?, 'created'), (?, 'updated')`, p.ID().Int64(), p.ID().Int64(),
	).Error)

	suite.Require().NoError(suite.repository.ClearReferences(ctx, p.ID()))
	suite.Require().NoError(suite.repository.DeleteEvents(ctx, p.ID()))
	suite.Require().NoError(suite.repository.Delete(ctx, p.ID()))

	suite.assertParcelCount(0)
	var events int64
	suite.Require().NoError(suite.pg.DB.Table(schema.EventsTable).Count(&events).Error)
	suite.Equal(int64(0), events)
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestDelete_NotFound() {
	err := suite.repository.Delete(suite.T().Context(), kernel.ID(404))

	suite.True(errors.Is(err, errs.ErrObjectNotFound))
}

func (suite *ParcelRepositoryIntegrationTestSuite) TestStatusLiterals_RoundTrip() {
	ctx := suite.T().Context()
	literals, err := parcelrepo.ParseStatusLiterals("in_transit=EM_TRANSITO")
	suite.Require().NoError(err)
	repository := parcelrepo.NewGormParcelRepository(suite.pg.DB, suite.snapshot, literals)

	p := suite.newParcel("PRC-LIT")
	suite.Require().NoError(repository.Add(ctx, p))

	var status string
	suite.Require().NoError(suite.pg.DB.Raw(`SELECT status FROM parcels WHERE id = ?`, p.ID().Int64()).Row().Scan(&status))
	suite.Equal("EM_TRANSITO", status)

	got, err := repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal(parcel.InTransit, got.Status())
}

func (suite *ParcelRepositoryIntegrationTestSuite) assertParcelCount(expected int) {
	var count int64
	suite.Require().NoError(suite.pg.DB.Table(schema.ParcelsTable).Count(&count).Error)
	suite.Equal(int64(expected), count)
}

func TestParcelRepositoryIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(ParcelRepositoryIntegrationTestSuite))
}

// MinimalSchemaIntegrationTestSuite covers deployments without optional columns.
type MinimalSchemaIntegrationTestSuite struct {
	suite.Suite
	pg *pgtest.Container
}

func (suite *MinimalSchemaIntegrationTestSuite) SetupSuite() {
	pg, err := pgtest.Start(context.Background())
	suite.Require().NoError(err)
	suite.pg = pg
	suite.Require().NoError(pgtest.CreateSchema(pg.DB, pgtest.Options{Minimal: true, WithoutEvents: true}))
}

func (suite *MinimalSchemaIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.pg.Terminate(context.Background()))
}

func (suite *MinimalSchemaIntegrationTestSuite) TestAddAndGet() {
	ctx := suite.T().Context()
	snapshot, err := schema.NewIntrospector(suite.pg.DB, "", "").Load(ctx, 1)
	suite.Require().NoError(err)
	repository := parcelrepo.NewGormParcelRepository(suite.pg.DB, snapshot, parcelrepo.DefaultStatusLiterals())

	origin, _ := kernel.NewSectorParticipant(5)
	destination, _ := kernel.NewSectorParticipant(12)
	p, err := parcel.NewParcel(origin, destination, "toner", parcel.Pending, time.Now())
	suite.Require().NoError(err)
	suite.Require().NoError(p.AssignTrackingCode("PRC-MIN"))
	hub := kernel.ID(3)
	p.ApplyHubRouting(true, &hub)

	suite.Require().NoError(repository.Add(ctx, p))
	suite.Require().NoError(repository.DeleteEvents(ctx, p.ID()))
	suite.Require().NoError(repository.ClearReferences(ctx, p.ID()))

	got, err := repository.Get(ctx, p.ID())
	suite.Require().NoError(err)
	suite.Equal("toner", got.Description())
	suite.False(got.Origin().IsPerson())
	suite.False(got.HubRequired())
	suite.Empty(got.Barcode())
}

func TestMinimalSchemaIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(MinimalSchemaIntegrationTestSuite))
}
