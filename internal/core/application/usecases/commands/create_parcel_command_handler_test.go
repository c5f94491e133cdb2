package commands_test

import (
	"errors"
	"fmt"
	"testing"

	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/model/seal"
	"parcels/internal/core/domain/services"
	"parcels/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const generatedCode = "PRC-20260314-0000500012-000042"

type createFixture struct {
	uow         *MockUoW
	factory     *MockUoWFactory
	hub         *MockHubSectorProvider
	broadcaster *MockBroadcaster
	handler     commands.CreateParcelCommandHandler
}

func newCreateFixture(t *testing.T, maxLength, maxRetries int) *createFixture {
	t.Helper()

	f := &createFixture{
		uow:         newMockUoW(),
		factory:     new(MockUoWFactory),
		hub:         new(MockHubSectorProvider),
		broadcaster: new(MockBroadcaster),
	}
	f.factory.On("Create").Return(f.uow).Once()
	f.handler = commands.NewCreateParcelCommandHandler(
		f.factory,
		f.hub,
		fixedCapabilities{maxLength: maxLength},
		f.broadcaster,
		commands.CreateOptions{
			Generator:      services.NewTrackingCodeGenerator("PRC", testClock, func(int) int { return 42 }),
			Resolver:       services.NewCollisionResolver(testClock),
			Clock:          testClock,
			MaxCodeRetries: maxRetries,
		},
		discardLogger(),
	)
	return f
}

func (f *createFixture) expectSectors() {
	f.uow.directory.On("GetSector", mock.Anything, kernel.ID(5)).Return(activeSector(5, "Registry"), nil)
	f.uow.directory.On("GetSector", mock.Anything, kernel.ID(12)).Return(activeSector(12, "Finance"), nil)
}

func sectorToSectorCommand(t *testing.T, mutate func(*commands.CreateParcelParams)) commands.CreateParcelCommand {
	t.Helper()
	params := commands.CreateParcelParams{
		Origin:      commands.ParticipantRef{SectorID: idPtr(5)},
		Destination: commands.ParticipantRef{SectorID: idPtr(12)},
		Description: "signed contracts",
	}
	if mutate != nil {
		mutate(&params)
	}
	cmd, err := commands.NewCreateParcelCommand(params)
	require.NoError(t, err)
	return cmd
}

func assignIdentity(id int64) func(mock.Arguments) {
	return func(args mock.Arguments) {
		p := args.Get(1).(*parcel.Parcel)
		if err := p.AssignIdentity(kernel.ID(id)); err != nil {
			panic(err)
		}
	}
}

func TestCreateParcelCommandHandler_Handle_LinksSealAndBag(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()

	s, err := seal.RestoreSeal(7, "S-007", 5, seal.Available, nil, nil, testNow)
	require.NoError(t, err)
	b, err := bag.RestoreBag(9, "B-009", nil, idPtr(5), idPtr(5), testNow)
	require.NoError(t, err)

	f.uow.seals.On("GetForUpdate", mock.Anything, kernel.ID(7)).Return(s, nil).Once()
	f.uow.bags.On("GetForUpdate", mock.Anything, kernel.ID(9)).Return(b, nil).Once()
	f.hub.On("HubSectorID", mock.Anything).Return(idPtr(3), nil).Once()
	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.parcels.On("Add", mock.Anything, mock.AnythingOfType("*parcel.Parcel")).
			Run(assignIdentity(100)).Return(nil).Once(),
		f.uow.seals.On("Update", mock.Anything, s).Return(nil).Once(),
		f.uow.bags.On("Update", mock.Anything, b).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.broadcaster.On("Broadcast", mock.Anything, "created", mock.Anything).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)

	cmd := sectorToSectorCommand(t, func(p *commands.CreateParcelParams) {
		p.SealID = idPtr(7)
		p.BagID = idPtr(9)
		p.Urgent = true
	})
	result, err := f.handler.Handle(ctx, cmd)
	require.NoError(t, err)

	assert.Equal(t, kernel.ID(100), result.ID)
	assert.Equal(t, generatedCode, result.TrackingCode)
	assert.Equal(t, result.TrackingCode, result.Barcode)
	assert.Equal(t, parcel.Pending, result.Status)
	assert.True(t, result.HubRequired)
	assert.Equal(t, idPtr(3), result.HubSectorID)
	assert.Contains(t, result.RoutingPayload, `"sealCode":"S-007"`)
	assert.Contains(t, result.RoutingPayload, `"bagNumber":"B-009"`)
	assert.Contains(t, result.RoutingPayload, `"priority":"high"`)
	assert.Contains(t, result.RoutingPayload, `"sectorName":"Finance"`)

	assert.Equal(t, seal.Used, s.Status())
	assert.Equal(t, idPtr(100), s.ParcelID())
	assert.Equal(t, idPtr(9), s.BagID())
	assert.Equal(t, bag.Linked, b.Status())
	assert.Equal(t, idPtr(100), b.ParcelID())

	f.uow.AssertExpectations(t)
	f.uow.parcels.AssertExpectations(t)
	f.uow.seals.AssertExpectations(t)
	f.uow.bags.AssertExpectations(t)
	f.broadcaster.AssertExpectations(t)
}

func TestCreateParcelCommandHandler_Handle_RetriesOncePerCollision(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()
	f.hub.On("HubSectorID", mock.Anything).Return(nil, nil).Once()

	var codes []string
	record := func(args mock.Arguments) {
		codes = append(codes, args.Get(1).(*parcel.Parcel).TrackingCode())
	}
	taken := fmt.Errorf("%w: duplicate key", parcel.ErrTrackingCodeTaken)

	mock.InOrder(
		f.uow.On("Begin", ctx).Return(nil).Once(),
		f.uow.parcels.On("Add", mock.Anything, mock.Anything).Run(record).Return(taken).Once(),
		f.uow.parcels.On("Add", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			record(args)
			assignIdentity(101)(args)
		}).Return(nil).Once(),
		f.uow.On("Commit", ctx).Return(nil).Once(),
		f.uow.On("Rollback", ctx).Return(nil).Once(),
	)
	f.broadcaster.On("Broadcast", mock.Anything, "created", mock.Anything).Return(nil).Once()

	result, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.NoError(t, err)

	suffix := fmt.Sprintf("-%06d", testNow.UnixMilli()%1_000_000)
	require.Len(t, codes, 2)
	assert.Equal(t, generatedCode, codes[0])
	assert.Equal(t, generatedCode+suffix, codes[1])
	assert.Equal(t, codes[1], result.TrackingCode)
	assert.LessOrEqual(t, len(result.TrackingCode), 40)
	assert.False(t, result.HubRequired)
	f.uow.parcels.AssertExpectations(t)
}

func TestCreateParcelCommandHandler_Handle_TruncatesToColumnWidth(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 20, 0)
	f.expectSectors()
	f.hub.On("HubSectorID", mock.Anything).Return(nil, nil).Once()

	var codes []string
	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.parcels.On("Add", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		codes = append(codes, args.Get(1).(*parcel.Parcel).TrackingCode())
	}).Return(fmt.Errorf("%w: duplicate key", parcel.ErrTrackingCodeTaken)).Once()
	f.uow.parcels.On("Add", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		codes = append(codes, args.Get(1).(*parcel.Parcel).TrackingCode())
		assignIdentity(102)(args)
	}).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()
	f.broadcaster.On("Broadcast", mock.Anything, "created", mock.Anything).Return(nil).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.NoError(t, err)

	require.Len(t, codes, 2)
	assert.Equal(t, generatedCode[:20], codes[0])
	assert.Len(t, codes[1], 20)
	assert.Equal(t, generatedCode[:13], codes[1][:13])
}

func TestCreateParcelCommandHandler_Handle_GivesUpAfterMaxRetries(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 2)
	f.expectSectors()
	f.hub.On("HubSectorID", mock.Anything).Return(nil, nil).Once()

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.parcels.On("Add", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: duplicate key", parcel.ErrTrackingCodeTaken)).Times(3)
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.ErrorIs(t, err, parcel.ErrTrackingCodeTaken)

	f.uow.parcels.AssertExpectations(t)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
	f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_SealFromAnotherSector(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()

	s, err := seal.RestoreSeal(7, "S-007", 8, seal.Available, nil, nil, testNow)
	require.NoError(t, err)

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.seals.On("GetForUpdate", mock.Anything, kernel.ID(7)).Return(s, nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err = f.handler.Handle(ctx, sectorToSectorCommand(t, func(p *commands.CreateParcelParams) {
		p.SealID = idPtr(7)
	}))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)

	f.uow.parcels.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	f.uow.seals.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	f.hub.AssertNotCalled(t, "HubSectorID", mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_SealLockedByAnotherCreation(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.seals.On("GetForUpdate", mock.Anything, kernel.ID(7)).
		Return(nil, errs.NewResourceBusyError("seal", kernel.ID(7), nil)).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, func(p *commands.CreateParcelParams) {
		p.SealID = idPtr(7)
	}))
	require.ErrorIs(t, err, errs.ErrResourceBusy)

	f.uow.seals.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	f.uow.parcels.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
	f.uow.AssertNotCalled(t, "Commit", mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_LinkedBagIsRejected(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.bags.On("GetForUpdate", mock.Anything, kernel.ID(9)).Return(linkedBag(9, 50), nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, func(p *commands.CreateParcelParams) {
		p.BagID = idPtr(9)
	}))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	f.uow.parcels.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_HubLookupFailureRoutesWithoutHub(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.expectSectors()
	f.hub.On("HubSectorID", mock.Anything).Return(nil, errors.New("settings unavailable")).Once()

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.parcels.On("Add", mock.Anything, mock.Anything).Run(assignIdentity(103)).Return(nil).Once()
	f.uow.On("Commit", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()
	f.broadcaster.On("Broadcast", mock.Anything, "created", mock.Anything).
		Return(errors.New("no subscribers reachable")).Once()

	result, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.NoError(t, err)
	assert.False(t, result.HubRequired)
	assert.Nil(t, result.HubSectorID)
}

func TestCreateParcelCommandHandler_Handle_InactiveSector(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.uow.directory.On("GetSector", mock.Anything, kernel.ID(5)).Return(activeSector(5, "Registry"), nil)
	inactive := activeSector(12, "Finance")
	inactive.Active = false
	f.uow.directory.On("GetSector", mock.Anything, kernel.ID(12)).Return(inactive, nil)

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	f.uow.parcels.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_PersonsFromSameHomeSector(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.uow.directory.On("GetPerson", mock.Anything, kernel.ID(40)).
		Return(personIn(40, "Ana Souza", 5), nil)
	f.uow.directory.On("GetPerson", mock.Anything, kernel.ID(41)).
		Return(personIn(41, "Bruno Lima", 5), nil)
	f.expectSectors()

	f.uow.On("Begin", ctx).Return(nil).Once()
	f.uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewCreateParcelCommand(commands.CreateParcelParams{
		Origin:      commands.ParticipantRef{PersonID: idPtr(40)},
		Destination: commands.ParticipantRef{PersonID: idPtr(41), SectorID: idPtr(12)},
		Description: "memo",
	})
	require.NoError(t, err)

	_, err = f.handler.Handle(ctx, cmd)
	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	f.uow.parcels.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_BeginError(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)
	f.uow.On("Begin", ctx).Return(errors.New("begin error")).Once()

	_, err := f.handler.Handle(ctx, sectorToSectorCommand(t, nil))
	require.Error(t, err)
	f.uow.AssertNotCalled(t, "Rollback", mock.Anything)
}

func TestCreateParcelCommandHandler_Handle_ValidationError(t *testing.T) {
	ctx := t.Context()
	f := newCreateFixture(t, 40, 0)

	_, err := f.handler.Handle(ctx, commands.CreateParcelCommand{})
	require.ErrorIs(t, err, commands.ErrCreateParcelCommandIsNotConstructed)
	f.factory.AssertNotCalled(t, "Create")
}
