package commands_test

import (
	"testing"

	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/model/seal"
	"parcels/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newConfirmHandler(uow *MockUoW, broadcaster *MockBroadcaster) commands.ConfirmReceiptCommandHandler {
	factory := new(MockUoWFactory)
	factory.On("Create").Return(uow).Once()
	return commands.NewConfirmReceiptCommandHandler(factory, broadcaster, testClock, discardLogger())
}

func TestConfirmReceiptCommandHandler_Handle_Success(t *testing.T) {
	ctx := t.Context()
	uow := newMockUoW()
	broadcaster := new(MockBroadcaster)
	p := storedParcel(50, parcel.Pending)
	s := linkedSeal(7, 50)

	mock.InOrder(
		uow.On("Begin", ctx).Return(nil).Once(),
		uow.parcels.On("GetForUpdate", mock.Anything, kernel.ID(50)).Return(p, nil).Once(),
		uow.parcels.On("Update", mock.Anything, p).Return(nil).Once(),
		uow.bags.On("GetByParcel", mock.Anything, kernel.ID(50)).Return([]*bag.Bag{}, nil).Once(),
		uow.seals.On("GetByParcel", mock.Anything, kernel.ID(50)).Return([]*seal.Seal{s}, nil).Once(),
		uow.seals.On("Update", mock.Anything, s).Return(nil).Once(),
		uow.On("Commit", ctx).Return(nil).Once(),
		broadcaster.On("Broadcast", mock.Anything, "delivered", mock.MatchedBy(func(e parcel.ChangeEvent) bool {
			return e.ParcelID == 50 && e.Status == parcel.Delivered.Code()
		})).Return(nil).Once(),
		uow.On("Rollback", ctx).Return(nil).Once(),
	)

	cmd, err := commands.NewConfirmReceiptCommand(50)
	require.NoError(t, err)

	h := newConfirmHandler(uow, broadcaster)
	require.NoError(t, h.Handle(ctx, cmd))

	assert.Equal(t, parcel.Delivered, p.Status())
	assert.Equal(t, testNow, *p.DeliveredAt())
	assert.Nil(t, s.ParcelID())
	uow.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestConfirmReceiptCommandHandler_Handle_TerminalStatus(t *testing.T) {
	for _, status := range []parcel.Status{parcel.Delivered, parcel.Returned} {
		t.Run(status.String(), func(t *testing.T) {
			ctx := t.Context()
			uow := newMockUoW()
			uow.On("Begin", ctx).Return(nil).Once()
			uow.parcels.On("GetForUpdate", mock.Anything, kernel.ID(50)).Return(storedParcel(50, status), nil).Once()
			uow.On("Rollback", ctx).Return(nil).Once()

			cmd, err := commands.NewConfirmReceiptCommand(50)
			require.NoError(t, err)

			h := newConfirmHandler(uow, new(MockBroadcaster))
			require.ErrorIs(t, h.Handle(ctx, cmd), errs.ErrValueIsInvalid)
			uow.parcels.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		})
	}
}

func TestConfirmReceiptCommandHandler_Handle_Busy(t *testing.T) {
	ctx := t.Context()
	uow := newMockUoW()
	uow.On("Begin", ctx).Return(nil).Once()
	uow.parcels.On("GetForUpdate", mock.Anything, kernel.ID(50)).
		Return(nil, errs.NewResourceBusyError("parcel", kernel.ID(50), nil)).Once()
	uow.On("Rollback", ctx).Return(nil).Once()

	cmd, err := commands.NewConfirmReceiptCommand(50)
	require.NoError(t, err)

	h := newConfirmHandler(uow, new(MockBroadcaster))
	require.ErrorIs(t, h.Handle(ctx, cmd), errs.ErrResourceBusy)
}
