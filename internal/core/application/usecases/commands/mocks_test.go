package commands_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/domain/model/bag"
	"parcels/internal/core/domain/model/directory"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/core/domain/model/seal"
	"parcels/internal/core/ports"

	"github.com/stretchr/testify/mock"
)

type MockParcelRepository struct{ mock.Mock }

func (m *MockParcelRepository) Add(ctx context.Context, p *parcel.Parcel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockParcelRepository) Update(ctx context.Context, p *parcel.Parcel) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockParcelRepository) Get(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*parcel.Parcel)
	return p, args.Error(1)
}
func (m *MockParcelRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*parcel.Parcel, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*parcel.Parcel)
	return p, args.Error(1)
}
func (m *MockParcelRepository) ClearReferences(ctx context.Context, id kernel.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockParcelRepository) DeleteEvents(ctx context.Context, id kernel.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockParcelRepository) Delete(ctx context.Context, id kernel.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockBagRepository struct{ mock.Mock }

func (m *MockBagRepository) Get(ctx context.Context, id kernel.ID) (*bag.Bag, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*bag.Bag)
	return b, args.Error(1)
}
func (m *MockBagRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*bag.Bag, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*bag.Bag)
	return b, args.Error(1)
}
func (m *MockBagRepository) GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*bag.Bag, error) {
	args := m.Called(ctx, parcelID)
	bags, _ := args.Get(0).([]*bag.Bag)
	return bags, args.Error(1)
}
func (m *MockBagRepository) Update(ctx context.Context, b *bag.Bag) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}
func (m *MockBagRepository) UnlinkByParcel(ctx context.Context, parcelID kernel.ID) error {
	args := m.Called(ctx, parcelID)
	return args.Error(0)
}

type MockSealRepository struct{ mock.Mock }

func (m *MockSealRepository) Get(ctx context.Context, id kernel.ID) (*seal.Seal, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*seal.Seal)
	return s, args.Error(1)
}
func (m *MockSealRepository) GetForUpdate(ctx context.Context, id kernel.ID) (*seal.Seal, error) {
	args := m.Called(ctx, id)
	s, _ := args.Get(0).(*seal.Seal)
	return s, args.Error(1)
}
func (m *MockSealRepository) GetByParcel(ctx context.Context, parcelID kernel.ID) ([]*seal.Seal, error) {
	args := m.Called(ctx, parcelID)
	seals, _ := args.Get(0).([]*seal.Seal)
	return seals, args.Error(1)
}
func (m *MockSealRepository) Update(ctx context.Context, s *seal.Seal) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSealRepository) DeleteByParcel(ctx context.Context, parcelID kernel.ID) (int64, error) {
	args := m.Called(ctx, parcelID)
	return args.Get(0).(int64), args.Error(1)
}

type MockDirectoryRepository struct{ mock.Mock }

func (m *MockDirectoryRepository) GetPerson(ctx context.Context, id kernel.ID) (directory.Person, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(directory.Person), args.Error(1)
}
func (m *MockDirectoryRepository) GetSector(ctx context.Context, id kernel.ID) (directory.Sector, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(directory.Sector), args.Error(1)
}
func (m *MockDirectoryRepository) FindPersonByName(ctx context.Context, name string) (directory.Person, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(directory.Person), args.Error(1)
}
func (m *MockDirectoryRepository) FindSectorByName(ctx context.Context, name string) (directory.Sector, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(directory.Sector), args.Error(1)
}

// MockUoW hands out fixed repositories; only the transaction calls are recorded.
type MockUoW struct {
	mock.Mock

	parcels   *MockParcelRepository
	bags      *MockBagRepository
	seals     *MockSealRepository
	directory *MockDirectoryRepository
}

func newMockUoW() *MockUoW {
	return &MockUoW{
		parcels:   new(MockParcelRepository),
		bags:      new(MockBagRepository),
		seals:     new(MockSealRepository),
		directory: new(MockDirectoryRepository),
	}
}

func (m *MockUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
func (m *MockUoW) ParcelRepository() ports.ParcelRepository { return m.parcels }
func (m *MockUoW) BagRepository() ports.BagRepository { return m.bags }
func (m *MockUoW) SealRepository() ports.SealRepository { return m.seals }
func (m *MockUoW) DirectoryRepository() ports.DirectoryRepository { return m.directory }

type MockUoWFactory struct{ mock.Mock }

func (m *MockUoWFactory) Create() commands.UoW {
	args := m.Called()
	return args.Get(0).(commands.UoW)
}

type MockBroadcaster struct{ mock.Mock }

func (m *MockBroadcaster) Broadcast(ctx context.Context, event string, payload any) error {
	args := m.Called(ctx, event, payload)
	return args.Error(0)
}

type MockHubSectorProvider struct{ mock.Mock }

func (m *MockHubSectorProvider) HubSectorID(ctx context.Context) (*kernel.ID, error) {
	args := m.Called(ctx)
	id, _ := args.Get(0).(*kernel.ID)
	return id, args.Error(1)
}

type fixedCapabilities struct {
	maxLength int
}

func (c fixedCapabilities) Version() uint64 { return 1 }
func (c fixedCapabilities) HasColumn(string) bool { return true }
func (c fixedCapabilities) TrackingCodeMaxLength() int { return c.maxLength }
func (c fixedCapabilities) DescriptionColumn() string { return "description" }
func (c fixedCapabilities) Capabilities() ports.SchemaCapabilities { return c }

var testNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func idPtr(v int64) *kernel.ID {
	id := kernel.ID(v)
	return &id
}

func activeSector(id int64, name string) directory.Sector {
	return directory.Sector{ID: kernel.ID(id), Name: name, Active: true}
}

func personIn(id int64, name string, sectorID int64) directory.Person {
	return directory.Person{ID: kernel.ID(id), Name: name, SectorID: kernel.ID(sectorID)}
}

func sectorParticipant(id int64) kernel.Participant {
	p, err := kernel.NewSectorParticipant(kernel.ID(id))
	if err != nil {
		panic(err)
	}
	return p
}

func storedParcel(id int64, status parcel.Status) *parcel.Parcel {
	p, err := parcel.RestoreParcel(parcel.RestoreParams{
		ID:           kernel.ID(id),
		TrackingCode: "PRC-20260301-000050001200-123456",
		Description:  "contracts",
		Status:       status,
		Origin:       sectorParticipant(5),
		Destination:  sectorParticipant(12),
		CreatedAt:    testNow.Add(-time.Hour),
		UpdatedAt:    testNow.Add(-time.Hour),
	})
	if err != nil {
		panic(err)
	}
	return p
}

func linkedBag(id, parcelID int64) *bag.Bag {
	b, err := bag.RestoreBag(kernel.ID(id), "B-001", idPtr(parcelID), idPtr(5), idPtr(5), testNow)
	if err != nil {
		panic(err)
	}
	return b
}

func linkedSeal(id, parcelID int64) *seal.Seal {
	s, err := seal.RestoreSeal(kernel.ID(id), "S-001", kernel.ID(5), seal.Used, idPtr(parcelID), nil, testNow)
	if err != nil {
		panic(err)
	}
	return s
}
