package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "parcels/internal/adapters/in/http"
	"parcels/internal/adapters/out/broadcast/sse"
	"parcels/internal/adapters/out/postgres/schema"
	"parcels/internal/core/application/usecases/commands"
	"parcels/internal/core/application/usecases/queries"
	"parcels/internal/core/domain/model/kernel"
	"parcels/internal/core/domain/model/parcel"
	"parcels/internal/generated/servers"
	"parcels/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCreateParcelHandler struct{ mock.Mock }

func (m *MockCreateParcelHandler) Handle(ctx context.Context, cmd commands.CreateParcelCommand) (commands.CreateParcelResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CreateParcelResult), args.Error(1)
}

type MockWizardHandler struct{ mock.Mock }

func (m *MockWizardHandler) Handle(ctx context.Context, cmd commands.CreateParcelFromWizardCommand) (commands.CreateParcelResult, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(commands.CreateParcelResult), args.Error(1)
}

type MockUpdateParcelHandler struct{ mock.Mock }

func (m *MockUpdateParcelHandler) Handle(ctx context.Context, cmd commands.UpdateParcelCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockConfirmReceiptHandler struct{ mock.Mock }

func (m *MockConfirmReceiptHandler) Handle(ctx context.Context, cmd commands.ConfirmReceiptCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockDeleteParcelHandler struct{ mock.Mock }

func (m *MockDeleteParcelHandler) Handle(ctx context.Context, cmd commands.DeleteParcelCommand) error {
	return m.Called(ctx, cmd).Error(0)
}

type MockGetParcelHandler struct{ mock.Mock }

func (m *MockGetParcelHandler) Handle(ctx context.Context, query queries.GetParcelQuery) (queries.GetParcelQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetParcelQueryResponse), args.Error(1)
}

type MockGetParcelStatsHandler struct{ mock.Mock }

func (m *MockGetParcelStatsHandler) Handle(ctx context.Context, query queries.GetParcelStatsQuery) (queries.GetParcelStatsQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetParcelStatsQueryResponse), args.Error(1)
}

type MockRecipientNotificationsHandler struct{ mock.Mock }

func (m *MockRecipientNotificationsHandler) Handle(
	ctx context.Context,
	query queries.GetRecipientNotificationsQuery,
) (queries.GetRecipientNotificationsQueryResponse, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(queries.GetRecipientNotificationsQueryResponse), args.Error(1)
}

type MockSchemaReloader struct{ mock.Mock }

func (m *MockSchemaReloader) Reload(ctx context.Context) (*schema.Snapshot, error) {
	args := m.Called(ctx)
	snapshot, _ := args.Get(0).(*schema.Snapshot)
	return snapshot, args.Error(1)
}

type fixture struct {
	create  *MockCreateParcelHandler
	wizard  *MockWizardHandler
	update  *MockUpdateParcelHandler
	confirm *MockConfirmReceiptHandler
	remove  *MockDeleteParcelHandler
	get     *MockGetParcelHandler
	stats   *MockGetParcelStatsHandler
	notices *MockRecipientNotificationsHandler
	reload  *MockSchemaReloader
	hub     *sse.Hub
	router  *echo.Echo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{
		create:  &MockCreateParcelHandler{},
		wizard:  &MockWizardHandler{},
		update:  &MockUpdateParcelHandler{},
		confirm: &MockConfirmReceiptHandler{},
		remove:  &MockDeleteParcelHandler{},
		get:     &MockGetParcelHandler{},
		stats:   &MockGetParcelStatsHandler{},
		notices: &MockRecipientNotificationsHandler{},
		reload:  &MockSchemaReloader{},
		hub:     sse.NewHub(sse.Options{Heartbeat: time.Hour}, logger),
	}
	t.Cleanup(f.hub.Close)

	server := httpadapter.NewServer(httpadapter.Handlers{
		CreateParcel:              f.create,
		CreateParcelFromWizard:    f.wizard,
		UpdateParcel:              f.update,
		ConfirmReceipt:            f.confirm,
		DeleteParcel:              f.remove,
		GetParcel:                 f.get,
		GetParcelStats:            f.stats,
		GetRecipientNotifications: f.notices,
	}, f.hub, f.reload, httpadapter.Options{StreamWriteTimeout: time.Second}, logger)

	router, err := httpadapter.NewRouter(server, logger)
	require.NoError(t, err)
	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequestWithContext(t.Context(), method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) servers.Error {
	t.Helper()
	var body servers.Error
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func storedView(id kernel.ID, status parcel.Status) queries.GetParcelQueryResponse {
	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return queries.GetParcelQueryResponse{
		ID:           id,
		TrackingCode: "PRC-20260314-0000500012-000042",
		Description:  "signed contracts",
		Status:       status,
		Origin:       queries.ParticipantView{SectorID: 5, SectorName: "Legal"},
		Destination:  queries.ParticipantView{SectorID: 12, SectorName: "Finance"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}

func TestCreateParcel_Created(t *testing.T) {
	f := newFixture(t)
	hub := kernel.ID(3)
	f.create.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateParcelCommand) bool {
		return cmd.Description() == "signed contracts" &&
			*cmd.Origin().SectorID == 5 &&
			cmd.Destination().PersonID != nil && *cmd.Destination().PersonID == 40 &&
			cmd.Urgent()
	})).Return(commands.CreateParcelResult{
		ID:             77,
		TrackingCode:   "PRC-20260314-0000500012-000042",
		Barcode:        "PRC-20260314-0000500012-000042",
		RoutingPayload: `{"trackingCode":"PRC-20260314-0000500012-000042"}`,
		Status:         parcel.Pending,
		HubRequired:    true,
		HubSectorID:    &hub,
	}, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/parcels",
		`{"origin":{"sectorId":5},"destination":{"personId":40},"description":"signed contracts","urgent":true}`, nil)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body servers.CreatedParcel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(77), body.Id)
	assert.Equal(t, servers.ParcelStatusPending, body.Status)
	assert.True(t, body.HubRequired)
	require.NotNil(t, body.HubSectorId)
	assert.Equal(t, int64(3), *body.HubSectorId)
	f.create.AssertExpectations(t)
}

func TestCreateParcel_RejectedByDocument(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/parcels", `{"origin":{"sectorId":5},"destination":{"sectorId":12}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Message, "request body")
	f.create.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestCreateParcel_UnknownSector(t *testing.T) {
	f := newFixture(t)
	f.create.On("Handle", mock.Anything, mock.Anything).
		Return(commands.CreateParcelResult{}, errs.NewObjectNotFoundError("sector", kernel.ID(99)))

	rec := f.do(t, http.MethodPost, "/api/v1/parcels",
		`{"origin":{"sectorId":99},"destination":{"sectorId":12},"description":"x"}`, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decodeError(t, rec).Code)
}

func TestCreateParcel_PersistenceFailureHidesDetails(t *testing.T) {
	f := newFixture(t)
	f.create.On("Handle", mock.Anything, mock.Anything).
		Return(commands.CreateParcelResult{}, errs.NewPersistenceError("insert parcel", "23514", errors.New("check violated")))

	rec := f.do(t, http.MethodPost, "/api/v1/parcels",
		`{"origin":{"sectorId":5},"destination":{"sectorId":12},"description":"x"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Internal server error", body.Message)
	require.NotNil(t, body.SqlState)
	assert.Equal(t, "23514", *body.SqlState)
	require.NotNil(t, body.TraceId)
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), *body.TraceId)
}

func TestCreateParcelFromWizard_PassesNames(t *testing.T) {
	f := newFixture(t)
	f.wizard.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.CreateParcelFromWizardCommand) bool {
		p := cmd.Params()
		return p.Origin.PersonName == "Ana Souza" && p.Destination.SectorName == "Finance"
	})).Return(commands.CreateParcelResult{ID: 8, TrackingCode: "T", Barcode: "T", Status: parcel.Pending}, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/parcels/wizard",
		`{"origin":{"personName":"Ana Souza"},"destination":{"sectorName":"Finance"},"description":"x"}`, nil)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	f.wizard.AssertExpectations(t)
}

func TestGetParcel(t *testing.T) {
	f := newFixture(t)
	f.get.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetParcelQuery) bool {
		return q.ParcelID() == 77
	})).Return(storedView(77, parcel.InTransit), nil)

	rec := f.do(t, http.MethodGet, "/api/v1/parcels/77", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body servers.Parcel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, servers.ParcelStatusInTransit, body.Status)
	assert.Equal(t, "Legal", body.Origin.SectorName)
	assert.Nil(t, body.SealCode)
}

func TestGetParcel_InvalidID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/parcels/0", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.get.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestUpdateParcel_ReturnsFreshView(t *testing.T) {
	f := newFixture(t)
	f.update.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.UpdateParcelCommand) bool {
		patch := cmd.Patch()
		return cmd.ParcelID() == 77 && patch.Status != nil && *patch.Status == parcel.Delivered
	})).Return(nil)
	f.get.On("Handle", mock.Anything, mock.Anything).Return(storedView(77, parcel.Delivered), nil)

	rec := f.do(t, http.MethodPut, "/api/v1/parcels/77", `{"status":"delivered"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body servers.Parcel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, servers.ParcelStatusDelivered, body.Status)
}

func TestUpdateParcel_EmptyPatch(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/api/v1/parcels/77", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.update.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestConfirmReceipt_Terminal(t *testing.T) {
	f := newFixture(t)
	f.confirm.On("Handle", mock.Anything, mock.Anything).
		Return(errs.NewValueIsInvalidErrorWithCause("status", errors.New("parcel is delivered")))

	rec := f.do(t, http.MethodPut, "/api/v1/parcels/77/confirm-receipt", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.get.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestDeleteParcel(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "deleted", wantStatus: http.StatusOK},
		{name: "permission denied", err: errs.NewPermissionDeniedError("delete parcel", "CLERK"), wantStatus: http.StatusForbidden},
		{name: "not found", err: errs.NewObjectNotFoundError("parcel", kernel.ID(77)), wantStatus: http.StatusNotFound},
		{name: "conflict", err: errs.NewConflictError("parcel", kernel.ID(77), "still referenced"), wantStatus: http.StatusConflict},
		{name: "locked", err: errs.NewResourceBusyError("parcel", kernel.ID(77), nil), wantStatus: http.StatusLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.remove.On("Handle", mock.Anything, mock.MatchedBy(func(cmd commands.DeleteParcelCommand) bool {
				return cmd.ParcelID() == 77 && cmd.Caller().Role == "ADMIN" && cmd.Caller().UserID == "u-1"
			})).Return(tt.err)

			rec := f.do(t, http.MethodDelete, "/api/v1/parcels/77", "",
				map[string]string{"X-User-Id": "u-1", "X-User-Role": " ADMIN "})

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.err == nil {
				var body servers.DeletedParcel
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, servers.DeletedParcel{Id: 77, Deleted: true}, body)
			}
		})
	}
}

func TestGetParcelStats(t *testing.T) {
	f := newFixture(t)
	f.stats.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetParcelStatsQuery) bool {
		return q.Validate() == nil && q.DayStart().Hour() == 0
	})).Return(queries.GetParcelStatsQueryResponse{Total: 5, Pending: 2, InTransit: 1, Delivered: 2, Urgent: 1}, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/stats/parcels", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body servers.ParcelStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, servers.ParcelStats{Total: 5, Pending: 2, InTransit: 1, Delivered: 2, Urgent: 1}, body)
}

func TestGetRecipientNotifications(t *testing.T) {
	f := newFixture(t)
	createdAt := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	f.notices.On("Handle", mock.Anything, mock.MatchedBy(func(q queries.GetRecipientNotificationsQuery) bool {
		return q.Validate() == nil && q.PersonID() == 41
	})).Return(queries.GetRecipientNotificationsQueryResponse{
		Notifications: []queries.RecipientNotification{
			{
				ID: 2, TrackingCode: "T2", Description: "contracts", Status: parcel.InTransit,
				StatusLiteral: "in_transit", CreatedAt: createdAt, Urgent: true,
				SenderName: "Ana Souza", SenderRegistration: "M-0017", OriginSectorName: "Legal",
			},
			{
				ID: 6, TrackingCode: "T6", Description: "archive", Status: parcel.Unknown,
				StatusLiteral: "LOST", CreatedAt: createdAt, OriginSectorName: "Legal",
			},
		},
		Count: 2,
	}, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/people/41/notifications", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body servers.RecipientNotifications
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)
	require.Len(t, body.Data, 2)

	first := body.Data[0]
	assert.EqualValues(t, 2, first.Id)
	assert.Equal(t, "in_transit", first.Status)
	assert.True(t, first.Urgent)
	require.NotNil(t, first.SenderRegistration)
	assert.Equal(t, "M-0017", *first.SenderRegistration)
	assert.True(t, createdAt.Equal(first.CreatedAt))

	assert.Equal(t, "LOST", body.Data[1].Status)
	assert.Nil(t, body.Data[1].SenderName)
}

func TestGetRecipientNotifications_EmptyFeed(t *testing.T) {
	f := newFixture(t)
	f.notices.On("Handle", mock.Anything, mock.Anything).
		Return(queries.GetRecipientNotificationsQueryResponse{Notifications: []queries.RecipientNotification{}}, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/people/41/notifications", "", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":[],"count":0}`, rec.Body.String())
}

func TestGetRecipientNotifications_InvalidID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/people/abc/notifications", "", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	f.notices.AssertNotCalled(t, "Handle", mock.Anything, mock.Anything)
}

func TestReloadSchema_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/schema/reload", "", map[string]string{"X-User-Role": "CLERK"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	f.reload.AssertNotCalled(t, "Reload", mock.Anything)
}

func TestReloadSchema_ReturnsCapabilities(t *testing.T) {
	f := newFixture(t)
	columns := make([]schema.Column, 0)
	for _, name := range schema.MandatoryColumns() {
		columns = append(columns, schema.Column{Name: name, DataType: "text"})
	}
	columns = append(columns, schema.Column{Name: "notes", DataType: "text"})
	snapshot, err := schema.NewSnapshot(4, "parcels", columns, true, time.Now())
	require.NoError(t, err)
	f.reload.On("Reload", mock.Anything).Return(snapshot, nil)

	rec := f.do(t, http.MethodPost, "/api/v1/admin/schema/reload", "", map[string]string{"X-User-Role": "administrator"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body servers.SchemaCapabilities
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(4), body.Version)
	require.NotNil(t, body.DescriptionColumn)
	assert.Equal(t, "notes", *body.DescriptionColumn)
	assert.True(t, body.HasEventsTable)
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStreamParcelEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events/parcels", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "retry: 5000\n", line)

	require.Eventually(t, func() bool { return f.hub.Count() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, f.hub.Broadcast(ctx, "created", map[string]any{"id": 77}))

	var frame []string
	for len(frame) < 2 {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			frame = append(frame, line)
		}
	}
	assert.Equal(t, []string{"event: created", `data: {"id":77}`}, frame)

	cancel()
	require.Eventually(t, func() bool { return f.hub.Count() == 0 }, time.Second, 10*time.Millisecond)
}
