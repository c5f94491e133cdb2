package servers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// Reload the parcel table capabilities
	// (POST /api/v1/admin/schema/reload)
	ReloadSchema(ctx echo.Context, params ReloadSchemaParams) error
	// Server-Sent Events stream of parcel changes
	// (GET /api/v1/events/parcels)
	StreamParcelEvents(ctx echo.Context) error
	// Create a parcel
	// (POST /api/v1/parcels)
	CreateParcel(ctx echo.Context) error
	// Create a parcel from the guided form, resolving people and sectors by name
	// (POST /api/v1/parcels/wizard)
	CreateParcelFromWizard(ctx echo.Context) error
	// Delete a parcel and release everything linked to it
	// (DELETE /api/v1/parcels/{id})
	DeleteParcel(ctx echo.Context, id ParcelId, params DeleteParcelParams) error
	// Read a parcel
	// (GET /api/v1/parcels/{id})
	GetParcel(ctx echo.Context, id ParcelId) error
	// Partially update a parcel
	// (PUT /api/v1/parcels/{id})
	UpdateParcel(ctx echo.Context, id ParcelId) error
	// Confirm that the recipient received the parcel
	// (PUT /api/v1/parcels/{id}/confirm-receipt)
	ConfirmReceipt(ctx echo.Context, id ParcelId) error
	// Parcel counters by status
	// (GET /api/v1/stats/parcels)
	GetParcelStats(ctx echo.Context) error
	// Open parcels addressed to a person, newest first
	// (GET /api/v1/people/{id}/notifications)
	GetRecipientNotifications(ctx echo.Context, id PersonId) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

// ReloadSchema converts echo context to params.
func (w *ServerInterfaceWrapper) ReloadSchema(ctx echo.Context) error {
	var params ReloadSchemaParams
	var err error

	if params.XUserId, err = optionalHeader(ctx, "X-User-Id"); err != nil {
		return err
	}
	if params.XUserRole, err = optionalHeader(ctx, "X-User-Role"); err != nil {
		return err
	}

	return w.Handler.ReloadSchema(ctx, params)
}

// StreamParcelEvents converts echo context to params.
func (w *ServerInterfaceWrapper) StreamParcelEvents(ctx echo.Context) error {
	return w.Handler.StreamParcelEvents(ctx)
}

// CreateParcel converts echo context to params.
func (w *ServerInterfaceWrapper) CreateParcel(ctx echo.Context) error {
	return w.Handler.CreateParcel(ctx)
}

// CreateParcelFromWizard converts echo context to params.
func (w *ServerInterfaceWrapper) CreateParcelFromWizard(ctx echo.Context) error {
	return w.Handler.CreateParcelFromWizard(ctx)
}

// DeleteParcel converts echo context to params.
func (w *ServerInterfaceWrapper) DeleteParcel(ctx echo.Context) error {
	id, err := parcelID(ctx)
	if err != nil {
		return err
	}

	var params DeleteParcelParams
	if params.XUserId, err = optionalHeader(ctx, "X-User-Id"); err != nil {
		return err
	}
	if params.XUserRole, err = optionalHeader(ctx, "X-User-Role"); err != nil {
		return err
	}

	return w.Handler.DeleteParcel(ctx, id, params)
}

// GetParcel converts echo context to params.
func (w *ServerInterfaceWrapper) GetParcel(ctx echo.Context) error {
	id, err := parcelID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetParcel(ctx, id)
}

// UpdateParcel converts echo context to params.
func (w *ServerInterfaceWrapper) UpdateParcel(ctx echo.Context) error {
	id, err := parcelID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateParcel(ctx, id)
}

// ConfirmReceipt converts echo context to params.
func (w *ServerInterfaceWrapper) ConfirmReceipt(ctx echo.Context) error {
	id, err := parcelID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.ConfirmReceipt(ctx, id)
}

// GetParcelStats converts echo context to params.
func (w *ServerInterfaceWrapper) GetParcelStats(ctx echo.Context) error {
	return w.Handler.GetParcelStats(ctx)
}

// GetRecipientNotifications converts echo context to params.
func (w *ServerInterfaceWrapper) GetRecipientNotifications(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetRecipientNotifications(ctx, id)
}

func parcelID(ctx echo.Context) (ParcelId, error) {
	return pathID(ctx)
}

func pathID(ctx echo.Context) (int64, error) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}
	return id, nil
}

func optionalHeader(ctx echo.Context, name string) (*string, error) {
	values, found := ctx.Request().Header[http.CanonicalHeaderKey(name)]
	if !found {
		return nil, nil
	}
	if n := len(values); n != 1 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Expected one value for %s, got %d", name, n))
	}

	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, values[0], &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationHeader, Explode: false, Required: false})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return &value, nil
}

// EchoRouter is the subset of echo used to register routes. Both *echo.Echo
// and *echo.Group implement it.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// RegisterHandlers adds each server route to the EchoRouter.
func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

// RegisterHandlersWithBaseURL registers the handlers with a path prefix so
// the API can be mounted behind a proxy path.
func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
	}

	router.POST(baseURL+"/api/v1/admin/schema/reload", wrapper.ReloadSchema)
	router.GET(baseURL+"/api/v1/events/parcels", wrapper.StreamParcelEvents)
	router.POST(baseURL+"/api/v1/parcels", wrapper.CreateParcel)
	router.POST(baseURL+"/api/v1/parcels/wizard", wrapper.CreateParcelFromWizard)
	router.DELETE(baseURL+"/api/v1/parcels/:id", wrapper.DeleteParcel)
	router.GET(baseURL+"/api/v1/parcels/:id", wrapper.GetParcel)
	router.PUT(baseURL+"/api/v1/parcels/:id", wrapper.UpdateParcel)
	router.PUT(baseURL+"/api/v1/parcels/:id/confirm-receipt", wrapper.ConfirmReceipt)
	router.GET(baseURL+"/api/v1/stats/parcels", wrapper.GetParcelStats)
	router.GET(baseURL+"/api/v1/people/:id/notifications", wrapper.GetRecipientNotifications)
}
