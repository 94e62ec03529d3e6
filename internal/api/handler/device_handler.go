package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
)

// LocationPublisher is the device-side end of the location source.
type LocationPublisher interface {
	Publish(fix domain.LocationFix) int
	ReportError(err error)
}

// DeviceHandler accepts fixes and geolocation failures from the device.
type DeviceHandler struct {
	locations LocationPublisher
}

func NewDeviceHandler(locations LocationPublisher) *DeviceHandler {
	return &DeviceHandler{locations: locations}
}

// Location handles POST /v1/device/location. The fix is handed to any
// active location watch; with none the fix is dropped, as a device would
// when nobody is listening.
//
// @Summary      Report one device location fix
// @Tags         device
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      locationFixRequest  true  "Location fix"
// @Success      202   {object}  acceptedResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/device/location [post]
func (h *DeviceHandler) Location(c echo.Context) error {
	var req locationFixRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	n := h.locations.Publish(req.toFix())
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "fix accepted", Watchers: n})
}

// LocationError handles POST /v1/device/location/error.
//
// @Summary      Report a geolocation failure
// @Tags         device
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      locationErrorRequest  true  "Failure"
// @Success      202   {object}  acceptedResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/device/location/error [post]
func (h *DeviceHandler) LocationError(c echo.Context) error {
	var req locationErrorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	err := errors.New(req.Message)
	if req.Code != 0 {
		err = fmt.Errorf("geolocation error %d: %s", req.Code, req.Message)
	}
	h.locations.ReportError(err)
	return c.JSON(http.StatusAccepted, acceptedResponse{Message: "error reported"})
}
