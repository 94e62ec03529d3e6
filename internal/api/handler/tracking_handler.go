package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/ports"
)

// TrackingHandler exposes the sync service toggles.
type TrackingHandler struct {
	service ports.SyncService
}

func NewTrackingHandler(service ports.SyncService) *TrackingHandler {
	return &TrackingHandler{service: service}
}

// Status handles GET /v1/tracking.
//
// @Summary      Current live tracking status
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.SyncStatus
// @Failure      401  {object}  errorResponse
// @Router       /v1/tracking [get]
func (h *TrackingHandler) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, h.service.Status())
}

// SetLive handles PUT /v1/tracking/live, the master toggle. Enabling binds
// the service to the caller's session.
//
// @Summary      Turn live tracking on or off
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      toggleRequest  true  "Toggle"
// @Success      200   {object}  domain.SyncStatus
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tracking/live [put]
func (h *TrackingHandler) SetLive(c echo.Context) error {
	enabled, err := bindToggle(c)
	if err != nil {
		return err
	}
	session, err := h.authorize(c)
	if err != nil {
		return err
	}

	if !enabled {
		h.service.Disable()
		return c.JSON(http.StatusOK, h.service.Status())
	}
	return c.JSON(http.StatusOK, h.service.Enable(session))
}

// SetBroadcast handles PUT /v1/tracking/broadcast.
//
// @Summary      Turn position broadcasting on or off
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      toggleRequest  true  "Toggle"
// @Success      200   {object}  domain.SyncStatus
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tracking/broadcast [put]
func (h *TrackingHandler) SetBroadcast(c echo.Context) error {
	enabled, err := bindToggle(c)
	if err != nil {
		return err
	}
	if _, err := h.authorize(c); err != nil {
		return err
	}
	h.service.SetBroadcast(enabled)
	return c.JSON(http.StatusOK, h.service.Status())
}

// SetSimulation handles PUT /v1/tracking/simulation.
//
// @Summary      Turn the simulated cast on or off
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      toggleRequest  true  "Toggle"
// @Success      200   {object}  domain.SyncStatus
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tracking/simulation [put]
func (h *TrackingHandler) SetSimulation(c echo.Context) error {
	enabled, err := bindToggle(c)
	if err != nil {
		return err
	}
	if _, err := h.authorize(c); err != nil {
		return err
	}
	h.service.SetSimulation(enabled)
	return c.JSON(http.StatusOK, h.service.Status())
}

// SetStatus handles PUT /v1/tracking/status.
//
// @Summary      Change the status carried on outbound packets
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      statusRequest  true  "Status"
// @Success      200   {object}  domain.SyncStatus
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/tracking/status [put]
func (h *TrackingHandler) SetStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if _, err := h.authorize(c); err != nil {
		return err
	}
	if err := h.service.SetStatus(c.Request().Context(), domain.TrackerStatus(req.Status)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.service.Status())
}

// Presence handles GET /v1/presence.
//
// @Summary      Participants announced on the live topic
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  presenceResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/presence [get]
func (h *TrackingHandler) Presence(c echo.Context) error {
	list, err := h.service.Presence(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presenceResponse{Presence: list, Count: len(list)})
}

// authorize returns the caller's session. While tracking is live only the
// account that enabled it may change the toggles. Accounts are compared by
// user id since display names are not unique.
func (h *TrackingHandler) authorize(c echo.Context) (domain.Session, error) {
	session, err := ctxSession(c)
	if err != nil {
		return domain.Session{}, err
	}
	current := h.service.Status()
	if current.Toggles.Live && current.OwnerID != session.UserID {
		return domain.Session{}, domain.ErrSessionActive
	}
	return session, nil
}

func bindToggle(c echo.Context) (bool, error) {
	var req toggleRequest
	if err := c.Bind(&req); err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return false, echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return *req.Enabled, nil
}
