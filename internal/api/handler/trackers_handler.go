package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/terrasight/tracker-sync/internal/core/domain"
	"github.com/terrasight/tracker-sync/internal/core/motion"
	"github.com/terrasight/tracker-sync/internal/core/ports"
)

const (
	defaultLogLimit = 100
	maxLogLimit     = 1000
)

// TrackerStore is the registry view served to monitors.
type TrackerStore interface {
	Snapshot() []domain.TrackerState
	Get(userID string) (domain.TrackerState, bool)
	Remove(userID string)
	Clear()
}

// FrameSource produces interpolated positions for the stream.
type FrameSource interface {
	Frame(now time.Time) []motion.Frame
	Forget(userID string)
	Reset()
}

// TrackersHandler serves the registry, the smoothed stream and the durable
// history to monitors.
type TrackersHandler struct {
	store         TrackerStore
	frames        FrameSource
	logs          ports.TrackerLogRepository
	frameInterval time.Duration
	now           func() time.Time
}

// NewTrackersHandler streams frames frameRate times per second.
func NewTrackersHandler(store TrackerStore, frames FrameSource, logs ports.TrackerLogRepository, frameRate int) *TrackersHandler {
	if frameRate <= 0 {
		frameRate = 30
	}
	return &TrackersHandler{
		store:         store,
		frames:        frames,
		logs:          logs,
		frameInterval: time.Second / time.Duration(frameRate),
		now:           time.Now,
	}
}

// List handles GET /v1/trackers.
//
// @Summary      List every tracker in the registry
// @Tags         trackers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  trackerListResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/trackers [get]
func (h *TrackersHandler) List(c echo.Context) error {
	states := h.store.Snapshot()
	return c.JSON(http.StatusOK, trackerListResponse{Trackers: states, Count: len(states)})
}

// Get handles GET /v1/trackers/:user_id.
//
// @Summary      Get one tracker
// @Tags         trackers
// @Produce      json
// @Security     BearerAuth
// @Param        user_id  path      string  true  "Tracker identity"
// @Success      200      {object}  domain.TrackerState
// @Failure      404      {object}  errorResponse
// @Router       /v1/trackers/{user_id} [get]
func (h *TrackersHandler) Get(c echo.Context) error {
	state, ok := h.store.Get(c.Param("user_id"))
	if !ok {
		return domain.ErrTrackerNotFound
	}
	return c.JSON(http.StatusOK, state)
}

// Remove handles DELETE /v1/trackers/:user_id. Removing an unknown
// identity succeeds.
//
// @Summary      Drop one tracker
// @Tags         trackers
// @Security     BearerAuth
// @Param        user_id  path  string  true  "Tracker identity"
// @Success      204
// @Router       /v1/trackers/{user_id} [delete]
func (h *TrackersHandler) Remove(c echo.Context) error {
	id := c.Param("user_id")
	h.store.Remove(id)
	h.frames.Forget(id)
	return c.NoContent(http.StatusNoContent)
}

// Clear handles DELETE /v1/trackers.
//
// @Summary      Drop every tracker
// @Tags         trackers
// @Security     BearerAuth
// @Success      204
// @Router       /v1/trackers [delete]
func (h *TrackersHandler) Clear(c echo.Context) error {
	h.store.Clear()
	h.frames.Reset()
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/trackers/stream. It writes one server-sent
// "frame" event per tick until the client goes away.
//
// @Summary      Stream interpolated tracker positions
// @Tags         trackers
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200  {array}  motion.Frame
// @Router       /v1/trackers/stream [get]
func (h *TrackersHandler) Stream(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	ticker := time.NewTicker(h.frameInterval)
	defer ticker.Stop()

	for seq := 0; ; seq++ {
		if err := h.writeFrame(res, seq); err != nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (h *TrackersHandler) writeFrame(res *echo.Response, seq int) error {
	payload, err := json.Marshal(h.frames.Frame(h.now()))
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "id: %d\nevent: frame\ndata: %s\n\n", seq, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// Logs handles GET /v1/logs/:identity.
//
// @Summary      Durable position history of one identity
// @Tags         trackers
// @Produce      json
// @Security     BearerAuth
// @Param        identity  path      string  true   "Identity"
// @Param        since     query     string  false  "RFC 3339 lower bound (exclusive)"
// @Param        limit     query     int     false  "Maximum rows (default 100, max 1000)"
// @Success      200       {object}  logListResponse
// @Failure      400       {object}  errorResponse
// @Router       /v1/logs/{identity} [get]
func (h *TrackersHandler) Logs(c echo.Context) error {
	identity := c.Param("identity")

	var since time.Time
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "since must be an RFC 3339 timestamp")
		}
		since = t
	}

	limit := defaultLogLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = min(n, maxLogLimit)
	}

	rows, err := h.logs.FindByIdentity(c.Request().Context(), identity, since, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, logListResponse{Identity: identity, Logs: rows, Count: len(rows)})
}
