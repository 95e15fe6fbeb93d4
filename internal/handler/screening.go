package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/service"
)

// CreateScreening handles POST /v1/screenings.  The end time is derived
// from the film runtime plus the cleanup buffer and never accepted from
// the client.
func (h *ScheduleHandler) CreateScreening(c echo.Context) error {
	var body struct {
		FilmID         uint64    `json:"film_id"`
		RoomID         uint64    `json:"room_id"`
		StartsAt       time.Time `json:"starts_at"`
		BasePriceCents int64     `json:"base_price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.StartsAt.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at is required"})
	}
	sc, err := h.sched.CreateScreening(c.Request().Context(), service.CreateScreeningInput{
		FilmID:         body.FilmID,
		RoomID:         body.RoomID,
		StartsAt:       body.StartsAt,
		BasePriceCents: body.BasePriceCents,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, sc)
}

// GetScreening handles GET /v1/screenings/:id.
func (h *ScheduleHandler) GetScreening(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	sc, err := h.sched.GetScreening(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, sc)
}

// ListScreenings handles GET /v1/screenings, optionally filtered by
// ?room_id=.
func (h *ScheduleHandler) ListScreenings(c echo.Context) error {
	var roomID uint64
	if raw := c.QueryParam("room_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
		}
		roomID = n
	}
	scs, err := h.sched.ListScreenings(c.Request().Context(), roomID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, scs)
}

// FindConflicts handles GET /v1/screenings/conflicts.  It previews which
// active screenings in a room overlap the given half-open window without
// writing anything.  Query: room_id, starts_at, ends_at (RFC 3339) and an
// optional exclude_id.
func (h *ScheduleHandler) FindConflicts(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.QueryParam("room_id"), 10, 64)
	if err != nil || roomID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_id"})
	}
	start, err := time.Parse(time.RFC3339, c.QueryParam("starts_at"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid starts_at"})
	}
	end, err := time.Parse(time.RFC3339, c.QueryParam("ends_at"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ends_at"})
	}
	if !start.Before(end) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must precede ends_at"})
	}
	var excludeID uint64
	if raw := c.QueryParam("exclude_id"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid exclude_id"})
		}
		excludeID = n
	}
	hits, err := h.sched.FindConflicts(c.Request().Context(), roomID, start.UTC(), end.UTC(), excludeID)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"conflicts": hits, "count": len(hits)})
}

// UpdateScreening handles PATCH /v1/screenings/:id.  Once confirmed
// reservations exist only active and base_price_cents are honored; other
// patched fields are dropped.
func (h *ScheduleHandler) UpdateScreening(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		FilmID         *uint64    `json:"film_id"`
		RoomID         *uint64    `json:"room_id"`
		StartsAt       *time.Time `json:"starts_at"`
		BasePriceCents *int64     `json:"base_price_cents"`
		Active         *bool      `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	sc, err := h.sched.UpdateScreening(c.Request().Context(), id, service.ScreeningPatch{
		FilmID:         body.FilmID,
		RoomID:         body.RoomID,
		StartsAt:       body.StartsAt,
		BasePriceCents: body.BasePriceCents,
		Active:         body.Active,
	})
	if err != nil {
		return respondErr(c, err)
	}
	// A room or status change shifts capacity, so the cached availability
	// for this screening is stale.
	h.cache.Invalidate(c.Request().Context(), id)
	return c.JSON(http.StatusOK, sc)
}

// DeleteScreening handles DELETE /v1/screenings/:id.  Refused while
// confirmed or paid reservations exist; otherwise the screening and its
// remaining reservations are removed.
func (h *ScheduleHandler) DeleteScreening(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if err := h.sched.DeleteScreening(c.Request().Context(), id); err != nil {
		return respondErr(c, err)
	}
	h.cache.Invalidate(c.Request().Context(), id)
	return c.NoContent(http.StatusNoContent)
}
