package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/model"
	"github.com/kinohub/cinema-scheduling/internal/service"
)

// CreateRoom handles POST /v1/rooms.
func (h *ScheduleHandler) CreateRoom(c echo.Context) error {
	var body struct {
		Number           uint32 `json:"number"`
		Name             string `json:"name"`
		Type             string `json:"type"`
		Rows             uint32 `json:"rows"`
		SeatsPerRow      uint32 `json:"seats_per_row"`
		SurchargeCents   int64  `json:"surcharge_cents"`
		DolbyAtmos       bool   `json:"dolby_atmos"`
		WheelchairAccess bool   `json:"wheelchair_access"`
		Notes            string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	room, err := h.sched.CreateRoom(c.Request().Context(), service.RoomInput{
		Number:           body.Number,
		Name:             body.Name,
		Type:             model.RoomType(body.Type),
		Rows:             body.Rows,
		SeatsPerRow:      body.SeatsPerRow,
		SurchargeCents:   body.SurchargeCents,
		DolbyAtmos:       body.DolbyAtmos,
		WheelchairAccess: body.WheelchairAccess,
		Notes:            body.Notes,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, room)
}

// GetRoom handles GET /v1/rooms/:id.
func (h *ScheduleHandler) GetRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	room, err := h.sched.GetRoom(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// ListRooms handles GET /v1/rooms.
func (h *ScheduleHandler) ListRooms(c echo.Context) error {
	rooms, err := h.sched.ListRooms(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, rooms)
}

// UpdateRoom handles PATCH /v1/rooms/:id.  Structural fields (number,
// name, type, layout) are frozen while the room has active future
// screenings; such a patch is refused outright.
func (h *ScheduleHandler) UpdateRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Number           *uint32 `json:"number"`
		Name             *string `json:"name"`
		Type             *string `json:"type"`
		Rows             *uint32 `json:"rows"`
		SeatsPerRow      *uint32 `json:"seats_per_row"`
		SurchargeCents   *int64  `json:"surcharge_cents"`
		Active           *bool   `json:"active"`
		DolbyAtmos       *bool   `json:"dolby_atmos"`
		WheelchairAccess *bool   `json:"wheelchair_access"`
		Notes            *string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	patch := service.RoomPatch{
		Number:           body.Number,
		Name:             body.Name,
		Rows:             body.Rows,
		SeatsPerRow:      body.SeatsPerRow,
		SurchargeCents:   body.SurchargeCents,
		Active:           body.Active,
		DolbyAtmos:       body.DolbyAtmos,
		WheelchairAccess: body.WheelchairAccess,
		Notes:            body.Notes,
	}
	if body.Type != nil {
		t := model.RoomType(*body.Type)
		patch.Type = &t
	}
	room, err := h.sched.UpdateRoom(c.Request().Context(), id, patch)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// DeleteRoom handles DELETE /v1/rooms/:id with the same tagged outcome as
// film deletion.
func (h *ScheduleHandler) DeleteRoom(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	out, err := h.sched.DeleteRoom(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
