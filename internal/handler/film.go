package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/service"
)

// ScheduleHandler exposes the staff-facing catalog and scheduling
// endpoints: films, rooms and screenings.
type ScheduleHandler struct {
	sched *service.SchedulingService
	cache *AvailabilityCache
}

// NewScheduleHandler wires the scheduling service; the cache may be nil.
func NewScheduleHandler(sched *service.SchedulingService, cache *AvailabilityCache) *ScheduleHandler {
	if sched == nil {
		panic("nil scheduling service passed to NewScheduleHandler")
	}
	return &ScheduleHandler{sched: sched, cache: cache}
}

// CreateFilm handles POST /v1/films.
func (h *ScheduleHandler) CreateFilm(c echo.Context) error {
	var body struct {
		Title           string `json:"title"`
		DurationMinutes int    `json:"duration_minutes"`
		Rating          string `json:"rating"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	film, err := h.sched.CreateFilm(c.Request().Context(), service.FilmInput{
		Title:           body.Title,
		DurationMinutes: body.DurationMinutes,
		Rating:          body.Rating,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusCreated, film)
}

// GetFilm handles GET /v1/films/:id.
func (h *ScheduleHandler) GetFilm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	film, err := h.sched.GetFilm(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, film)
}

// ListFilms handles GET /v1/films.
func (h *ScheduleHandler) ListFilms(c echo.Context) error {
	films, err := h.sched.ListFilms(c.Request().Context())
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, films)
}

// UpdateFilm handles PATCH /v1/films/:id.  Absent fields are left alone.
func (h *ScheduleHandler) UpdateFilm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Title           *string `json:"title"`
		DurationMinutes *int    `json:"duration_minutes"`
		Rating          *string `json:"rating"`
		Active          *bool   `json:"active"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	film, err := h.sched.UpdateFilm(c.Request().Context(), id, service.FilmPatch{
		Title:           body.Title,
		DurationMinutes: body.DurationMinutes,
		Rating:          body.Rating,
		Active:          body.Active,
	})
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, film)
}

// DeleteFilm handles DELETE /v1/films/:id.  A film that was never
// scheduled is removed; one with screenings is deactivated, and the
// response says which happened.
func (h *ScheduleHandler) DeleteFilm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	out, err := h.sched.DeleteFilm(c.Request().Context(), id)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
