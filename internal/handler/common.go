// Package handler contains the HTTP layer.  Handlers bind request bodies
// into anonymous structs, call the service layer, and translate sentinel
// errors into status codes.  They hold no business rules of their own.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/model"
)

// respondErr maps a service error onto an HTTP response.  Unknown errors
// become an opaque 500 so internals never leak to clients.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, model.ErrFilmNotFound),
		errors.Is(err, model.ErrRoomNotFound),
		errors.Is(err, model.ErrScreeningNotFound),
		errors.Is(err, model.ErrReservationNotFound),
		errors.Is(err, model.ErrCustomerNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrScheduleConflict),
		errors.Is(err, model.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrInvalidOperation),
		errors.Is(err, model.ErrInvalidTransition):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// pathID parses the :id route parameter.
func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// getStaffID extracts the authenticated staff ID stored by the auth
// middleware.
func getStaffID(c echo.Context) (uint64, error) {
	switch t := c.Get("staff_id").(type) {
	case uint64:
		return t, nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid staff_id in context")
}
