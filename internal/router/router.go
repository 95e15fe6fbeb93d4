// Package router maps HTTP routes onto handlers.  Browse endpoints are
// public; every mutating endpoint sits behind staff authentication.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/kinohub/cinema-scheduling/internal/handler"
	"github.com/kinohub/cinema-scheduling/internal/middleware"
)

// RegisterRoutes wires every endpoint on the Echo instance.
func RegisterRoutes(e *echo.Echo, auth *handler.AuthHandler, sched *handler.ScheduleHandler, resv *handler.ReservationHandler, jwtSecret string) {
	e.GET("/healthz", handler.Health)

	e.POST("/v1/auth/login", auth.Login)

	// Public browse endpoints: the programme, the rooms, and live seat
	// availability.  Customers also look up their own reservation by code.
	e.GET("/v1/films", sched.ListFilms)
	e.GET("/v1/films/:id", sched.GetFilm)
	e.GET("/v1/rooms", sched.ListRooms)
	e.GET("/v1/rooms/:id", sched.GetRoom)
	e.GET("/v1/screenings", sched.ListScreenings)
	e.GET("/v1/screenings/:id", sched.GetScreening)
	e.GET("/v1/screenings/:id/availability", resv.Availability)
	e.GET("/v1/reservations/code/:code", resv.GetByCode)

	// Staff endpoints: catalog and schedule management plus the whole
	// reservation lifecycle.
	staff := e.Group("/v1")
	staff.Use(middleware.StaffAuth(jwtSecret))
	staff.Use(middleware.RequireRole("STAFF"))

	staff.POST("/films", sched.CreateFilm)
	staff.PATCH("/films/:id", sched.UpdateFilm)
	staff.DELETE("/films/:id", sched.DeleteFilm)

	staff.POST("/rooms", sched.CreateRoom)
	staff.PATCH("/rooms/:id", sched.UpdateRoom)
	staff.DELETE("/rooms/:id", sched.DeleteRoom)

	staff.POST("/screenings", sched.CreateScreening)
	staff.GET("/screenings/conflicts", sched.FindConflicts)
	staff.PATCH("/screenings/:id", sched.UpdateScreening)
	staff.DELETE("/screenings/:id", sched.DeleteScreening)
	staff.GET("/screenings/:id/reservations", resv.ListByScreening)

	staff.POST("/reservations", resv.Create)
	staff.GET("/reservations/:id", resv.Get)
	staff.POST("/reservations/:id/status", resv.Transition)
	staff.PATCH("/reservations/:id", resv.Resize)
	staff.DELETE("/reservations/:id", resv.Delete)

	staff.POST("/customers", resv.CreateCustomer)
	staff.GET("/customers", resv.ListCustomers)
	staff.GET("/customers/:id", resv.GetCustomer)
	staff.GET("/customers/:id/reservations", resv.ListByCustomer)
}
