// Package model defines the domain entities of the scheduling and
// reservation core together with the sentinel errors shared by the
// repository, service and handler layers.  Handlers translate these
// sentinels into HTTP status codes; no other error taxonomy crosses the
// layer boundary.
package model

import "errors"

// Lookup failures.  Handlers map these to HTTP 404.
var (
	ErrFilmNotFound        = errors.New("film not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrScreeningNotFound   = errors.New("screening not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrCustomerNotFound    = errors.New("customer not found")
)

// ErrScheduleConflict is returned when a screening would overlap another
// active screening in the same room.  Handlers map it to HTTP 409.
var ErrScheduleConflict = errors.New("schedule conflict")

// ErrInsufficientCapacity is returned when a reservation would push the sum
// of live seat quantities past the screening's capacity.  HTTP 409.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrInvalidOperation is returned when a request violates a lifecycle rule,
// such as deleting a paid reservation or editing a locked screening field.
// HTTP 400.
var ErrInvalidOperation = errors.New("invalid operation")

// ErrInvalidTransition is returned when a reservation status change is not
// in the allowed target set for the current status.  HTTP 400.
var ErrInvalidTransition = errors.New("invalid status transition")
