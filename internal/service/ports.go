// Package service contains the scheduling and reservation core.  Services
// hold no web or SQL details: they depend on narrow store interfaces, an
// injectable clock, and the pure helpers in model and schedule.  The MySQL
// repositories satisfy these interfaces; tests use in-memory fakes.
package service

import (
	"context"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/model"
)

// FilmStore is the catalog persistence the scheduler needs.
type FilmStore interface {
	Create(ctx context.Context, f *model.Film) error
	GetByID(ctx context.Context, id uint64) (*model.Film, error)
	List(ctx context.Context) ([]model.Film, error)
	Update(ctx context.Context, f *model.Film) error
	Deactivate(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
	CountScreenings(ctx context.Context, id uint64) (int, error)
}

// RoomStore is the auditorium persistence the scheduler needs.
type RoomStore interface {
	Create(ctx context.Context, r *model.Room) error
	GetByID(ctx context.Context, id uint64) (*model.Room, error)
	List(ctx context.Context) ([]model.Room, error)
	Update(ctx context.Context, r *model.Room) error
	Deactivate(ctx context.Context, id uint64) error
	Delete(ctx context.Context, id uint64) error
	CountScreenings(ctx context.Context, id uint64) (int, error)
	CountActiveFutureScreenings(ctx context.Context, id uint64, now time.Time) (int, error)
}

// ScreeningStore persists screenings.  CreateScheduled and Update run their
// guard checks (room conflict, no-confirmed precondition) atomically with
// the write.
type ScreeningStore interface {
	CreateScheduled(ctx context.Context, s *model.Screening) error
	GetByID(ctx context.Context, id uint64) (*model.Screening, error)
	List(ctx context.Context, roomID uint64) ([]model.Screening, error)
	FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Screening, error)
	CountConfirmed(ctx context.Context, screeningID uint64) (int, error)
	Update(ctx context.Context, s *model.Screening, guard model.ScreeningUpdateGuard) error
	DeletePurging(ctx context.Context, id uint64) error
}

// ReservationStore persists reservations and owns the seat inventory
// ledger: every mutation re-validates the capacity invariant atomically.
type ReservationStore interface {
	CreateReserving(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetByCode(ctx context.Context, code string) (*model.Reservation, error)
	ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error)
	ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error)
	Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, paidAt *time.Time, confirmedBy *uint64) error
	Resize(ctx context.Context, id uint64, newQuantity int, subtotalCents, totalCents int64) error
	DeleteReleasing(ctx context.Context, id uint64) error
	LiveAvailability(ctx context.Context, screeningID uint64) (available, reserved int, err error)
}

// CustomerStore is the customer registry persistence.
type CustomerStore interface {
	Create(ctx context.Context, c *model.Customer) error
	GetByID(ctx context.Context, id uint64) (*model.Customer, error)
	List(ctx context.Context) ([]model.Customer, error)
}

// DeleteResult is the tagged outcome of a delete request for entities with
// dependents: either the row was removed, or it was deactivated instead and
// Reason says why.
type DeleteResult struct {
	Outcome string `json:"outcome"` // "DELETED" or "DEACTIVATED"
	Reason  string `json:"reason,omitempty"`
}

const (
	OutcomeDeleted     = "DELETED"
	OutcomeDeactivated = "DEACTIVATED"
)
