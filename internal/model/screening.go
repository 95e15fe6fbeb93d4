package model

import "time"

// Screening is one scheduled showing of one film in one room.  EndsAt is
// always derived: starts_at + film runtime + cleanup buffer.  The two seat
// counters sum to the room capacity captured at creation time (or at the
// last room change) and act as a cache of the live reservation aggregate;
// every write revalidates them against that aggregate inside a transaction.
//
// Fields:
//  ID             – primary key identifier.
//  FilmID         – film being shown.
//  RoomID         – auditorium hosting the showing.
//  StartsAt       – when the film begins (UTC).
//  EndsAt         – when the room is free again (derived, UTC).
//  BasePriceCents – per-seat price before the room surcharge.
//  SeatsAvailable – seats not claimed by a live reservation.
//  SeatsReserved  – seats claimed by live reservations.
//  Active         – inactive screenings free their slot and accept no
//                   reservations.
type Screening struct {
	ID             uint64    `json:"id"`
	FilmID         uint64    `json:"film_id"`
	RoomID         uint64    `json:"room_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents int64     `json:"base_price_cents"`
	SeatsAvailable int       `json:"seats_available"`
	SeatsReserved  int       `json:"seats_reserved"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TotalSeats returns the capacity snapshot the screening was created with.
func (s *Screening) TotalSeats() int {
	return s.SeatsAvailable + s.SeatsReserved
}

// ScreeningUpdateGuard tells the store which invariants to re-verify inside
// the update transaction.  The service layer decides the flags; the store
// enforces them atomically.
type ScreeningUpdateGuard struct {
	// RequireNoConfirmed aborts the update with ErrInvalidOperation when a
	// confirmed or paid reservation exists.  Set whenever a structural field
	// (film, room, start) is being changed.
	RequireNoConfirmed bool
	// CheckConflict reruns the room overlap check, excluding the screening
	// itself, and aborts with ErrScheduleConflict on overlap.
	CheckConflict bool
}
