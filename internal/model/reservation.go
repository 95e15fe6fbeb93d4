package model

import "time"

// ReservationStatus enumerates the reservation lifecycle states.
type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationPaid      ReservationStatus = "PAID"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationUsed      ReservationStatus = "USED"
	ReservationExpired   ReservationStatus = "EXPIRED"
)

// allowedTransitions is the full transition table.  PAID is terminal here:
// money settlement beyond that point is someone else's problem.  EXPIRED is
// reachable only from PENDING, where it is normally applied lazily when a
// hold outlives its expiry timestamp.
var allowedTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:   {ReservationConfirmed, ReservationCancelled, ReservationUsed, ReservationExpired},
	ReservationConfirmed: {ReservationPaid, ReservationCancelled, ReservationUsed},
	ReservationPaid:      {},
	ReservationCancelled: {},
	ReservationUsed:      {},
	ReservationExpired:   {},
}

// ValidReservationStatus reports whether s is a known lifecycle state.
func ValidReservationStatus(s ReservationStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}

// CanTransition reports whether a reservation in state from may move to.
func CanTransition(from, to ReservationStatus) bool {
	for _, t := range allowedTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s ReservationStatus) bool {
	return len(allowedTransitions[s]) == 0
}

// IsLive reports whether a reservation in state s counts against the
// screening's seat capacity.
func IsLive(s ReservationStatus) bool {
	return s == ReservationPending || s == ReservationConfirmed || s == ReservationPaid
}

// Reservation is one customer's claim on a quantity of seats for one
// screening.  A PENDING reservation past ExpiresAt no longer counts against
// capacity; the stores flip it to EXPIRED lazily the next time they touch
// the screening.
//
// Fields:
//  ID            – primary key identifier.
//  Code          – unique human-facing reference ("RSV-XXXXXXXX").
//  CustomerID    – customer holding the claim.
//  ScreeningID   – screening being reserved.
//  Quantity      – number of seats, always >= 1.
//  SubtotalCents – base price * quantity, before the room surcharge.
//  TotalCents    – (base price + surcharge) * quantity.
//  Status        – lifecycle state, see ReservationStatus.
//  PaymentMethod – free-form label (CASH, CARD, ...).
//  PaidAt        – stamped on the transition into PAID (nullable).
//  ExpiresAt     – when a PENDING hold lapses.
//  Notes         – optional operator notes.
//  ConfirmedBy   – staff member who took payment (nullable).
type Reservation struct {
	ID            uint64            `json:"id"`
	Code          string            `json:"code"`
	CustomerID    uint64            `json:"customer_id"`
	ScreeningID   uint64            `json:"screening_id"`
	Quantity      int               `json:"quantity"`
	SubtotalCents int64             `json:"subtotal_cents"`
	TotalCents    int64             `json:"total_cents"`
	Status        ReservationStatus `json:"status"`
	PaymentMethod string            `json:"payment_method"`
	CreatedAt     time.Time         `json:"created_at"`
	PaidAt        *time.Time        `json:"paid_at,omitempty"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Notes         string            `json:"notes"`
	ConfirmedBy   *uint64           `json:"confirmed_by,omitempty"`
}
