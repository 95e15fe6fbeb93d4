// Package queue publishes and consumes domain events over RabbitMQ.
package queue

// ReservationPaidEvent is published when a reservation reaches PAID.  It
// carries enough context for downstream consumers (receipts, analytics,
// front-of-house displays) to act without querying the primary database.
type ReservationPaidEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	Code          string `json:"code"`
	CustomerID    uint64 `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	ScreeningID   uint64 `json:"screening_id"`
	FilmTitle     string `json:"film_title"`
	RoomName      string `json:"room_name"`
	StartsAt      string `json:"starts_at"`
	Quantity      int    `json:"quantity"`
	TotalCents    int64  `json:"total_cents"`
	PaidAt        string `json:"paid_at"`
	StaffID       uint64 `json:"staff_id,omitempty"`
}
