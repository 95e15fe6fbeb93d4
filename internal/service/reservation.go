package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kinohub/cinema-scheduling/internal/clock"
	"github.com/kinohub/cinema-scheduling/internal/model"
)

// pendingHoldTTL is how long a PENDING reservation keeps its seats before
// it is treated as expired.  Expiry is lazy: nothing sweeps the table, the
// ledger flips overdue holds the next time it touches the screening.
const pendingHoldTTL = 30 * time.Minute

// ReservationService enforces the reservation status lifecycle and drives
// the seat inventory ledger through the ReservationStore.
type ReservationService struct {
	screenings   ScreeningStore
	rooms        RoomStore
	customers    CustomerStore
	reservations ReservationStore
	clk          clock.Clock
}

// NewReservationService constructs a ReservationService.  All dependencies
// must be non-nil.
func NewReservationService(screenings ScreeningStore, rooms RoomStore, customers CustomerStore, reservations ReservationStore, clk clock.Clock) *ReservationService {
	if screenings == nil || rooms == nil || customers == nil || reservations == nil || clk == nil {
		panic("nil dependency passed to NewReservationService")
	}
	return &ReservationService{
		screenings:   screenings,
		rooms:        rooms,
		customers:    customers,
		reservations: reservations,
		clk:          clk,
	}
}

// newReservationCode builds the unique human-facing reference, e.g.
// "RSV-9F2C41AB".
func newReservationCode() string {
	return "RSV-" + strings.ToUpper(uuid.NewString()[:8])
}

// CreateReservationInput carries a seat request for one screening.
type CreateReservationInput struct {
	CustomerID    uint64
	ScreeningID   uint64
	Quantity      int
	PaymentMethod string
	Notes         string
}

// Create books quantity seats on a screening for a customer.  The screening
// must be active and in the future and the customer active.  Pricing is
// (base price + room surcharge) * quantity; the hold starts PENDING and
// lapses 30 minutes later.  The store refuses oversell with
// model.ErrInsufficientCapacity, leaving all state untouched.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	if in.Quantity < 1 {
		return nil, model.ErrInvalidOperation
	}
	sc, err := s.screenings.GetByID(ctx, in.ScreeningID)
	if err != nil {
		return nil, err
	}
	now := s.clk.Now()
	if !sc.Active || !sc.StartsAt.After(now) {
		return nil, model.ErrInvalidOperation
	}
	cust, err := s.customers.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, err
	}
	if !cust.Active {
		return nil, model.ErrInvalidOperation
	}
	room, err := s.rooms.GetByID(ctx, sc.RoomID)
	if err != nil {
		return nil, err
	}
	subtotal := sc.BasePriceCents * int64(in.Quantity)
	total := (sc.BasePriceCents + room.SurchargeCents) * int64(in.Quantity)
	res := &model.Reservation{
		Code:          newReservationCode(),
		CustomerID:    cust.ID,
		ScreeningID:   sc.ID,
		Quantity:      in.Quantity,
		SubtotalCents: subtotal,
		TotalCents:    total,
		Status:        model.ReservationPending,
		PaymentMethod: in.PaymentMethod,
		ExpiresAt:     now.Add(pendingHoldTTL),
		Notes:         in.Notes,
	}
	if err := s.reservations.CreateReserving(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Transition moves a reservation to a new status.  The target must be in
// the allowed set for the current status.  Entering PAID stamps the payment
// time and the confirming staff member; entering CANCELLED (or EXPIRED)
// releases the held seats.
func (s *ReservationService) Transition(ctx context.Context, id uint64, to model.ReservationStatus, staffID *uint64) (*model.Reservation, error) {
	if !model.ValidReservationStatus(to) {
		return nil, model.ErrInvalidTransition
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !model.CanTransition(res.Status, to) {
		return nil, model.ErrInvalidTransition
	}
	if to == model.ReservationPaid {
		now := s.clk.Now()
		if err := s.reservations.Transition(ctx, id, res.Status, to, &now, staffID); err != nil {
			return nil, err
		}
	} else {
		if err := s.reservations.Transition(ctx, id, res.Status, to, nil, nil); err != nil {
			return nil, err
		}
	}
	return s.reservations.GetByID(ctx, id)
}

// Resize changes the seat quantity of a reservation that is still PENDING
// or CONFIRMED.  Amounts are recomputed from the screening's current price
// and room surcharge.  On capacity failure the prior quantity stands.
func (s *ReservationService) Resize(ctx context.Context, id uint64, newQuantity int) (*model.Reservation, error) {
	if newQuantity < 1 {
		return nil, model.ErrInvalidOperation
	}
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
		return nil, model.ErrInvalidOperation
	}
	sc, err := s.screenings.GetByID(ctx, res.ScreeningID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetByID(ctx, sc.RoomID)
	if err != nil {
		return nil, err
	}
	subtotal := sc.BasePriceCents * int64(newQuantity)
	total := (sc.BasePriceCents + room.SurchargeCents) * int64(newQuantity)
	if err := s.reservations.Resize(ctx, id, newQuantity, subtotal, total); err != nil {
		return nil, err
	}
	return s.reservations.GetByID(ctx, id)
}

// Delete removes a reservation and releases any live hold.  PAID and USED
// reservations are never deleted — a paid reservation for a past screening
// in particular must be cancelled, not deleted, to keep the audit trail.
func (s *ReservationService) Delete(ctx context.Context, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.Status == model.ReservationPaid || res.Status == model.ReservationUsed {
		return model.ErrInvalidOperation
	}
	return s.reservations.DeleteReleasing(ctx, id)
}

// Get returns one reservation by ID.
func (s *ReservationService) Get(ctx context.Context, id uint64) (*model.Reservation, error) {
	return s.reservations.GetByID(ctx, id)
}

// GetByCode returns one reservation by its human-facing code.
func (s *ReservationService) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	return s.reservations.GetByCode(ctx, code)
}

// ListByScreening returns all reservations on a screening.
func (s *ReservationService) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	if _, err := s.screenings.GetByID(ctx, screeningID); err != nil {
		return nil, err
	}
	return s.reservations.ListByScreening(ctx, screeningID)
}

// ListByCustomer returns all reservations held by a customer.
func (s *ReservationService) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	if _, err := s.customers.GetByID(ctx, customerID); err != nil {
		return nil, err
	}
	return s.reservations.ListByCustomer(ctx, customerID)
}

// Availability reports the free and held seat counts for a screening from
// the live reservation aggregate (overdue pending holds excluded).
func (s *ReservationService) Availability(ctx context.Context, screeningID uint64) (available, reserved int, err error) {
	return s.reservations.LiveAvailability(ctx, screeningID)
}

// CreateCustomer registers a customer.
func (s *ReservationService) CreateCustomer(ctx context.Context, name, email, phone string) (*model.Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" {
		return nil, model.ErrInvalidOperation
	}
	c := &model.Customer{Name: name, Email: email, Phone: phone}
	if err := s.customers.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCustomer returns one customer.
func (s *ReservationService) GetCustomer(ctx context.Context, id uint64) (*model.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// ListCustomers returns all customers.
func (s *ReservationService) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	return s.customers.List(ctx)
}
