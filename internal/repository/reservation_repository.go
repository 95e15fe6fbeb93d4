package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/database"
	"github.com/kinohub/cinema-scheduling/internal/model"
)

// ReservationRepo manages reservations and is the write side of the seat
// inventory ledger.  Every mutation locks the screening row, lazily expires
// overdue PENDING holds, re-aggregates the live seat quantity and only then
// adjusts the cached seats_available/seats_reserved counters — the counters
// are treated as a cache of that aggregate, never as the source of truth.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, code, customer_id, screening_id, quantity, subtotal_cents, total_cents,
       status, payment_method, created_at, paid_at, expires_at, notes, confirmed_by`

func scanReservation(row interface{ Scan(...any) error }, res *model.Reservation) error {
	var paidAt sql.NullTime
	var confirmedBy sql.NullInt64
	if err := row.Scan(&res.ID, &res.Code, &res.CustomerID, &res.ScreeningID, &res.Quantity,
		&res.SubtotalCents, &res.TotalCents, &res.Status, &res.PaymentMethod,
		&res.CreatedAt, &paidAt, &res.ExpiresAt, &res.Notes, &confirmedBy); err != nil {
		return err
	}
	if paidAt.Valid {
		t := paidAt.Time.UTC()
		res.PaidAt = &t
	}
	if confirmedBy.Valid {
		id := uint64(confirmedBy.Int64)
		res.ConfirmedBy = &id
	}
	return nil
}

// lockScreeningTx locks the screening row and returns its capacity snapshot
// (seats_available + seats_reserved).  The lock serializes all ledger writes
// for the screening until the transaction ends.
func lockScreeningTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (int, error) {
	const q = `SELECT seats_available + seats_reserved FROM screenings WHERE id = ? FOR UPDATE`
	var total int
	if err := tx.QueryRowContext(ctx, q, screeningID).Scan(&total); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, model.ErrScreeningNotFound
		}
		return 0, err
	}
	return total, nil
}

// expireOverdueTx flips PENDING reservations past their expiry to EXPIRED.
// Run under the screening lock before any capacity aggregation so stale
// holds stop counting the moment anyone next touches the screening.
func expireOverdueTx(ctx context.Context, tx *sql.Tx, screeningID uint64) error {
	const q = `UPDATE reservations SET status = 'EXPIRED'
               WHERE screening_id = ? AND status = 'PENDING' AND expires_at <= UTC_TIMESTAMP()`
	_, err := tx.ExecContext(ctx, q, screeningID)
	return err
}

// liveQuantityTx sums the seat quantities of live reservations for the
// screening, excluding excludeID when non-zero.  Callers must have run
// expireOverdueTx first.
func liveQuantityTx(ctx context.Context, tx *sql.Tx, screeningID, excludeID uint64) (int, error) {
	const q = `SELECT COALESCE(SUM(quantity), 0) FROM reservations
               WHERE screening_id = ? AND id <> ? AND status IN ('PENDING', 'CONFIRMED', 'PAID')`
	var live int
	err := tx.QueryRowContext(ctx, q, screeningID, excludeID).Scan(&live)
	return live, err
}

// refreshCountersTx rewrites the cached seat counters from the aggregate.
func refreshCountersTx(ctx context.Context, tx *sql.Tx, screeningID uint64, total, live int) error {
	const q = `UPDATE screenings SET seats_available = ?, seats_reserved = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	_, err := tx.ExecContext(ctx, q, total-live, live, screeningID)
	return err
}

// CreateReserving inserts the reservation and debits seat inventory in one
// transaction.  When the live quantity plus the requested quantity would
// exceed the screening's capacity it returns model.ErrInsufficientCapacity
// and leaves all state untouched.
func (r *ReservationRepo) CreateReserving(ctx context.Context, res *model.Reservation) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		total, err := lockScreeningTx(ctx, tx, res.ScreeningID)
		if err != nil {
			return err
		}
		if err := expireOverdueTx(ctx, tx, res.ScreeningID); err != nil {
			return err
		}
		live, err := liveQuantityTx(ctx, tx, res.ScreeningID, 0)
		if err != nil {
			return err
		}
		if live+res.Quantity > total {
			return model.ErrInsufficientCapacity
		}
		const q = `INSERT INTO reservations
                   (code, customer_id, screening_id, quantity, subtotal_cents, total_cents,
                    status, payment_method, expires_at, notes)
                   VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		ins, err := tx.ExecContext(ctx, q,
			res.Code, res.CustomerID, res.ScreeningID, res.Quantity,
			res.SubtotalCents, res.TotalCents, res.Status, res.PaymentMethod,
			res.ExpiresAt.UTC(), res.Notes)
		if err != nil {
			return err
		}
		id, err := ins.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		if err := refreshCountersTx(ctx, tx, res.ScreeningID, total, live+res.Quantity); err != nil {
			return err
		}
		const sel = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
		return scanReservation(tx.QueryRowContext(ctx, sel, res.ID), res)
	})
}

// GetByID retrieves a reservation by its numeric ID.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, id), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// GetByCode retrieves a reservation by its human-facing code.
func (r *ReservationRepo) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE code = ?`
	var res model.Reservation
	if err := scanReservation(r.db.QueryRowContext(ctx, q, code), &res); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// ListByScreening returns all reservations for a screening, newest first.
func (r *ReservationRepo) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE screening_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, screeningID)
}

// ListByCustomer returns all reservations for a customer, newest first.
func (r *ReservationRepo) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reservations WHERE customer_id = ? ORDER BY created_at DESC`
	return r.list(ctx, q, customerID)
}

func (r *ReservationRepo) list(ctx context.Context, q string, arg any) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := scanReservation(rows, &res); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// Transition moves a reservation from one status to another with a
// compare-and-swap on the current status, so a concurrent transition makes
// the slower request fail with model.ErrInvalidTransition instead of
// silently clobbering it.  Transitions into CANCELLED or EXPIRED release
// the held seats back to inventory in the same transaction.
func (r *ReservationRepo) Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, paidAt *time.Time, confirmedBy *uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var screeningID uint64
		var cur model.ReservationStatus
		const sel = `SELECT screening_id, status FROM reservations WHERE id = ? FOR UPDATE`
		if err := tx.QueryRowContext(ctx, sel, id).Scan(&screeningID, &cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrReservationNotFound
			}
			return err
		}
		if cur != from {
			return model.ErrInvalidTransition
		}
		const upd = `UPDATE reservations SET status = ?, paid_at = COALESCE(?, paid_at), confirmed_by = COALESCE(?, confirmed_by)
                     WHERE id = ?`
		var paidArg any
		if paidAt != nil {
			paidArg = paidAt.UTC()
		}
		var confirmedArg any
		if confirmedBy != nil {
			confirmedArg = *confirmedBy
		}
		if _, err := tx.ExecContext(ctx, upd, to, paidArg, confirmedArg, id); err != nil {
			return err
		}
		if to == model.ReservationCancelled || to == model.ReservationExpired {
			total, err := lockScreeningTx(ctx, tx, screeningID)
			if err != nil {
				return err
			}
			if err := expireOverdueTx(ctx, tx, screeningID); err != nil {
				return err
			}
			live, err := liveQuantityTx(ctx, tx, screeningID, 0)
			if err != nil {
				return err
			}
			return refreshCountersTx(ctx, tx, screeningID, total, live)
		}
		return nil
	})
}

// Resize changes the seat quantity of a live reservation, re-running the
// capacity check against the live aggregate minus the reservation's own
// current quantity.  On failure the quantity and amounts keep their prior
// values.  The service supplies the recomputed amounts.
func (r *ReservationRepo) Resize(ctx context.Context, id uint64, newQuantity int, subtotalCents, totalCents int64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var screeningID uint64
		var cur model.ReservationStatus
		const sel = `SELECT screening_id, status FROM reservations WHERE id = ? FOR UPDATE`
		if err := tx.QueryRowContext(ctx, sel, id).Scan(&screeningID, &cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrReservationNotFound
			}
			return err
		}
		total, err := lockScreeningTx(ctx, tx, screeningID)
		if err != nil {
			return err
		}
		if err := expireOverdueTx(ctx, tx, screeningID); err != nil {
			return err
		}
		// re-read: the hold may just have been expired above
		const again = `SELECT status FROM reservations WHERE id = ?`
		if err := tx.QueryRowContext(ctx, again, id).Scan(&cur); err != nil {
			return err
		}
		if cur != model.ReservationPending && cur != model.ReservationConfirmed {
			return model.ErrInvalidOperation
		}
		live, err := liveQuantityTx(ctx, tx, screeningID, id)
		if err != nil {
			return err
		}
		if live+newQuantity > total {
			return model.ErrInsufficientCapacity
		}
		const upd = `UPDATE reservations SET quantity = ?, subtotal_cents = ?, total_cents = ? WHERE id = ?`
		if _, err := tx.ExecContext(ctx, upd, newQuantity, subtotalCents, totalCents, id); err != nil {
			return err
		}
		return refreshCountersTx(ctx, tx, screeningID, total, live+newQuantity)
	})
}

// DeleteReleasing removes a reservation and returns any live hold to
// inventory.  PAID and USED reservations are never deleted; they carry the
// audit trail and must be cancelled instead.  The status is re-checked
// under the row lock.
func (r *ReservationRepo) DeleteReleasing(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var screeningID uint64
		var cur model.ReservationStatus
		const sel = `SELECT screening_id, status FROM reservations WHERE id = ? FOR UPDATE`
		if err := tx.QueryRowContext(ctx, sel, id).Scan(&screeningID, &cur); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrReservationNotFound
			}
			return err
		}
		if cur == model.ReservationPaid || cur == model.ReservationUsed {
			return model.ErrInvalidOperation
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id); err != nil {
			return err
		}
		if model.IsLive(cur) {
			total, err := lockScreeningTx(ctx, tx, screeningID)
			if err != nil {
				return err
			}
			if err := expireOverdueTx(ctx, tx, screeningID); err != nil {
				return err
			}
			live, err := liveQuantityTx(ctx, tx, screeningID, 0)
			if err != nil {
				return err
			}
			return refreshCountersTx(ctx, tx, screeningID, total, live)
		}
		return nil
	})
}

// LiveAvailability reports free and held seat counts for a screening from
// the live reservation aggregate, ignoring overdue pending holds.  It is a
// read-only view used by the availability endpoint; it does not rewrite the
// cached counters.
func (r *ReservationRepo) LiveAvailability(ctx context.Context, screeningID uint64) (available, reserved int, err error) {
	const q = `SELECT s.seats_available + s.seats_reserved,
                      COALESCE((SELECT SUM(q.quantity) FROM reservations q
                                WHERE q.screening_id = s.id
                                  AND q.status IN ('PENDING', 'CONFIRMED', 'PAID')
                                  AND NOT (q.status = 'PENDING' AND q.expires_at <= UTC_TIMESTAMP())), 0)
               FROM screenings s WHERE s.id = ?`
	var total, live int
	if err := r.db.QueryRowContext(ctx, q, screeningID).Scan(&total, &live); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, model.ErrScreeningNotFound
		}
		return 0, 0, err
	}
	return total - live, live, nil
}
