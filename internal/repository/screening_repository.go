package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/database"
	"github.com/kinohub/cinema-scheduling/internal/model"
)

// ScreeningRepo manages persistence for screenings.  The conflict check and
// the insert/update it protects always run in one transaction, serialized
// per room by a row lock on the rooms table, so two concurrent requests for
// overlapping slots cannot both succeed.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

const screeningColumns = `id, film_id, room_id, starts_at, ends_at, base_price_cents,
       seats_available, seats_reserved, is_active, created_at, updated_at`

func scanScreening(row interface{ Scan(...any) error }, s *model.Screening) error {
	return row.Scan(&s.ID, &s.FilmID, &s.RoomID, &s.StartsAt, &s.EndsAt, &s.BasePriceCents,
		&s.SeatsAvailable, &s.SeatsReserved, &s.Active, &s.CreatedAt, &s.UpdatedAt)
}

// lockRoomTx takes a row lock on the room, serializing schedule writes for
// that room for the rest of the transaction.
func lockRoomTx(ctx context.Context, tx *sql.Tx, roomID uint64) error {
	var one int
	if err := tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.ErrRoomNotFound
		}
		return err
	}
	return nil
}

// overlapsTx returns the active screenings in the room whose [starts_at,
// ends_at) interval intersects [start, end), excluding excludeID when
// non-zero.  Inactive screenings free their slot and never conflict.
func overlapsTx(ctx context.Context, tx *sql.Tx, roomID, excludeID uint64, start, end time.Time) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + `
               FROM screenings
               WHERE room_id = ? AND id <> ? AND is_active = 1
                 AND starts_at < ? AND ends_at > ?`
	rows, err := tx.QueryContext(ctx, q, roomID, excludeID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.Screening
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// confirmedCountTx counts firm claims on the screening.  PAID reservations
// count as confirmed: payment only ever strengthens a claim.
func confirmedCountTx(ctx context.Context, tx *sql.Tx, screeningID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE screening_id = ? AND status IN ('CONFIRMED', 'PAID')`
	var n int
	err := tx.QueryRowContext(ctx, q, screeningID).Scan(&n)
	return n, err
}

// CreateScheduled inserts a new screening after verifying, under the room
// lock, that its interval does not overlap any active screening in the same
// room.  On conflict it returns model.ErrScheduleConflict and inserts
// nothing.  On success the struct is refreshed from the inserted row.
func (r *ScreeningRepo) CreateScheduled(ctx context.Context, s *model.Screening) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := lockRoomTx(ctx, tx, s.RoomID); err != nil {
			return err
		}
		conflicts, err := overlapsTx(ctx, tx, s.RoomID, 0, s.StartsAt, s.EndsAt)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return model.ErrScheduleConflict
		}
		const q = `INSERT INTO screenings
                   (film_id, room_id, starts_at, ends_at, base_price_cents, seats_available, seats_reserved)
                   VALUES (?, ?, ?, ?, ?, ?, 0)`
		res, err := tx.ExecContext(ctx, q,
			s.FilmID, s.RoomID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents, s.SeatsAvailable)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		s.ID = uint64(id)
		const sel = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
		return scanScreening(tx.QueryRowContext(ctx, sel, s.ID), s)
	})
}

// GetByID retrieves a screening, returning model.ErrScreeningNotFound when
// no row matches.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	const q = `SELECT ` + screeningColumns + ` FROM screenings WHERE id = ?`
	var s model.Screening
	if err := scanScreening(r.db.QueryRowContext(ctx, q, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrScreeningNotFound
		}
		return nil, err
	}
	return &s, nil
}

// List returns screenings ordered by start time.  A non-zero roomID filters
// to that room.
func (r *ScreeningRepo) List(ctx context.Context, roomID uint64) ([]model.Screening, error) {
	q := `SELECT ` + screeningColumns + ` FROM screenings`
	args := []any{}
	if roomID != 0 {
		q += ` WHERE room_id = ?`
		args = append(args, roomID)
	}
	q += ` ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// FindOverlapping lists the active screenings in the room whose intervals
// intersect [start, end), excluding excludeID when non-zero.  It is a
// read-only preview; the authoritative check is re-run under lock by
// CreateScheduled and Update.
func (r *ScreeningRepo) FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Screening, error) {
	const q = `SELECT ` + screeningColumns + `
               FROM screenings
               WHERE room_id = ? AND id <> ? AND is_active = 1
                 AND starts_at < ? AND ends_at > ?`
	rows, err := r.db.QueryContext(ctx, q, roomID, excludeID, end.UTC(), start.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Screening, 0)
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountConfirmed counts confirmed (and paid) reservations for a screening.
// The service uses it to decide between a full and a restricted edit.
func (r *ScreeningRepo) CountConfirmed(ctx context.Context, screeningID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM reservations WHERE screening_id = ? AND status IN ('CONFIRMED', 'PAID')`
	var n int
	err := r.db.QueryRowContext(ctx, q, screeningID).Scan(&n)
	return n, err
}

// Update persists a fully resolved screening state.  The guard flags decide
// which invariants are re-verified inside the transaction: the
// no-confirmed-reservations precondition for structural edits, and the room
// overlap check (excluding the screening itself) for schedule changes.
func (r *ScreeningRepo) Update(ctx context.Context, s *model.Screening, guard model.ScreeningUpdateGuard) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM screenings WHERE id = ? FOR UPDATE`, s.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrScreeningNotFound
			}
			return err
		}
		if guard.RequireNoConfirmed {
			n, err := confirmedCountTx(ctx, tx, s.ID)
			if err != nil {
				return err
			}
			if n > 0 {
				return model.ErrInvalidOperation
			}
		}
		if guard.CheckConflict {
			if err := lockRoomTx(ctx, tx, s.RoomID); err != nil {
				return err
			}
			conflicts, err := overlapsTx(ctx, tx, s.RoomID, s.ID, s.StartsAt, s.EndsAt)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return model.ErrScheduleConflict
			}
		}
		const q = `UPDATE screenings
                   SET film_id = ?, room_id = ?, starts_at = ?, ends_at = ?, base_price_cents = ?,
                       seats_available = ?, seats_reserved = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
                   WHERE id = ?`
		_, err := tx.ExecContext(ctx, q,
			s.FilmID, s.RoomID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents,
			s.SeatsAvailable, s.SeatsReserved, s.Active, s.ID)
		return err
	})
}

// DeletePurging removes a screening together with its non-confirmed
// reservations.  It aborts with model.ErrInvalidOperation when a confirmed
// or paid reservation exists; that check happens under the screening's row
// lock so a concurrent confirmation cannot race the delete.
func (r *ScreeningRepo) DeletePurging(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM screenings WHERE id = ? FOR UPDATE`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrScreeningNotFound
			}
			return err
		}
		n, err := confirmedCountTx(ctx, tx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return model.ErrInvalidOperation
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE screening_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM screenings WHERE id = ?`, id)
		return err
	})
}
