package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/database"
	"github.com/kinohub/cinema-scheduling/internal/model"
)

// RoomRepo manages persistence for auditoriums.  Capacity is never stored;
// it is always derived from seat_rows * seats_per_row.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

const roomColumns = `id, room_number, name, room_type, seat_rows, seats_per_row,
       surcharge_cents, is_active, dolby_atmos, wheelchair_access, notes, created_at, updated_at`

func scanRoom(row interface{ Scan(...any) error }, rm *model.Room) error {
	return row.Scan(&rm.ID, &rm.Number, &rm.Name, &rm.Type, &rm.Rows, &rm.SeatsPerRow,
		&rm.SurchargeCents, &rm.Active, &rm.DolbyAtmos, &rm.WheelchairAccess,
		&rm.Notes, &rm.CreatedAt, &rm.UpdatedAt)
}

// Create inserts a new room and reads the row back to populate defaults.
// The room_number column carries a UNIQUE constraint; a duplicate number
// surfaces as the driver's duplicate-key error.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
	const q = `INSERT INTO rooms
               (room_number, name, room_type, seat_rows, seats_per_row, surcharge_cents, dolby_atmos, wheelchair_access, notes)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		rm.Number, rm.Name, rm.Type, rm.Rows, rm.SeatsPerRow,
		rm.SurchargeCents, rm.DolbyAtmos, rm.WheelchairAccess, rm.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rm.ID = uint64(id)
	const sel = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return scanRoom(r.db.QueryRowContext(ctx, sel, rm.ID), rm)
}

// GetByID retrieves a room, returning model.ErrRoomNotFound when missing.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	var rm model.Room
	if err := scanRoom(r.db.QueryRowContext(ctx, q, id), &rm); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRoomNotFound
		}
		return nil, err
	}
	return &rm, nil
}

// List returns all rooms ordered by room number.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	const q = `SELECT ` + roomColumns + ` FROM rooms ORDER BY room_number`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Room, 0)
	for rows.Next() {
		var rm model.Room
		if err := scanRoom(rows, &rm); err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

// Update writes every mutable column.  The service layer decides which
// fields a caller may change; by the time the patch reaches the repository
// it is fully resolved.
func (r *RoomRepo) Update(ctx context.Context, rm *model.Room) error {
	const q = `UPDATE rooms
               SET room_number = ?, name = ?, room_type = ?, seat_rows = ?, seats_per_row = ?,
                   surcharge_cents = ?, is_active = ?, dolby_atmos = ?, wheelchair_access = ?, notes = ?,
                   updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q,
		rm.Number, rm.Name, rm.Type, rm.Rows, rm.SeatsPerRow,
		rm.SurchargeCents, rm.Active, rm.DolbyAtmos, rm.WheelchairAccess, rm.Notes, rm.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, rm.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrRoomNotFound
			}
			return err
		}
	}
	return nil
}

// Deactivate soft-disables a room without touching its schedule history.
func (r *RoomRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE rooms SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrRoomNotFound
			}
			return err
		}
	}
	return nil
}

// CountScreenings returns how many screenings the room has ever hosted.
func (r *RoomRepo) CountScreenings(ctx context.Context, id uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings WHERE room_id = ?`, id).Scan(&n)
	return n, err
}

// CountActiveFutureScreenings returns how many active screenings in the room
// start after now.  A non-zero count freezes the room's structural fields.
func (r *RoomRepo) CountActiveFutureScreenings(ctx context.Context, id uint64, now time.Time) (int, error) {
	const q = `SELECT COUNT(*) FROM screenings WHERE room_id = ? AND is_active = 1 AND starts_at > ?`
	var n int
	err := r.db.QueryRowContext(ctx, q, id, now.UTC()).Scan(&n)
	return n, err
}

// Delete removes a room that has never hosted a screening.  The count is
// re-checked under a row lock inside the transaction.
func (r *RoomRepo) Delete(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM rooms WHERE id = ? FOR UPDATE`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrRoomNotFound
			}
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings WHERE room_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return model.ErrInvalidOperation
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
		return err
	})
}
