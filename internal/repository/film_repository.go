// Package repository contains the MySQL data access layer.  Repositories are
// thin structs around *sql.DB that speak raw SQL and return the domain
// sentinels from the model package.  Every check-then-write sequence that
// guards an invariant runs inside a transaction via database.WithTx, with
// row locks on the contended rows.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kinohub/cinema-scheduling/internal/database"
	"github.com/kinohub/cinema-scheduling/internal/model"
)

// FilmRepo manages persistence for the film catalog.
type FilmRepo struct {
	db *sql.DB
}

// NewFilmRepo constructs a FilmRepo with the given DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db}
}

const filmColumns = `id, title, duration_minutes, rating, is_active, created_at, updated_at`

func scanFilm(row interface{ Scan(...any) error }, f *model.Film) error {
	return row.Scan(&f.ID, &f.Title, &f.DurationMinutes, &f.Rating, &f.Active, &f.CreatedAt, &f.UpdatedAt)
}

// Create inserts a new film and reads the row back so DB defaults
// (is_active, timestamps) are populated on the struct.
func (r *FilmRepo) Create(ctx context.Context, f *model.Film) error {
	const q = `INSERT INTO films (title, duration_minutes, rating) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, f.Title, f.DurationMinutes, f.Rating)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	const sel = `SELECT ` + filmColumns + ` FROM films WHERE id = ?`
	return scanFilm(r.db.QueryRowContext(ctx, sel, f.ID), f)
}

// GetByID retrieves a film by its ID.  It returns model.ErrFilmNotFound when
// no matching row exists.
func (r *FilmRepo) GetByID(ctx context.Context, id uint64) (*model.Film, error) {
	const q = `SELECT ` + filmColumns + ` FROM films WHERE id = ?`
	var f model.Film
	if err := scanFilm(r.db.QueryRowContext(ctx, q, id), &f); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrFilmNotFound
		}
		return nil, err
	}
	return &f, nil
}

// List returns the whole catalog ordered by title.
func (r *FilmRepo) List(ctx context.Context) ([]model.Film, error) {
	const q = `SELECT ` + filmColumns + ` FROM films ORDER BY title`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Film, 0)
	for rows.Next() {
		var f model.Film
		if err := scanFilm(rows, &f); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Update writes title, duration, rating and active flag.  It returns
// model.ErrFilmNotFound when the row does not exist.
func (r *FilmRepo) Update(ctx context.Context, f *model.Film) error {
	const q = `UPDATE films
               SET title = ?, duration_minutes = ?, rating = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, f.Title, f.DurationMinutes, f.Rating, f.Active, f.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// either missing or identical values; disambiguate
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM films WHERE id = ?`, f.ID).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrFilmNotFound
			}
			return err
		}
	}
	return nil
}

// Deactivate soft-disables a film so it can no longer be scheduled.
func (r *FilmRepo) Deactivate(ctx context.Context, id uint64) error {
	const q = `UPDATE films SET is_active = 0, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM films WHERE id = ?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrFilmNotFound
			}
			return err
		}
	}
	return nil
}

// CountScreenings returns how many screenings, past or future, reference the
// film.  A non-zero count blocks hard deletion.
func (r *FilmRepo) CountScreenings(ctx context.Context, id uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings WHERE film_id = ?`, id).Scan(&n)
	return n, err
}

// Delete removes a film that has never been scheduled.  The screening count
// is re-checked inside the transaction so a concurrent CreateScreening
// cannot slip in between check and delete.
func (r *FilmRepo) Delete(ctx context.Context, id uint64) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var one int
		if err := tx.QueryRowContext(ctx, `SELECT 1 FROM films WHERE id = ? FOR UPDATE`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return model.ErrFilmNotFound
			}
			return err
		}
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM screenings WHERE film_id = ?`, id).Scan(&n); err != nil {
			return err
		}
		if n > 0 {
			return model.ErrInvalidOperation
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM films WHERE id = ?`, id)
		return err
	})
}
