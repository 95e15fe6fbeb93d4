package service

import (
	"context"
	"strings"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/clock"
	"github.com/kinohub/cinema-scheduling/internal/model"
	"github.com/kinohub/cinema-scheduling/internal/schedule"
)

// SchedulingService manages the film catalog, the rooms and the screening
// lifecycle.  It owns the end-time derivation and decides which update
// guards the store must enforce; the stores make those checks atomic.
type SchedulingService struct {
	films      FilmStore
	rooms      RoomStore
	screenings ScreeningStore
	clk        clock.Clock
}

// NewSchedulingService constructs a SchedulingService.  All dependencies
// must be non-nil.
func NewSchedulingService(films FilmStore, rooms RoomStore, screenings ScreeningStore, clk clock.Clock) *SchedulingService {
	if films == nil || rooms == nil || screenings == nil || clk == nil {
		panic("nil dependency passed to NewSchedulingService")
	}
	return &SchedulingService{films: films, rooms: rooms, screenings: screenings, clk: clk}
}

// CreateScreeningInput carries the operator's scheduling request.  The end
// time is never an input; it is always derived.
type CreateScreeningInput struct {
	FilmID         uint64
	RoomID         uint64
	StartsAt       time.Time
	BasePriceCents int64
}

// CreateScreening schedules a film into a room.  It derives the end time
// from the film runtime plus the cleanup buffer, initializes the seat
// counters from the room capacity, and lets the store refuse overlapping
// slots with model.ErrScheduleConflict.
func (s *SchedulingService) CreateScreening(ctx context.Context, in CreateScreeningInput) (*model.Screening, error) {
	if in.BasePriceCents < 0 {
		return nil, model.ErrInvalidOperation
	}
	film, err := s.films.GetByID(ctx, in.FilmID)
	if err != nil {
		return nil, err
	}
	room, err := s.rooms.GetByID(ctx, in.RoomID)
	if err != nil {
		return nil, err
	}
	if !film.Active || !room.Active {
		return nil, model.ErrInvalidOperation
	}
	sc := &model.Screening{
		FilmID:         film.ID,
		RoomID:         room.ID,
		StartsAt:       in.StartsAt.UTC(),
		EndsAt:         schedule.ComputeEnd(in.StartsAt.UTC(), film.DurationMinutes, schedule.CleanupMinutes),
		BasePriceCents: in.BasePriceCents,
		SeatsAvailable: room.Capacity(),
		SeatsReserved:  0,
		Active:         true,
	}
	if err := s.screenings.CreateScheduled(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// ScreeningPatch is a partial update; nil fields are left unchanged.  The
// end time is absent on purpose: it is recomputed from the (possibly new)
// start time and film runtime.
type ScreeningPatch struct {
	FilmID         *uint64
	RoomID         *uint64
	StartsAt       *time.Time
	BasePriceCents *int64
	Active         *bool
}

// UpdateScreening applies a patch to a screening.
//
// Once confirmed reservations exist only the active flag and the base price
// may change; every other patched field is silently dropped, and if nothing
// applicable remains the call fails with model.ErrInvalidOperation.  The
// silent narrowing is deliberate: operators adjust price and visibility on
// sold screenings without invalidating sold tickets.
//
// Without confirmed reservations the full patch applies.  A room change
// resets the seat counters to the new room's capacity with zero reserved —
// safe only because the no-confirmed precondition holds, and re-verified by
// the store inside the update transaction.  Any schedule change reruns the
// conflict check excluding the screening itself.
func (s *SchedulingService) UpdateScreening(ctx context.Context, id uint64, patch ScreeningPatch) (*model.Screening, error) {
	cur, err := s.screenings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.screenings.CountConfirmed(ctx, id)
	if err != nil {
		return nil, err
	}

	if confirmed > 0 {
		applied := false
		if patch.Active != nil {
			cur.Active = *patch.Active
			applied = true
		}
		if patch.BasePriceCents != nil {
			if *patch.BasePriceCents < 0 {
				return nil, model.ErrInvalidOperation
			}
			cur.BasePriceCents = *patch.BasePriceCents
			applied = true
		}
		if !applied {
			return nil, model.ErrInvalidOperation
		}
		if err := s.screenings.Update(ctx, cur, model.ScreeningUpdateGuard{}); err != nil {
			return nil, err
		}
		return cur, nil
	}

	structural := false
	if patch.FilmID != nil && *patch.FilmID != cur.FilmID {
		if _, err := s.films.GetByID(ctx, *patch.FilmID); err != nil {
			return nil, err
		}
		cur.FilmID = *patch.FilmID
		structural = true
	}
	if patch.RoomID != nil && *patch.RoomID != cur.RoomID {
		room, err := s.rooms.GetByID(ctx, *patch.RoomID)
		if err != nil {
			return nil, err
		}
		cur.RoomID = room.ID
		// Moving rooms re-bases the inventory on the new capacity and
		// discards the reserved count.  Only pending holds can exist here,
		// and they are purged by the ledger the next time they are touched.
		cur.SeatsAvailable = room.Capacity()
		cur.SeatsReserved = 0
		structural = true
	}
	if patch.StartsAt != nil && !patch.StartsAt.UTC().Equal(cur.StartsAt) {
		cur.StartsAt = patch.StartsAt.UTC()
		structural = true
	}
	if patch.BasePriceCents != nil {
		if *patch.BasePriceCents < 0 {
			return nil, model.ErrInvalidOperation
		}
		cur.BasePriceCents = *patch.BasePriceCents
	}
	if patch.Active != nil {
		cur.Active = *patch.Active
	}

	film, err := s.films.GetByID(ctx, cur.FilmID)
	if err != nil {
		return nil, err
	}
	cur.EndsAt = schedule.ComputeEnd(cur.StartsAt, film.DurationMinutes, schedule.CleanupMinutes)

	guard := model.ScreeningUpdateGuard{
		RequireNoConfirmed: structural,
		CheckConflict:      structural,
	}
	if err := s.screenings.Update(ctx, cur, guard); err != nil {
		return nil, err
	}
	return cur, nil
}

// DeleteScreening removes a screening and purges its non-confirmed
// reservations.  The store refuses with model.ErrInvalidOperation when
// confirmed reservations exist.
func (s *SchedulingService) DeleteScreening(ctx context.Context, id uint64) error {
	return s.screenings.DeletePurging(ctx, id)
}

// GetScreening returns one screening.
func (s *SchedulingService) GetScreening(ctx context.Context, id uint64) (*model.Screening, error) {
	return s.screenings.GetByID(ctx, id)
}

// ListScreenings lists screenings, optionally filtered by room.
func (s *SchedulingService) ListScreenings(ctx context.Context, roomID uint64) ([]model.Screening, error) {
	return s.screenings.List(ctx, roomID)
}

// FindConflicts previews which active screenings in a room overlap the
// candidate interval.  A non-empty result means scheduling there would be
// refused.
func (s *SchedulingService) FindConflicts(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Screening, error) {
	if _, err := s.rooms.GetByID(ctx, roomID); err != nil {
		return nil, err
	}
	return s.screenings.FindOverlapping(ctx, roomID, start, end, excludeID)
}

// FilmInput carries a catalog entry.
type FilmInput struct {
	Title           string
	DurationMinutes int
	Rating          string
}

// CreateFilm adds a film to the catalog.
func (s *SchedulingService) CreateFilm(ctx context.Context, in FilmInput) (*model.Film, error) {
	if strings.TrimSpace(in.Title) == "" || in.DurationMinutes < 1 {
		return nil, model.ErrInvalidOperation
	}
	f := &model.Film{Title: strings.TrimSpace(in.Title), DurationMinutes: in.DurationMinutes, Rating: in.Rating}
	if err := s.films.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// FilmPatch is a partial film update; nil fields are left unchanged.
type FilmPatch struct {
	Title           *string
	DurationMinutes *int
	Rating          *string
	Active          *bool
}

// UpdateFilm applies a patch to a film.  Duration changes affect future
// scheduling only; already-created screenings keep their derived end time.
func (s *SchedulingService) UpdateFilm(ctx context.Context, id uint64, patch FilmPatch) (*model.Film, error) {
	f, err := s.films.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return nil, model.ErrInvalidOperation
		}
		f.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.DurationMinutes != nil {
		if *patch.DurationMinutes < 1 {
			return nil, model.ErrInvalidOperation
		}
		f.DurationMinutes = *patch.DurationMinutes
	}
	if patch.Rating != nil {
		f.Rating = *patch.Rating
	}
	if patch.Active != nil {
		f.Active = *patch.Active
	}
	if err := s.films.Update(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// DeleteFilm removes a film that was never scheduled; a film with
// screenings is deactivated instead and the outcome says so.
func (s *SchedulingService) DeleteFilm(ctx context.Context, id uint64) (DeleteResult, error) {
	if _, err := s.films.GetByID(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	n, err := s.films.CountScreenings(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if n > 0 {
		if err := s.films.Deactivate(ctx, id); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Outcome: OutcomeDeactivated, Reason: "film has screenings"}, nil
	}
	if err := s.films.Delete(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Outcome: OutcomeDeleted}, nil
}

// GetFilm returns one film.
func (s *SchedulingService) GetFilm(ctx context.Context, id uint64) (*model.Film, error) {
	return s.films.GetByID(ctx, id)
}

// ListFilms returns the catalog.
func (s *SchedulingService) ListFilms(ctx context.Context) ([]model.Film, error) {
	return s.films.List(ctx)
}

// RoomInput carries a new auditorium.  Capacity is rows*seats_per_row.
type RoomInput struct {
	Number           uint32
	Name             string
	Type             model.RoomType
	Rows             uint32
	SeatsPerRow      uint32
	SurchargeCents   int64
	DolbyAtmos       bool
	WheelchairAccess bool
	Notes            string
}

// CreateRoom registers an auditorium.
func (s *SchedulingService) CreateRoom(ctx context.Context, in RoomInput) (*model.Room, error) {
	if in.Number == 0 || in.Rows == 0 || in.SeatsPerRow == 0 || in.SurchargeCents < 0 {
		return nil, model.ErrInvalidOperation
	}
	if !model.ValidRoomType(in.Type) {
		return nil, model.ErrInvalidOperation
	}
	r := &model.Room{
		Number:           in.Number,
		Name:             strings.TrimSpace(in.Name),
		Type:             in.Type,
		Rows:             in.Rows,
		SeatsPerRow:      in.SeatsPerRow,
		SurchargeCents:   in.SurchargeCents,
		DolbyAtmos:       in.DolbyAtmos,
		WheelchairAccess: in.WheelchairAccess,
		Notes:            in.Notes,
	}
	if err := s.rooms.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// RoomPatch is a partial room update; nil fields are left unchanged.
type RoomPatch struct {
	Number           *uint32
	Name             *string
	Type             *model.RoomType
	Rows             *uint32
	SeatsPerRow      *uint32
	SurchargeCents   *int64
	Active           *bool
	DolbyAtmos       *bool
	WheelchairAccess *bool
	Notes            *string
}

// structuralChange reports whether the patch alters a field that is frozen
// while active future screenings exist.
func (p RoomPatch) structuralChange(cur *model.Room) bool {
	if p.Number != nil && *p.Number != cur.Number {
		return true
	}
	if p.Name != nil && *p.Name != cur.Name {
		return true
	}
	if p.Type != nil && *p.Type != cur.Type {
		return true
	}
	if p.Rows != nil && *p.Rows != cur.Rows {
		return true
	}
	if p.SeatsPerRow != nil && *p.SeatsPerRow != cur.SeatsPerRow {
		return true
	}
	return false
}

// UpdateRoom applies a patch.  While the room has active future screenings
// only status, surcharge, equipment flags and notes may change; a patch
// touching a frozen field is rejected outright with
// model.ErrInvalidOperation.
func (s *SchedulingService) UpdateRoom(ctx context.Context, id uint64, patch RoomPatch) (*model.Room, error) {
	cur, err := s.rooms.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	futures, err := s.rooms.CountActiveFutureScreenings(ctx, id, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if futures > 0 && patch.structuralChange(cur) {
		return nil, model.ErrInvalidOperation
	}
	if patch.Number != nil {
		cur.Number = *patch.Number
	}
	if patch.Name != nil {
		cur.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		if !model.ValidRoomType(*patch.Type) {
			return nil, model.ErrInvalidOperation
		}
		cur.Type = *patch.Type
	}
	if patch.Rows != nil {
		if *patch.Rows == 0 {
			return nil, model.ErrInvalidOperation
		}
		cur.Rows = *patch.Rows
	}
	if patch.SeatsPerRow != nil {
		if *patch.SeatsPerRow == 0 {
			return nil, model.ErrInvalidOperation
		}
		cur.SeatsPerRow = *patch.SeatsPerRow
	}
	if patch.SurchargeCents != nil {
		if *patch.SurchargeCents < 0 {
			return nil, model.ErrInvalidOperation
		}
		cur.SurchargeCents = *patch.SurchargeCents
	}
	if patch.Active != nil {
		cur.Active = *patch.Active
	}
	if patch.DolbyAtmos != nil {
		cur.DolbyAtmos = *patch.DolbyAtmos
	}
	if patch.WheelchairAccess != nil {
		cur.WheelchairAccess = *patch.WheelchairAccess
	}
	if patch.Notes != nil {
		cur.Notes = *patch.Notes
	}
	if err := s.rooms.Update(ctx, cur); err != nil {
		return nil, err
	}
	return cur, nil
}

// DeleteRoom removes a room that has never hosted a screening; otherwise it
// deactivates the room and reports the tagged outcome.
func (s *SchedulingService) DeleteRoom(ctx context.Context, id uint64) (DeleteResult, error) {
	if _, err := s.rooms.GetByID(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	hosted, err := s.rooms.CountScreenings(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}
	if hosted > 0 {
		if err := s.rooms.Deactivate(ctx, id); err != nil {
			return DeleteResult{}, err
		}
		return DeleteResult{Outcome: OutcomeDeactivated, Reason: "room has hosted screenings"}, nil
	}
	if err := s.rooms.Delete(ctx, id); err != nil {
		return DeleteResult{}, err
	}
	return DeleteResult{Outcome: OutcomeDeleted}, nil
}

// GetRoom returns one room.
func (s *SchedulingService) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return s.rooms.GetByID(ctx, id)
}

// ListRooms returns all rooms.
func (s *SchedulingService) ListRooms(ctx context.Context) ([]model.Room, error) {
	return s.rooms.List(ctx)
}
