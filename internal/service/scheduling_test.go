package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinohub/cinema-scheduling/internal/model"
)

type fixture struct {
	store *memStore
	clk   *testClock
	sched *SchedulingService
	resv  *ReservationService
	film  *model.Film
	room  *model.Room
}

// newFixture wires both services over one shared in-memory store with a
// 120-minute film and a 10x10 room (capacity 100, 2.00 surcharge).
func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &testClock{t: time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)}
	ms := newMemStore(clk.Now)

	sched := NewSchedulingService(ms, roomStore{ms}, screeningStore{ms}, clk)
	resv := NewReservationService(screeningStore{ms}, roomStore{ms}, customerStore{ms}, reservationStore{ms}, clk)

	ctx := context.Background()
	film, err := sched.CreateFilm(ctx, FilmInput{Title: "Arrival", DurationMinutes: 120, Rating: "PG-13"})
	require.NoError(t, err)
	room, err := sched.CreateRoom(ctx, RoomInput{
		Number: 1, Name: "Sala 1", Type: model.RoomStandard,
		Rows: 10, SeatsPerRow: 10, SurchargeCents: 200,
	})
	require.NoError(t, err)

	return &fixture{store: ms, clk: clk, sched: sched, resv: resv, film: film, room: room}
}

func (f *fixture) screeningAt(t *testing.T, start time.Time) *model.Screening {
	t.Helper()
	sc, err := f.sched.CreateScreening(context.Background(), CreateScreeningInput{
		FilmID: f.film.ID, RoomID: f.room.ID, StartsAt: start, BasePriceCents: 1500,
	})
	require.NoError(t, err)
	return sc
}

func (f *fixture) customer(t *testing.T) *model.Customer {
	t.Helper()
	c, err := f.resv.CreateCustomer(context.Background(), "Ana Petrova", "ana@example.com", "+38970111222")
	require.NoError(t, err)
	return c
}

func TestCreateScreeningDerivesEndAndCounters(t *testing.T) {
	f := newFixture(t)
	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

	sc := f.screeningAt(t, start)

	assert.Equal(t, time.Date(2026, 6, 1, 20, 30, 0, 0, time.UTC), sc.EndsAt, "end = start + runtime + cleanup")
	assert.Equal(t, 100, sc.SeatsAvailable)
	assert.Equal(t, 0, sc.SeatsReserved)
	assert.True(t, sc.Active)
}

func TestCreateScreeningRefusesOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)) // occupies 18:00-20:30

	_, err := f.sched.CreateScreening(ctx, CreateScreeningInput{
		FilmID: f.film.ID, RoomID: f.room.ID,
		StartsAt: time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC), BasePriceCents: 1500,
	})
	assert.ErrorIs(t, err, model.ErrScheduleConflict)

	// A slot starting exactly at the previous end is not a conflict.
	_, err = f.sched.CreateScreening(ctx, CreateScreeningInput{
		FilmID: f.film.ID, RoomID: f.room.ID,
		StartsAt: time.Date(2026, 6, 1, 20, 30, 0, 0, time.UTC), BasePriceCents: 1500,
	})
	assert.NoError(t, err)
}

func TestCreateScreeningAllowsOtherRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room2, err := f.sched.CreateRoom(ctx, RoomInput{
		Number: 2, Name: "Sala 2", Type: model.RoomVIP,
		Rows: 5, SeatsPerRow: 8, SurchargeCents: 500,
	})
	require.NoError(t, err)

	start := time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)
	f.screeningAt(t, start)

	sc, err := f.sched.CreateScreening(ctx, CreateScreeningInput{
		FilmID: f.film.ID, RoomID: room2.ID, StartsAt: start, BasePriceCents: 1800,
	})
	require.NoError(t, err)
	assert.Equal(t, 40, sc.SeatsAvailable)
}

func TestCreateScreeningRejectsInactiveFilm(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	off := false
	_, err := f.sched.UpdateFilm(ctx, f.film.ID, FilmPatch{Active: &off})
	require.NoError(t, err)

	_, err = f.sched.CreateScreening(ctx, CreateScreeningInput{
		FilmID: f.film.ID, RoomID: f.room.ID,
		StartsAt: time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC), BasePriceCents: 1500,
	})
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
}

func TestUpdateScreeningRecomputesEnd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	newStart := time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC)
	got, err := f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{StartsAt: &newStart})
	require.NoError(t, err)
	assert.Equal(t, newStart, got.StartsAt)
	assert.Equal(t, time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC), got.EndsAt)
}

func TestUpdateScreeningConflictExcludesSelf(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	// Nudging a screening within its own slot must not collide with itself.
	nudged := time.Date(2026, 6, 1, 18, 15, 0, 0, time.UTC)
	_, err := f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{StartsAt: &nudged})
	assert.NoError(t, err)

	// But it still collides with a neighbour.
	f.screeningAt(t, time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC))
	clash := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	_, err = f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{StartsAt: &clash})
	assert.ErrorIs(t, err, model.ErrScheduleConflict)
}

func TestUpdateScreeningRoomChangeResetsCounters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room2, err := f.sched.CreateRoom(ctx, RoomInput{
		Number: 2, Name: "Sala 2", Type: model.RoomPremium,
		Rows: 6, SeatsPerRow: 6, SurchargeCents: 300,
	})
	require.NoError(t, err)

	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	got, err := f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{RoomID: &room2.ID})
	require.NoError(t, err)
	assert.Equal(t, room2.ID, got.RoomID)
	assert.Equal(t, 36, got.SeatsAvailable)
	assert.Equal(t, 0, got.SeatsReserved)
}

func TestUpdateScreeningRestrictedOnceConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	cust := f.customer(t)

	res, err := f.resv.Create(ctx, CreateReservationInput{
		CustomerID: cust.ID, ScreeningID: sc.ID, Quantity: 2, PaymentMethod: "CARD",
	})
	require.NoError(t, err)
	_, err = f.resv.Transition(ctx, res.ID, model.ReservationConfirmed, nil)
	require.NoError(t, err)

	// Price and visibility still editable; the start change is dropped.
	newStart := time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC)
	newPrice := int64(1700)
	got, err := f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{StartsAt: &newStart, BasePriceCents: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, sc.StartsAt, got.StartsAt)
	assert.Equal(t, int64(1700), got.BasePriceCents)

	// A patch with nothing applicable left is refused.
	_, err = f.sched.UpdateScreening(ctx, sc.ID, ScreeningPatch{StartsAt: &newStart})
	assert.ErrorIs(t, err, model.ErrInvalidOperation)
}

func TestDeleteScreening(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))
	cust := f.customer(t)

	res, err := f.resv.Create(ctx, CreateReservationInput{
		CustomerID: cust.ID, ScreeningID: sc.ID, Quantity: 2, PaymentMethod: "CASH",
	})
	require.NoError(t, err)
	_, err = f.resv.Transition(ctx, res.ID, model.ReservationConfirmed, nil)
	require.NoError(t, err)

	// Confirmed reservations pin the screening.
	err = f.sched.DeleteScreening(ctx, sc.ID)
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	_, err = f.resv.Transition(ctx, res.ID, model.ReservationCancelled, nil)
	require.NoError(t, err)

	// Without them the screening goes, purging its remaining reservations.
	require.NoError(t, f.sched.DeleteScreening(ctx, sc.ID))
	_, err = f.sched.GetScreening(ctx, sc.ID)
	assert.ErrorIs(t, err, model.ErrScreeningNotFound)
	_, err = f.resv.Get(ctx, res.ID)
	assert.ErrorIs(t, err, model.ErrReservationNotFound)
}

func TestDeleteFilmOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	out, err := f.sched.DeleteFilm(ctx, f.film.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeactivated, out.Outcome)
	got, err := f.sched.GetFilm(ctx, f.film.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	fresh, err := f.sched.CreateFilm(ctx, FilmInput{Title: "Short", DurationMinutes: 80})
	require.NoError(t, err)
	out, err = f.sched.DeleteFilm(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, out.Outcome)
	_, err = f.sched.GetFilm(ctx, fresh.ID)
	assert.ErrorIs(t, err, model.ErrFilmNotFound)
}

func TestUpdateRoomFrozenWhileScheduled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	rows := uint32(12)
	_, err := f.sched.UpdateRoom(ctx, f.room.ID, RoomPatch{Rows: &rows})
	assert.ErrorIs(t, err, model.ErrInvalidOperation)

	// Non-structural fields stay editable.
	surcharge := int64(350)
	atmos := true
	got, err := f.sched.UpdateRoom(ctx, f.room.ID, RoomPatch{SurchargeCents: &surcharge, DolbyAtmos: &atmos})
	require.NoError(t, err)
	assert.Equal(t, int64(350), got.SurchargeCents)
	assert.True(t, got.DolbyAtmos)
}

func TestDeleteRoomOutcome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	out, err := f.sched.DeleteRoom(ctx, f.room.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeactivated, out.Outcome)

	spare, err := f.sched.CreateRoom(ctx, RoomInput{
		Number: 9, Name: "Sala 9", Type: model.RoomIMAX, Rows: 4, SeatsPerRow: 4,
	})
	require.NoError(t, err)
	out, err = f.sched.DeleteRoom(ctx, spare.ID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, out.Outcome)
}

func TestFindConflictsPreview(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sc := f.screeningAt(t, time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC))

	hits, err := f.sched.FindConflicts(ctx,
		f.room.ID,
		time.Date(2026, 6, 1, 19, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 21, 0, 0, 0, time.UTC),
		0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, sc.ID, hits[0].ID)

	hits, err = f.sched.FindConflicts(ctx,
		f.room.ID,
		time.Date(2026, 6, 1, 20, 30, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 22, 0, 0, 0, time.UTC),
		0)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
