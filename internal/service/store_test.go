package service

// memStore is an in-memory implementation of every store interface, used to
// exercise the services without a database.  It mirrors the transactional
// semantics of the MySQL repositories: guard checks happen together with
// the write, capacity is re-aggregated from live reservations on every
// mutation, and overdue pending holds are expired lazily.

import (
	"context"
	"time"

	"github.com/kinohub/cinema-scheduling/internal/model"
	"github.com/kinohub/cinema-scheduling/internal/schedule"
)

type memStore struct {
	films        map[uint64]*model.Film
	rooms        map[uint64]*model.Room
	screenings   map[uint64]*model.Screening
	reservations map[uint64]*model.Reservation
	customers    map[uint64]*model.Customer
	nextID       uint64
	now          func() time.Time
}

// testClock is a movable clock for exercising expiry.
type testClock struct {
	t time.Time
}

func (c *testClock) Now() time.Time { return c.t }

func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		films:        map[uint64]*model.Film{},
		rooms:        map[uint64]*model.Room{},
		screenings:   map[uint64]*model.Screening{},
		reservations: map[uint64]*model.Reservation{},
		customers:    map[uint64]*model.Customer{},
		now:          now,
	}
}

func (m *memStore) id() uint64 {
	m.nextID++
	return m.nextID
}

// --- FilmStore ---

func (m *memStore) Create(ctx context.Context, f *model.Film) error {
	f.ID = m.id()
	f.Active = true
	cp := *f
	m.films[f.ID] = &cp
	return nil
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (*model.Film, error) {
	f, ok := m.films[id]
	if !ok {
		return nil, model.ErrFilmNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *memStore) List(ctx context.Context) ([]model.Film, error) {
	out := make([]model.Film, 0, len(m.films))
	for _, f := range m.films {
		out = append(out, *f)
	}
	return out, nil
}

func (m *memStore) Update(ctx context.Context, f *model.Film) error {
	if _, ok := m.films[f.ID]; !ok {
		return model.ErrFilmNotFound
	}
	cp := *f
	m.films[f.ID] = &cp
	return nil
}

func (m *memStore) Deactivate(ctx context.Context, id uint64) error {
	f, ok := m.films[id]
	if !ok {
		return model.ErrFilmNotFound
	}
	f.Active = false
	return nil
}

func (m *memStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := m.films[id]; !ok {
		return model.ErrFilmNotFound
	}
	for _, s := range m.screenings {
		if s.FilmID == id {
			return model.ErrInvalidOperation
		}
	}
	delete(m.films, id)
	return nil
}

func (m *memStore) CountScreenings(ctx context.Context, id uint64) (int, error) {
	n := 0
	for _, s := range m.screenings {
		if s.FilmID == id {
			n++
		}
	}
	return n, nil
}

// memStore itself satisfies FilmStore; the wrappers below shadow the
// identically named methods for the other entities.

type roomStore struct{ *memStore }

func (r roomStore) Create(ctx context.Context, rm *model.Room) error {
	rm.ID = r.memStore.id()
	rm.Active = true
	cp := *rm
	r.rooms[rm.ID] = &cp
	return nil
}

func (r roomStore) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	rm, ok := r.rooms[id]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	cp := *rm
	return &cp, nil
}

func (r roomStore) List(ctx context.Context) ([]model.Room, error) {
	out := make([]model.Room, 0, len(r.rooms))
	for _, rm := range r.rooms {
		out = append(out, *rm)
	}
	return out, nil
}

func (r roomStore) Update(ctx context.Context, rm *model.Room) error {
	if _, ok := r.rooms[rm.ID]; !ok {
		return model.ErrRoomNotFound
	}
	cp := *rm
	r.rooms[rm.ID] = &cp
	return nil
}

func (r roomStore) Deactivate(ctx context.Context, id uint64) error {
	rm, ok := r.rooms[id]
	if !ok {
		return model.ErrRoomNotFound
	}
	rm.Active = false
	return nil
}

func (r roomStore) Delete(ctx context.Context, id uint64) error {
	if _, ok := r.rooms[id]; !ok {
		return model.ErrRoomNotFound
	}
	for _, s := range r.screenings {
		if s.RoomID == id {
			return model.ErrInvalidOperation
		}
	}
	delete(r.rooms, id)
	return nil
}

func (r roomStore) CountScreenings(ctx context.Context, id uint64) (int, error) {
	n := 0
	for _, s := range r.screenings {
		if s.RoomID == id {
			n++
		}
	}
	return n, nil
}

func (r roomStore) CountActiveFutureScreenings(ctx context.Context, id uint64, now time.Time) (int, error) {
	n := 0
	for _, s := range r.screenings {
		if s.RoomID == id && s.Active && s.StartsAt.After(now) {
			n++
		}
	}
	return n, nil
}

// --- ScreeningStore ---

type screeningStore struct{ *memStore }

func (s screeningStore) conflicts(roomID, excludeID uint64, start, end time.Time) []model.Screening {
	var out []model.Screening
	for _, sc := range s.screenings {
		if sc.RoomID != roomID || sc.ID == excludeID || !sc.Active {
			continue
		}
		if schedule.Overlaps(start, end, sc.StartsAt, sc.EndsAt) {
			out = append(out, *sc)
		}
	}
	return out
}

func (s screeningStore) confirmedCount(screeningID uint64) int {
	n := 0
	for _, r := range s.reservations {
		if r.ScreeningID == screeningID &&
			(r.Status == model.ReservationConfirmed || r.Status == model.ReservationPaid) {
			n++
		}
	}
	return n
}

func (s screeningStore) CreateScheduled(ctx context.Context, sc *model.Screening) error {
	if _, ok := s.rooms[sc.RoomID]; !ok {
		return model.ErrRoomNotFound
	}
	if len(s.conflicts(sc.RoomID, 0, sc.StartsAt, sc.EndsAt)) > 0 {
		return model.ErrScheduleConflict
	}
	sc.ID = s.memStore.id()
	cp := *sc
	s.screenings[sc.ID] = &cp
	return nil
}

func (s screeningStore) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	sc, ok := s.screenings[id]
	if !ok {
		return nil, model.ErrScreeningNotFound
	}
	cp := *sc
	return &cp, nil
}

func (s screeningStore) List(ctx context.Context, roomID uint64) ([]model.Screening, error) {
	out := make([]model.Screening, 0)
	for _, sc := range s.screenings {
		if roomID == 0 || sc.RoomID == roomID {
			out = append(out, *sc)
		}
	}
	return out, nil
}

func (s screeningStore) FindOverlapping(ctx context.Context, roomID uint64, start, end time.Time, excludeID uint64) ([]model.Screening, error) {
	return s.conflicts(roomID, excludeID, start, end), nil
}

func (s screeningStore) CountConfirmed(ctx context.Context, screeningID uint64) (int, error) {
	return s.confirmedCount(screeningID), nil
}

func (s screeningStore) Update(ctx context.Context, sc *model.Screening, guard model.ScreeningUpdateGuard) error {
	if _, ok := s.screenings[sc.ID]; !ok {
		return model.ErrScreeningNotFound
	}
	if guard.RequireNoConfirmed && s.confirmedCount(sc.ID) > 0 {
		return model.ErrInvalidOperation
	}
	if guard.CheckConflict {
		if len(s.conflicts(sc.RoomID, sc.ID, sc.StartsAt, sc.EndsAt)) > 0 {
			return model.ErrScheduleConflict
		}
	}
	cp := *sc
	s.screenings[sc.ID] = &cp
	return nil
}

func (s screeningStore) DeletePurging(ctx context.Context, id uint64) error {
	if _, ok := s.screenings[id]; !ok {
		return model.ErrScreeningNotFound
	}
	if s.confirmedCount(id) > 0 {
		return model.ErrInvalidOperation
	}
	for rid, r := range s.reservations {
		if r.ScreeningID == id {
			delete(s.reservations, rid)
		}
	}
	delete(s.screenings, id)
	return nil
}

// --- ReservationStore ---

type reservationStore struct{ *memStore }

func (r reservationStore) expireOverdue(screeningID uint64) {
	now := r.now()
	for _, res := range r.reservations {
		if res.ScreeningID == screeningID && res.Status == model.ReservationPending && !res.ExpiresAt.After(now) {
			res.Status = model.ReservationExpired
		}
	}
}

func (r reservationStore) liveQuantity(screeningID, excludeID uint64) int {
	sum := 0
	for _, res := range r.reservations {
		if res.ScreeningID == screeningID && res.ID != excludeID && model.IsLive(res.Status) {
			sum += res.Quantity
		}
	}
	return sum
}

func (r reservationStore) refreshCounters(screeningID uint64, total, live int) {
	sc := r.screenings[screeningID]
	sc.SeatsAvailable = total - live
	sc.SeatsReserved = live
}

func (r reservationStore) CreateReserving(ctx context.Context, res *model.Reservation) error {
	sc, ok := r.screenings[res.ScreeningID]
	if !ok {
		return model.ErrScreeningNotFound
	}
	total := sc.SeatsAvailable + sc.SeatsReserved
	r.expireOverdue(res.ScreeningID)
	live := r.liveQuantity(res.ScreeningID, 0)
	if live+res.Quantity > total {
		return model.ErrInsufficientCapacity
	}
	res.ID = r.memStore.id()
	res.CreatedAt = r.now()
	cp := *res
	r.reservations[res.ID] = &cp
	r.refreshCounters(res.ScreeningID, total, live+res.Quantity)
	return nil
}

func (r reservationStore) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	res, ok := r.reservations[id]
	if !ok {
		return nil, model.ErrReservationNotFound
	}
	cp := *res
	return &cp, nil
}

func (r reservationStore) GetByCode(ctx context.Context, code string) (*model.Reservation, error) {
	for _, res := range r.reservations {
		if res.Code == code {
			cp := *res
			return &cp, nil
		}
	}
	return nil, model.ErrReservationNotFound
}

func (r reservationStore) ListByScreening(ctx context.Context, screeningID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, res := range r.reservations {
		if res.ScreeningID == screeningID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r reservationStore) ListByCustomer(ctx context.Context, customerID uint64) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	for _, res := range r.reservations {
		if res.CustomerID == customerID {
			out = append(out, *res)
		}
	}
	return out, nil
}

func (r reservationStore) Transition(ctx context.Context, id uint64, from, to model.ReservationStatus, paidAt *time.Time, confirmedBy *uint64) error {
	res, ok := r.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	if res.Status != from {
		return model.ErrInvalidTransition
	}
	res.Status = to
	if paidAt != nil {
		t := *paidAt
		res.PaidAt = &t
	}
	if confirmedBy != nil {
		v := *confirmedBy
		res.ConfirmedBy = &v
	}
	if to == model.ReservationCancelled || to == model.ReservationExpired {
		sc := r.screenings[res.ScreeningID]
		total := sc.SeatsAvailable + sc.SeatsReserved
		r.expireOverdue(res.ScreeningID)
		r.refreshCounters(res.ScreeningID, total, r.liveQuantity(res.ScreeningID, 0))
	}
	return nil
}

func (r reservationStore) Resize(ctx context.Context, id uint64, newQuantity int, subtotalCents, totalCents int64) error {
	res, ok := r.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	sc := r.screenings[res.ScreeningID]
	total := sc.SeatsAvailable + sc.SeatsReserved
	r.expireOverdue(res.ScreeningID)
	if res.Status != model.ReservationPending && res.Status != model.ReservationConfirmed {
		return model.ErrInvalidOperation
	}
	live := r.liveQuantity(res.ScreeningID, id)
	if live+newQuantity > total {
		return model.ErrInsufficientCapacity
	}
	res.Quantity = newQuantity
	res.SubtotalCents = subtotalCents
	res.TotalCents = totalCents
	r.refreshCounters(res.ScreeningID, total, live+newQuantity)
	return nil
}

func (r reservationStore) DeleteReleasing(ctx context.Context, id uint64) error {
	res, ok := r.reservations[id]
	if !ok {
		return model.ErrReservationNotFound
	}
	if res.Status == model.ReservationPaid || res.Status == model.ReservationUsed {
		return model.ErrInvalidOperation
	}
	wasLive := model.IsLive(res.Status)
	delete(r.reservations, id)
	if wasLive {
		sc := r.screenings[res.ScreeningID]
		total := sc.SeatsAvailable + sc.SeatsReserved
		r.expireOverdue(res.ScreeningID)
		r.refreshCounters(res.ScreeningID, total, r.liveQuantity(res.ScreeningID, 0))
	}
	return nil
}

func (r reservationStore) LiveAvailability(ctx context.Context, screeningID uint64) (int, int, error) {
	sc, ok := r.screenings[screeningID]
	if !ok {
		return 0, 0, model.ErrScreeningNotFound
	}
	total := sc.SeatsAvailable + sc.SeatsReserved
	now := r.now()
	live := 0
	for _, res := range r.reservations {
		if res.ScreeningID != screeningID || !model.IsLive(res.Status) {
			continue
		}
		if res.Status == model.ReservationPending && !res.ExpiresAt.After(now) {
			continue
		}
		live += res.Quantity
	}
	return total - live, live, nil
}

// --- CustomerStore ---

type customerStore struct{ *memStore }

func (c customerStore) Create(ctx context.Context, cust *model.Customer) error {
	cust.ID = c.memStore.id()
	cust.Active = true
	cp := *cust
	c.customers[cust.ID] = &cp
	return nil
}

func (c customerStore) GetByID(ctx context.Context, id uint64) (*model.Customer, error) {
	cust, ok := c.customers[id]
	if !ok {
		return nil, model.ErrCustomerNotFound
	}
	cp := *cust
	return &cp, nil
}

func (c customerStore) List(ctx context.Context) ([]model.Customer, error) {
	out := make([]model.Customer, 0, len(c.customers))
	for _, cust := range c.customers {
		out = append(out, *cust)
	}
	return out, nil
}
