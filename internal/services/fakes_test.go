package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/notify"
	"shuttlebus/internal/repositories"
	"shuttlebus/internal/worker"
)

// memDB is an in-memory stand-in for the MySQL schema. Each trip has its own mutex so
// WithTripLock serializes per trip only, like SELECT ... FOR UPDATE.
type memDB struct {
	mu           sync.Mutex
	trips        map[string]*memTrip
	reservations map[string]models.Reservation
	users        map[string]models.User
	settings     map[string]bool

	lockCalls int
}

type memTrip struct {
	lock sync.Mutex
	trip models.Trip
}

func newMemDB() *memDB {
	return &memDB{
		trips:        map[string]*memTrip{},
		reservations: map[string]models.Reservation{},
		users:        map[string]models.User{},
		settings:     map[string]bool{},
	}
}

func (m *memDB) addTrip(id string, capacity int, departure time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[id] = &memTrip{trip: models.Trip{ID: id, Capacity: capacity, DepartureAt: departure, Status: models.Scheduled()}}
}

func (m *memDB) addUser(id, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = models.User{ID: id, Name: "User " + id, Email: id + "@example.com", Role: role}
}

func (m *memDB) tripState(id string) models.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trips[id].trip
}

func (m *memDB) seats(tripID string) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []int
	for _, r := range m.reservations {
		if r.TripID == tripID {
			out = append(out, r.SeatNumber)
		}
	}
	sort.Ints(out)
	return out
}

func (m *memDB) insertRaw(r models.Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[r.ID] = r
}

// reservations view

type memReservations struct{ db *memDB }

func (v memReservations) WithTripLock(ctx context.Context, tripID string, fn func(repositories.SeatLedger) error) error {
	v.db.mu.Lock()
	t, ok := v.db.trips[tripID]
	v.db.lockCalls++
	v.db.mu.Unlock()
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.lock.Lock()
	defer t.lock.Unlock()

	v.db.mu.Lock()
	snapshot := t.trip
	v.db.mu.Unlock()
	return fn(&memLedger{db: v.db, trip: snapshot})
}

type memLedger struct {
	db   *memDB
	trip models.Trip
}

func (l *memLedger) Trip() models.Trip { return l.trip }

func (l *memLedger) NextSeat(ctx context.Context) (int, error) {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	max := 0
	for _, r := range l.db.reservations {
		if r.TripID == l.trip.ID && r.SeatNumber > max {
			max = r.SeatNumber
		}
	}
	// Widen the window between read and insert so an unserialized caller would race.
	time.Sleep(time.Millisecond)
	return max + 1, nil
}

func (l *memLedger) Insert(ctx context.Context, res models.Reservation) error {
	l.db.mu.Lock()
	defer l.db.mu.Unlock()
	for _, r := range l.db.reservations {
		if r.TripID == res.TripID && (r.UserID == res.UserID || r.SeatNumber == res.SeatNumber) {
			return domain.ConflictError{Resource: "reservation", Msg: "already booked"}
		}
	}
	l.db.reservations[res.ID] = res
	return nil
}

func (v memReservations) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	r, ok := v.db.reservations[id]
	if !ok || r.UserID != userID {
		return false, nil
	}
	delete(v.db.reservations, id)
	return true, nil
}

func (v memReservations) Delete(ctx context.Context, id string) (bool, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	if _, ok := v.db.reservations[id]; !ok {
		return false, nil
	}
	delete(v.db.reservations, id)
	return true, nil
}

func (v memReservations) DeleteByTrip(ctx context.Context, tripID string) (int64, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	var n int64
	for id, r := range v.db.reservations {
		if r.TripID == tripID {
			delete(v.db.reservations, id)
			n++
		}
	}
	return n, nil
}

func (v memReservations) Holders(ctx context.Context, tripID string) ([]models.Recipient, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	var out []models.Recipient
	for _, r := range v.db.reservations {
		if r.TripID != tripID {
			continue
		}
		u := v.db.users[r.UserID]
		out = append(out, models.Recipient{Name: u.Name, Email: u.Email})
	}
	return out, nil
}

func (v memReservations) ListByUser(ctx context.Context, userID string) ([]models.MyReservation, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	var out []models.MyReservation
	for _, r := range v.db.reservations {
		if r.UserID == userID {
			out = append(out, models.MyReservation{ReservationID: r.ID, TripID: r.TripID, SeatNumber: r.SeatNumber})
		}
	}
	return out, nil
}

func (v memReservations) Ticket(ctx context.Context, id, userID string) (models.TicketData, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	r, ok := v.db.reservations[id]
	if !ok || r.UserID != userID {
		return models.TicketData{}, domain.NotFoundError{Resource: "reservation"}
	}
	u := v.db.users[r.UserID]
	return models.TicketData{
		ReservationID: r.ID,
		SeatNumber:    r.SeatNumber,
		PassengerName: u.Name,
		Email:         u.Email,
		Trip:          models.TripSummary{TripID: r.TripID, Source: "Campus", Destination: "Station", VehicleName: "Bus 1"},
	}, nil
}

// trips view

type memTrips struct{ db *memDB }

func (v memTrips) Summary(ctx context.Context, id string) (models.TripSummary, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	t, ok := v.db.trips[id]
	if !ok {
		return models.TripSummary{}, domain.NotFoundError{Resource: "trip"}
	}
	return models.TripSummary{
		TripID:      id,
		Source:      "Campus",
		Destination: "Station",
		DepartureAt: t.trip.DepartureAt,
		VehicleName: "Bus 1",
		Status:      t.trip.Status.String(),
	}, nil
}

func (v memTrips) ListDueForReminder(ctx context.Context, from, to time.Time) ([]string, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	var out []string
	for id, t := range v.db.trips {
		if !t.trip.Notified && t.trip.DepartureAt.After(from) && !t.trip.DepartureAt.After(to) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (v memTrips) ClaimReminder(ctx context.Context, id string) (bool, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	t, ok := v.db.trips[id]
	if !ok || t.trip.Notified {
		return false, nil
	}
	t.trip.Notified = true
	return true, nil
}

func (v memTrips) ReleaseReminder(ctx context.Context, id string) error {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	if t, ok := v.db.trips[id]; ok {
		t.trip.Notified = false
	}
	return nil
}

// statuses view

type memStatuses struct{ db *memDB }

func (v memStatuses) Upsert(ctx context.Context, tripID string, st models.OperationalStatus) error {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	t, ok := v.db.trips[tripID]
	if !ok {
		return domain.NotFoundError{Resource: "trip"}
	}
	t.trip.Status = st
	return nil
}

func (v memStatuses) Delete(ctx context.Context, tripID string) error {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	if t, ok := v.db.trips[tripID]; ok {
		t.trip.Status = models.Scheduled()
	}
	return nil
}

// settings view

type memSettings struct {
	db  *memDB
	err error
}

func (v memSettings) GetBool(ctx context.Context, key string) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	return v.db.settings[key], nil
}

func (v memSettings) SetBool(ctx context.Context, key string, on bool) error {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	v.db.settings[key] = on
	return nil
}

// users view

type memUsers struct{ db *memDB }

func (v memUsers) IsAdmin(ctx context.Context, id string) (bool, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	return v.db.users[id].Role == domain.RoleAdmin, nil
}

func (v memUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	u, ok := v.db.users[id]
	if !ok {
		return u, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (v memUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	for _, u := range v.db.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (v memUsers) Create(ctx context.Context, u models.User) error {
	v.db.mu.Lock()
	defer v.db.mu.Unlock()
	for _, existing := range v.db.users {
		if existing.Email == u.Email {
			return domain.ConflictError{Resource: "user", Msg: "email already registered"}
		}
	}
	v.db.users[u.ID] = u
	return nil
}

// recordingSink keeps every message it is asked to send.
type recordingSink struct {
	mu       sync.Mutex
	disabled bool
	err      error
	sent     []notify.Message
}

func (s *recordingSink) Enabled() bool { return !s.disabled }

func (s *recordingSink) Send(ctx context.Context, msg notify.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func (s *recordingSink) messages() []notify.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notify.Message(nil), s.sent...)
}

// inlinePool runs tasks on the caller's goroutine.
type inlinePool struct {
	mu     sync.Mutex
	refuse bool
	names  []string
}

func (p *inlinePool) Submit(name string, fn worker.Task) bool {
	if p.refuse {
		return false
	}
	p.mu.Lock()
	p.names = append(p.names, name)
	p.mu.Unlock()
	fn(context.Background())
	return true
}

// fixture wires every service over one memDB.
type fixture struct {
	db    *memDB
	sink  *recordingSink
	pool  *inlinePool
	now   time.Time
	notif NotificationService
}

func newFixture() *fixture {
	f := &fixture{
		db:   newMemDB(),
		sink: &recordingSink{},
		pool: &inlinePool{},
		now:  time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC),
	}
	f.notif = NotificationService{
		Trips:   memTrips{db: f.db},
		Holders: memReservations{db: f.db},
		Users:   memUsers{db: f.db},
		Sink:    f.sink,
		Pool:    f.pool,
		Window:  DefaultReminderWindow,
	}
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func (f *fixture) reservations() ReservationService {
	return ReservationService{
		Store:    memReservations{db: f.db},
		Gate:     f.maintenance(),
		Notifier: f.notif,
		Now:      f.clock,
	}
}

func (f *fixture) maintenance() MaintenanceService {
	return MaintenanceService{Settings: memSettings{db: f.db}, Users: memUsers{db: f.db}}
}

func (f *fixture) statuses() TripStatusService {
	return TripStatusService{
		Statuses:     memStatuses{db: f.db},
		Reservations: memReservations{db: f.db},
		Users:        memUsers{db: f.db},
		Notifier:     f.notif,
		Pool:         f.pool,
	}
}

func (f *fixture) scheduler() *ReminderScheduler {
	s := NewReminderScheduler(memTrips{db: f.db}, f.notif, time.Minute, DefaultReminderWindow)
	s.Now = f.clock
	return s
}
