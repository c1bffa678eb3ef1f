package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"shuttlebus/internal/auth"
	intconfig "shuttlebus/internal/config"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	h "shuttlebus/internal/http/handlers"
	"shuttlebus/internal/repositories"
	"shuttlebus/internal/services"
)

const testSecret = "router-secret"

type stubSettings struct {
	mu sync.Mutex
	m  map[string]bool
}

func (s *stubSettings) GetBool(ctx context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[key], nil
}

func (s *stubSettings) SetBool(ctx context.Context, key string, v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
	return nil
}

type stubUsers struct{ roles map[string]string }

func (s stubUsers) IsAdmin(ctx context.Context, id string) (bool, error) {
	return s.roles[id] == domain.RoleAdmin, nil
}

func (s stubUsers) GetByID(ctx context.Context, id string) (models.User, error) {
	if _, ok := s.roles[id]; !ok {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return models.User{ID: id, Name: id, Email: id + "@example.com", Role: s.roles[id]}, nil
}

func (s stubUsers) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (s stubUsers) Create(ctx context.Context, u models.User) error { return nil }

// oneSeatStore holds a single trip with one seat.
type oneSeatStore struct {
	mu    sync.Mutex
	taken []models.Reservation
}

type oneSeatLedger struct{ s *oneSeatStore }

func (l oneSeatLedger) Trip() models.Trip {
	return models.Trip{ID: "trip-1", Capacity: 1, DepartureAt: time.Now().Add(48 * time.Hour)}
}

func (l oneSeatLedger) NextSeat(ctx context.Context) (int, error) { return len(l.s.taken) + 1, nil }

func (l oneSeatLedger) Insert(ctx context.Context, r models.Reservation) error {
	l.s.taken = append(l.s.taken, r)
	return nil
}

func (s *oneSeatStore) WithTripLock(ctx context.Context, tripID string, fn func(repositories.SeatLedger) error) error {
	if tripID != "trip-1" {
		return domain.NotFoundError{Resource: "trip"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(oneSeatLedger{s: s})
}

func (s *oneSeatStore) DeleteOwned(ctx context.Context, id, userID string) (bool, error) { return false, nil }
func (s *oneSeatStore) Delete(ctx context.Context, id string) (bool, error)              { return false, nil }
func (s *oneSeatStore) ListByUser(ctx context.Context, userID string) ([]models.MyReservation, error) {
	return nil, nil
}
func (s *oneSeatStore) Ticket(ctx context.Context, id, userID string) (models.TicketData, error) {
	return models.TicketData{}, domain.NotFoundError{Resource: "reservation"}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	users := stubUsers{roles: map[string]string{"admin": domain.RoleAdmin, "alice": domain.RoleUser, "bob": domain.RoleUser}}
	maintenance := services.MaintenanceService{
		Settings: &stubSettings{m: map[string]bool{"maintenance_mode": true}},
		Users:    users,
	}
	api := &h.API{
		Maintenance: maintenance,
		Reservations: services.ReservationService{
			Store: &oneSeatStore{},
			Gate:  maintenance,
		},
		Statuses: services.TripStatusService{Users: users},
		Location: time.UTC,
	}
	env := intconfig.Env{JWTSecret: testSecret, CORSOrigins: []string{"http://localhost:5173"}}
	return NewRouter(env, api)
}

func call(t *testing.T, r http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		role := domain.RoleUser
		if user == "admin" {
			role = domain.RoleAdmin
		}
		tok, err := auth.GenerateToken(user, role, testSecret, time.Hour)
		if err != nil {
			t.Fatalf("token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestReservationFlowThroughRouter(t *testing.T) {
	r := newTestRouter()

	if w := call(t, r, http.MethodGet, "/api/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("health = %d", w.Code)
	}
	if w := call(t, r, http.MethodPost, "/api/reservations", "", gin.H{"trip_id": "trip-1"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous booking = %d", w.Code)
	}
	if w := call(t, r, http.MethodPost, "/api/reservations", "alice", gin.H{"trip_id": "trip-1"}); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("booking under maintenance = %d (%s)", w.Code, w.Body.String())
	}
	if w := call(t, r, http.MethodPost, "/api/admin/maintenance", "alice", gin.H{"enabled": false}); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin toggle = %d", w.Code)
	}
	if w := call(t, r, http.MethodPost, "/api/admin/maintenance", "admin", gin.H{"enabled": false}); w.Code != http.StatusOK {
		t.Fatalf("admin toggle = %d (%s)", w.Code, w.Body.String())
	}
	w := call(t, r, http.MethodGet, "/api/maintenance", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte(`"enabled":false`)) {
		t.Fatalf("public maintenance read = %d %s", w.Code, w.Body.String())
	}

	w = call(t, r, http.MethodPost, "/api/reservations", "alice", gin.H{"trip_id": "trip-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("booking = %d (%s)", w.Code, w.Body.String())
	}
	var res models.Reservation
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil || res.SeatNumber != 1 {
		t.Fatalf("unexpected reservation %s", w.Body.String())
	}
	if w := call(t, r, http.MethodPost, "/api/reservations", "bob", gin.H{"trip_id": "trip-1"}); w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("booking a full trip = %d", w.Code)
	}
	if w := call(t, r, http.MethodPost, "/api/reservations", "bob", gin.H{"trip_id": "nope"}); w.Code != http.StatusNotFound {
		t.Fatalf("booking unknown trip = %d", w.Code)
	}
	if w := call(t, r, http.MethodPost, "/api/reservations/res-x/cancel", "bob", nil); w.Code != http.StatusNotFound {
		t.Fatalf("cancel someone else's reservation = %d", w.Code)
	}
}

func TestSetTripStatusRejectsUnknownStatus(t *testing.T) {
	r := newTestRouter()
	w := call(t, r, http.MethodPost, "/api/admin/trips/trip-1/status", "admin", gin.H{"status": "boarding"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status = %d (%s)", w.Code, w.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter()
	call(t, r, http.MethodGet, "/api/health", "", nil)
	w := call(t, r, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !bytes.Contains(w.Body.Bytes(), []byte("shuttlebus_http_request_duration_seconds")) {
		t.Fatalf("metrics = %d", w.Code)
	}
}
