package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
)

func strPtr(s string) *string { return &s }

func TestSetTripStatusRequiresAdmin(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("alice", domain.RoleUser)

	err := f.statuses().SetTripStatus(context.Background(), "trip-1", "delayed", nil, "alice")
	if !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := f.statuses().SetTripStatus(context.Background(), "trip-1", "delayed", nil, ""); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden for anonymous actor, got %v", err)
	}
	if !f.db.tripState("trip-1").Status.IsScheduled() {
		t.Fatalf("status must be unchanged")
	}
}

func TestSetTripStatusUnknownValue(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)

	err := f.statuses().SetTripStatus(context.Background(), "trip-1", "boarding", nil, "admin")
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetTripStatusResetIsIdempotent(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	svc := f.statuses()

	for i := 0; i < 2; i++ {
		if err := svc.SetTripStatus(context.Background(), "trip-1", "scheduled", nil, "admin"); err != nil {
			t.Fatalf("reset #%d: %v", i+1, err)
		}
	}
	if !f.db.tripState("trip-1").Status.IsScheduled() {
		t.Fatalf("expected scheduled")
	}
	if len(f.sink.messages()) != 0 {
		t.Fatalf("reset must not notify")
	}
}

func TestSetTripStatusDelayNotifiesHolders(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.addUser("alice", domain.RoleUser)
	f.db.addUser("bob", domain.RoleUser)
	f.db.insertRaw(models.Reservation{ID: "r1", TripID: "trip-1", UserID: "alice", SeatNumber: 1})
	f.db.insertRaw(models.Reservation{ID: "r2", TripID: "trip-1", UserID: "bob", SeatNumber: 2})

	err := f.statuses().SetTripStatus(context.Background(), "trip-1", "Delayed", strPtr(" 20 minutes late "), "admin")
	if err != nil {
		t.Fatalf("set delayed: %v", err)
	}
	st := f.db.tripState("trip-1").Status
	if st.Kind != models.StatusDelayed || st.Description != "20 minutes late" {
		t.Fatalf("unexpected status %+v", st)
	}
	msgs := f.sink.messages()
	if len(msgs) != 1 || len(msgs[0].Recipients) != 2 {
		t.Fatalf("expected one message to two holders, got %+v", msgs)
	}
	if len(f.db.seats("trip-1")) != 2 {
		t.Fatalf("a delay must keep reservations")
	}
}

func TestSetTripStatusCancelCascade(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.addUser("alice", domain.RoleUser)
	f.db.addUser("carol", domain.RoleUser)
	f.db.insertRaw(models.Reservation{ID: "r1", TripID: "trip-1", UserID: "alice", SeatNumber: 1})

	if err := f.statuses().SetTripStatus(context.Background(), "trip-1", "cancelled", strPtr("driver ill"), "admin"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	msgs := f.sink.messages()
	if len(msgs) != 1 || len(msgs[0].Recipients) != 1 || msgs[0].Recipients[0].Email != "alice@example.com" {
		t.Fatalf("holders must be notified before deletion, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Title, "Cancellation") {
		t.Fatalf("unexpected title %q", msgs[0].Title)
	}
	if seats := f.db.seats("trip-1"); len(seats) != 0 {
		t.Fatalf("reservations must be deleted, got %v", seats)
	}

	if _, err := f.reservations().Create(context.Background(), "trip-1", "carol"); !domain.IsUnavailable(err) {
		t.Fatalf("booking a cancelled trip must be unavailable, got %v", err)
	}

	if err := f.statuses().SetTripStatus(context.Background(), "trip-1", "scheduled", nil, "admin"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if _, err := f.reservations().Create(context.Background(), "trip-1", "carol"); err != nil {
		t.Fatalf("booking after reset: %v", err)
	}
}

func TestSetTripStatusCancelStillPurgesWhenNotificationFails(t *testing.T) {
	f := newFixture()
	f.sink.err = errors.New("webhook down")
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.addUser("alice", domain.RoleUser)
	f.db.insertRaw(models.Reservation{ID: "r1", TripID: "trip-1", UserID: "alice", SeatNumber: 1})

	if err := f.statuses().SetTripStatus(context.Background(), "trip-1", "cancelled", nil, "admin"); err != nil {
		t.Fatalf("cancel must succeed: %v", err)
	}
	if seats := f.db.seats("trip-1"); len(seats) != 0 {
		t.Fatalf("reservations must be deleted, got %v", seats)
	}
}

func TestSetTripStatusCancelPurgesWhenPoolRefuses(t *testing.T) {
	f := newFixture()
	f.pool.refuse = true
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.insertRaw(models.Reservation{ID: "r1", TripID: "trip-1", UserID: "alice", SeatNumber: 1})

	if err := f.statuses().SetTripStatus(context.Background(), "trip-1", "cancelled", nil, "admin"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if seats := f.db.seats("trip-1"); len(seats) != 0 {
		t.Fatalf("reservations must be deleted, got %v", seats)
	}
}

func TestSetTripStatusUnknownTrip(t *testing.T) {
	f := newFixture()
	f.db.addUser("admin", domain.RoleAdmin)
	if err := f.statuses().SetTripStatus(context.Background(), "missing", "delayed", nil, "admin"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetTripStatusWithoutPoolStillNotifies(t *testing.T) {
	f := newFixture()
	f.db.addTrip("trip-1", 10, f.now.Add(24*time.Hour))
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.addUser("alice", domain.RoleUser)
	f.db.insertRaw(models.Reservation{ID: "r1", TripID: "trip-1", UserID: "alice", SeatNumber: 1})
	svc := f.statuses()
	svc.Pool = nil

	if err := svc.SetTripStatus(context.Background(), "trip-1", "cancelled", nil, "admin"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(f.db.seats("trip-1")) != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if seats := f.db.seats("trip-1"); len(seats) != 0 {
		t.Fatalf("reservations must be deleted, got %v", seats)
	}
	msgs := f.sink.messages()
	if len(msgs) != 1 || len(msgs[0].Recipients) != 1 {
		t.Fatalf("holders must be notified before deletion, got %+v", msgs)
	}
}
