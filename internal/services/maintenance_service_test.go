package services

import (
	"context"
	"testing"

	"shuttlebus/internal/domain"
)

func TestMaintenanceToggle(t *testing.T) {
	f := newFixture()
	f.db.addUser("admin", domain.RoleAdmin)
	f.db.addUser("alice", domain.RoleUser)
	svc := f.maintenance()

	if on, err := svc.IsBlocked(context.Background()); err != nil || on {
		t.Fatalf("expected off by default, got %v %v", on, err)
	}
	if err := svc.SetBlocked(context.Background(), true, "alice"); !domain.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := svc.SetBlocked(context.Background(), true, "admin"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if on, _ := svc.IsBlocked(context.Background()); !on {
		t.Fatalf("expected on")
	}
	if err := svc.SetBlocked(context.Background(), false, "admin"); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if on, _ := svc.IsBlocked(context.Background()); on {
		t.Fatalf("expected off")
	}
}
