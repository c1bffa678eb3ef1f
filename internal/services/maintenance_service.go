package services

import (
	"context"

	"shuttlebus/internal/db"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/utils"
)

// Gate answers whether bookings are currently refused.
type Gate interface {
	IsBlocked(ctx context.Context) (bool, error)
}

// MaintenanceService owns the global booking switch. The value is read from storage on
// every call so that every process sees a change immediately.
type MaintenanceService struct {
	Settings SettingsStore
	Users    AdminChecker
}

func (s MaintenanceService) IsBlocked(ctx context.Context) (bool, error) {
	on, err := s.Settings.GetBool(ctx, db.MaintenanceKey)
	if err != nil {
		return false, domain.Internalize(err)
	}
	return on, nil
}

// SetBlocked flips the switch. Only administrators may call it.
func (s MaintenanceService) SetBlocked(ctx context.Context, on bool, actorID string) error {
	if err := requireAdmin(ctx, s.Users, actorID, "toggle maintenance mode"); err != nil {
		return err
	}
	if err := s.Settings.SetBool(ctx, db.MaintenanceKey, on); err != nil {
		return domain.Internalize(err)
	}
	state := "off"
	if on {
		state = "on"
	}
	utils.LogEvent(utils.RequestID(ctx), "maintenance", "set", "maintenance "+state+" by "+actorID)
	return nil
}
