package handlers

import (
	"context"
	"time"

	"shuttlebus/internal/services"
)

// API holds the services behind the HTTP handlers.
type API struct {
	Auth         services.AuthService
	Trips        services.TripService
	Reservations services.ReservationService
	Statuses     services.TripStatusService
	Maintenance  services.MaintenanceService
	Docs         services.DocsService

	// Location interprets wall-clock times in admin input.
	Location *time.Location
	// Ping checks the database for /api/db-check.
	Ping func(ctx context.Context) error
}
