package services

import (
	"context"
	"time"

	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/notify"
	"shuttlebus/internal/repositories"
	"shuttlebus/internal/worker"
)

// Storage views consumed by the services. The repositories package provides the MySQL
// implementations; tests use in-memory fakes.

type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type UserStore interface {
	AdminChecker
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByEmail(ctx context.Context, email string) (models.User, error)
	Create(ctx context.Context, u models.User) error
}

type ReservationStore interface {
	WithTripLock(ctx context.Context, tripID string, fn func(repositories.SeatLedger) error) error
	DeleteOwned(ctx context.Context, id, userID string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.MyReservation, error)
	Ticket(ctx context.Context, id, userID string) (models.TicketData, error)
}

type HolderReader interface {
	Holders(ctx context.Context, tripID string) ([]models.Recipient, error)
}

type TripPurger interface {
	DeleteByTrip(ctx context.Context, tripID string) (int64, error)
}

type TripReader interface {
	Summary(ctx context.Context, id string) (models.TripSummary, error)
}

type TripStore interface {
	TripReader
	ListSummaries(ctx context.Context) ([]models.TripSummary, error)
	Create(ctx context.Context, in models.NewTrip) (string, error)
	Options(ctx context.Context) (models.AdminOptions, error)
}

type ReminderStore interface {
	ListDueForReminder(ctx context.Context, from, to time.Time) ([]string, error)
	ClaimReminder(ctx context.Context, tripID string) (bool, error)
	ReleaseReminder(ctx context.Context, tripID string) error
}

type StatusStore interface {
	Upsert(ctx context.Context, tripID string, st models.OperationalStatus) error
	Delete(ctx context.Context, tripID string) error
}

type SettingsStore interface {
	GetBool(ctx context.Context, key string) (bool, error)
	SetBool(ctx context.Context, key string, v bool) error
}

// Sink is the external message channel.
type Sink interface {
	Enabled() bool
	Send(ctx context.Context, msg notify.Message) error
}

// Submitter accepts detached background tasks.
type Submitter interface {
	Submit(name string, fn worker.Task) bool
}

var (
	_ UserStore        = repositories.UserRepository{}
	_ ReservationStore = repositories.ReservationRepository{}
	_ HolderReader     = repositories.ReservationRepository{}
	_ TripPurger       = repositories.ReservationRepository{}
	_ TripStore        = repositories.TripsRepository{}
	_ ReminderStore    = repositories.TripsRepository{}
	_ StatusStore      = repositories.StatusRepository{}
	_ SettingsStore    = repositories.SettingsRepository{}
	_ Sink             = (*notify.TeamsSink)(nil)
	_ Submitter        = (*worker.Pool)(nil)
)
