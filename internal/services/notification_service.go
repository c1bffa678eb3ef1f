package services

import (
	"context"
	"fmt"
	"time"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/metrics"
	"shuttlebus/internal/notify"
	"shuttlebus/internal/utils"
)

// Event is one notification to fan out.
type Event interface {
	Name() string
	Trip() string
}

// StatusChangedEvent goes to every holder of the trip.
type StatusChangedEvent struct {
	TripID string
	Status models.OperationalStatus
}

// PeriodicReminderEvent is the scheduler's departing-soon notice to every holder.
type PeriodicReminderEvent struct {
	TripID string
}

// PersonalReminderEvent goes to the single user who just booked close to departure.
type PersonalReminderEvent struct {
	TripID string
	UserID string
}

func (StatusChangedEvent) Name() string    { return "status_changed" }
func (PeriodicReminderEvent) Name() string { return "periodic_reminder" }
func (PersonalReminderEvent) Name() string { return "personal_reminder" }

func (e StatusChangedEvent) Trip() string    { return e.TripID }
func (e PeriodicReminderEvent) Trip() string { return e.TripID }
func (e PersonalReminderEvent) Trip() string { return e.TripID }

// Notifier is what the other services depend on.
type Notifier interface {
	Deliver(ctx context.Context, ev Event) (int, error)
	Dispatch(ev Event)
}

// NotificationService resolves recipients, renders and sends events to the Sink.
type NotificationService struct {
	Trips   TripReader
	Holders HolderReader
	Users   UserStore
	Sink    Sink
	Pool    Submitter
	Window  time.Duration
}

// Deliver sends ev synchronously and returns the number of recipients it was addressed
// to. Zero means nothing went out: the sink is disabled, the trip or user is gone, or
// nobody holds a seat.
func (s NotificationService) Deliver(ctx context.Context, ev Event) (int, error) {
	n, err := s.deliver(ctx, ev)
	outcome := "sent"
	switch {
	case err != nil:
		outcome = "failed"
	case s.Sink == nil || !s.Sink.Enabled():
		outcome = "disabled"
	case n == 0:
		outcome = "empty"
	}
	metrics.NotificationsTotal.WithLabelValues(ev.Name(), outcome).Inc()
	return n, err
}

func (s NotificationService) deliver(ctx context.Context, ev Event) (int, error) {
	if s.Sink == nil || !s.Sink.Enabled() {
		utils.Log().Debug().Str("event", ev.Name()).Str("trip_id", ev.Trip()).Msg("notification sink disabled")
		return 0, nil
	}

	var msg notify.Message
	switch e := ev.(type) {
	case StatusChangedEvent:
		to, err := s.Holders.Holders(ctx, e.TripID)
		if err != nil {
			return 0, err
		}
		if len(to) == 0 {
			return 0, nil
		}
		// Holders still get the notice when the trip details cannot be read.
		var trip *models.TripSummary
		if t, err := s.Trips.Summary(ctx, e.TripID); err == nil {
			trip = &t
		} else {
			utils.Log().Warn().Err(err).Str("trip_id", e.TripID).Msg("trip details unavailable for status notice")
		}
		msg = notify.StatusChanged(trip, e.Status, to)

	case PeriodicReminderEvent:
		to, err := s.Holders.Holders(ctx, e.TripID)
		if err != nil {
			return 0, err
		}
		if len(to) == 0 {
			return 0, nil
		}
		trip, err := s.Trips.Summary(ctx, e.TripID)
		if err != nil {
			if domain.IsNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		msg = notify.PeriodicReminder(trip, s.Window, to)

	case PersonalReminderEvent:
		user, err := s.Users.GetByID(ctx, e.UserID)
		if err != nil {
			if domain.IsNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		trip, err := s.Trips.Summary(ctx, e.TripID)
		if err != nil {
			if domain.IsNotFound(err) {
				return 0, nil
			}
			return 0, err
		}
		msg = notify.PersonalReminder(trip, models.Recipient{Name: user.Name, Email: user.Email})

	default:
		return 0, fmt.Errorf("unknown notification event %T", ev)
	}

	if err := s.Sink.Send(ctx, msg); err != nil {
		return len(msg.Recipients), err
	}
	return len(msg.Recipients), nil
}

// Dispatch hands ev to the background pool and returns immediately. Failures are only
// logged.
func (s NotificationService) Dispatch(ev Event) {
	task := func(ctx context.Context) { s.deliverLogged(ctx, ev) }
	if s.Pool == nil {
		go task(context.Background())
		return
	}
	if !s.Pool.Submit("notify:"+ev.Name(), task) {
		metrics.NotificationsTotal.WithLabelValues(ev.Name(), "dropped").Inc()
	}
}

func (s NotificationService) deliverLogged(ctx context.Context, ev Event) int {
	n, err := s.Deliver(ctx, ev)
	if err != nil {
		utils.Log().Error().Err(err).
			Str("event", ev.Name()).
			Str("trip_id", ev.Trip()).
			Int("recipients", n).
			Msg("notification delivery failed")
		return n
	}
	if n > 0 {
		utils.Log().Info().Str("event", ev.Name()).Str("trip_id", ev.Trip()).Int("recipients", n).Msg("notification sent")
	}
	return n
}
