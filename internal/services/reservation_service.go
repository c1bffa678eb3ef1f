package services

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/metrics"
	"shuttlebus/internal/repositories"
	"shuttlebus/internal/utils"
)

// DefaultReminderWindow is how far ahead of departure reminders go out.
const DefaultReminderWindow = 2 * time.Hour

// ReservationService allocates seats and removes reservations.
type ReservationService struct {
	Store    ReservationStore
	Gate     Gate
	Notifier Notifier
	Window   time.Duration
	Now      func() time.Time
}

func (s ReservationService) window() time.Duration {
	if s.Window <= 0 {
		return DefaultReminderWindow
	}
	return s.Window
}

// Create books the next free seat on tripID for userID.
//
// Seat numbering runs inside the trip's lock scope: the next seat is read, checked
// against capacity and inserted before any other booking for the same trip may read.
func (s ReservationService) Create(ctx context.Context, tripID, userID string) (models.Reservation, error) {
	var res models.Reservation
	tripID, err := requireID("trip_id", tripID)
	if err != nil {
		return res, err
	}
	userID, err = requireID("user_id", userID)
	if err != nil {
		return res, err
	}

	blocked, err := s.Gate.IsBlocked(ctx)
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues("error").Inc()
		return res, domain.Internalize(err)
	}
	if blocked {
		metrics.ReservationsTotal.WithLabelValues("unavailable").Inc()
		return res, domain.UnavailableError{Reason: "maintenance mode is on"}
	}

	now := clock(s.Now).now()
	var trip models.Trip
	err = s.Store.WithTripLock(ctx, tripID, func(l repositories.SeatLedger) error {
		trip = l.Trip()
		if trip.Status.IsCancelled() {
			return domain.UnavailableError{Reason: "trip is cancelled"}
		}
		next, err := l.NextSeat(ctx)
		if err != nil {
			return err
		}
		if next > trip.Capacity {
			return domain.CapacityExceededError{TripID: tripID, Capacity: trip.Capacity}
		}
		res = models.Reservation{
			ID:         uuid.NewString(),
			TripID:     tripID,
			UserID:     userID,
			SeatNumber: next,
			CreatedAt:  now,
		}
		return l.Insert(ctx, res)
	})
	metrics.ReservationsTotal.WithLabelValues(reservationResult(err)).Inc()
	if err != nil {
		return models.Reservation{}, domain.Internalize(err)
	}

	utils.LogEvent(utils.RequestID(ctx), "reservation", "create",
		"trip="+tripID+" user="+userID+" seat="+strconv.Itoa(res.SeatNumber))

	if until := trip.DepartureAt.Sub(now); until > 0 && until <= s.window() && s.Notifier != nil {
		s.Notifier.Dispatch(PersonalReminderEvent{TripID: tripID, UserID: userID})
	}
	return res, nil
}

func reservationResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case domain.IsConflict(err):
		return "conflict"
	case domain.IsCapacityExceeded(err):
		return "full"
	case domain.IsUnavailable(err):
		return "unavailable"
	case domain.IsNotFound(err):
		return "not_found"
	default:
		return "error"
	}
}

// Cancel removes a reservation owned by userID. Someone else's reservation reads as
// not found.
func (s ReservationService) Cancel(ctx context.Context, reservationID, userID string) error {
	reservationID, err := requireID("reservation_id", reservationID)
	if err != nil {
		return err
	}
	ok, err := s.Store.DeleteOwned(ctx, reservationID, userID)
	if err != nil {
		return domain.Internalize(err)
	}
	if !ok {
		return domain.NotFoundError{Resource: "reservation"}
	}
	utils.LogEvent(utils.RequestID(ctx), "reservation", "cancel", "id="+reservationID+" user="+userID)
	return nil
}

// ForceDelete removes any reservation. Callers must have checked the admin role.
func (s ReservationService) ForceDelete(ctx context.Context, reservationID string) error {
	reservationID, err := requireID("reservation_id", reservationID)
	if err != nil {
		return err
	}
	ok, err := s.Store.Delete(ctx, reservationID)
	if err != nil {
		return domain.Internalize(err)
	}
	if !ok {
		return domain.NotFoundError{Resource: "reservation"}
	}
	utils.LogEvent(utils.RequestID(ctx), "reservation", "force_delete", "id="+reservationID)
	return nil
}

func (s ReservationService) ListMine(ctx context.Context, userID string) ([]models.MyReservation, error) {
	out, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, domain.Internalize(err)
	}
	if out == nil {
		out = []models.MyReservation{}
	}
	return out, nil
}
