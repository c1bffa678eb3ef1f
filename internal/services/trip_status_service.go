package services

import (
	"context"
	"strings"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"
)

// TripStatusService applies operational status transitions and their side effects.
type TripStatusService struct {
	Statuses     StatusStore
	Reservations TripPurger
	Users        AdminChecker
	Notifier     Notifier
	Pool         Submitter
}

// SetTripStatus moves tripID to status. Scheduled clears the overlay; delayed and
// cancelled write it and then, in the background, notify every holder. A cancellation
// deletes the trip's reservations once the notification attempt has finished.
func (s TripStatusService) SetTripStatus(ctx context.Context, tripID, status string, description *string, actorID string) error {
	if err := requireAdmin(ctx, s.Users, actorID, "change trip status"); err != nil {
		return err
	}
	kind, err := models.ParseStatusKind(status)
	if err != nil {
		return domain.ValidationError{Field: "status", Msg: "unknown status " + strings.TrimSpace(status), Err: err}
	}
	tripID, err = requireID("trip_id", tripID)
	if err != nil {
		return err
	}

	st := models.OperationalStatus{Kind: kind}
	if description != nil {
		st.Description = strings.TrimSpace(*description)
	}

	if st.IsScheduled() {
		if err := s.Statuses.Delete(ctx, tripID); err != nil {
			return domain.Internalize(err)
		}
		utils.LogEvent(utils.RequestID(ctx), "trip_status", "reset", "trip="+tripID+" by="+actorID)
		return nil
	}

	if err := s.Statuses.Upsert(ctx, tripID, st); err != nil {
		return domain.Internalize(err)
	}
	utils.LogEvent(utils.RequestID(ctx), "trip_status", "set", "trip="+tripID+" status="+string(kind)+" by="+actorID)

	task := func(bg context.Context) { s.afterChange(bg, tripID, st) }
	if s.Pool == nil {
		go task(context.WithoutCancel(ctx))
		return nil
	}
	if s.Pool.Submit("trip-status:"+tripID, task) {
		return nil
	}
	// The notice is lost when the pool refuses the task, but a cancellation still has
	// to clear the trip.
	utils.Log().Warn().Str("trip_id", tripID).Msg("status notification not queued")
	if st.IsCancelled() {
		s.purge(context.WithoutCancel(ctx), tripID)
	}
	return nil
}

func (s TripStatusService) afterChange(ctx context.Context, tripID string, st models.OperationalStatus) {
	if s.Notifier != nil {
		n, err := s.Notifier.Deliver(ctx, StatusChangedEvent{TripID: tripID, Status: st})
		if err != nil {
			utils.Log().Error().Err(err).Str("trip_id", tripID).Str("status", string(st.Kind)).Msg("status notification failed")
		} else if n > 0 {
			utils.Log().Info().Str("trip_id", tripID).Str("status", string(st.Kind)).Int("recipients", n).Msg("status notification sent")
		}
	}
	if st.IsCancelled() {
		s.purge(ctx, tripID)
	}
}

func (s TripStatusService) purge(ctx context.Context, tripID string) {
	n, err := s.Reservations.DeleteByTrip(ctx, tripID)
	if err != nil {
		utils.Log().Error().Err(err).Str("trip_id", tripID).Msg("cancelled trip reservations not deleted")
		return
	}
	utils.Log().Info().Str("trip_id", tripID).Int64("deleted", n).Msg("cancelled trip reservations deleted")
}
