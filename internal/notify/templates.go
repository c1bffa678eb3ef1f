package notify

import (
	"fmt"
	"time"

	"github.com/hako/durafmt"

	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"
)

const unknownTrip = "Trip details unavailable"

func tripLine(t *models.TripSummary) string {
	if t == nil {
		return unknownTrip
	}
	return fmt.Sprintf("%s %s departure\n%s → %s", utils.FormatCard(t.DepartureAt), t.VehicleName, t.Source, t.Destination)
}

func tripFacts(t models.TripSummary) []Fact {
	return []Fact{
		{Title: "Departure:", Value: utils.FormatHM(t.DepartureAt)},
		{Title: "Route:", Value: fmt.Sprintf("%s → %s", t.Source, t.Destination)},
		{Title: "Vehicle:", Value: t.VehicleName},
	}
}

// StatusChanged tells every holder that their trip is delayed or cancelled.
// trip may be nil when the details could not be loaded.
func StatusChanged(trip *models.TripSummary, st models.OperationalStatus, to []models.Recipient) Message {
	title, color, label := "[Service update]", ColorAccent, "changed"
	switch st.Kind {
	case models.StatusDelayed:
		title, color, label = "⚠️ [Delay]", ColorWarning, "delayed"
	case models.StatusCancelled:
		title, color, label = "🚫 [Cancellation]", ColorAttention, "cancelled"
	}
	return Message{
		Title: title + " Shuttle service notice",
		Color: color,
		Body:  fmt.Sprintf("The following trip has been **%s**.", label),
		Facts: []Fact{
			{Title: "Trip:", Value: tripLine(trip)},
			{Title: "Details:", Value: utils.Safe(st.Description, "See the operator console for details")},
		},
		Recipients: to,
	}
}

// PeriodicReminder is the scheduler's "departing soon" message.
func PeriodicReminder(trip models.TripSummary, window time.Duration, to []models.Recipient) Message {
	return Message{
		Title:      "⏰ Departure is coming up",
		Color:      ColorAccent,
		Body:       fmt.Sprintf("Your bus departs within **%s**. Please don't miss it.", humanWindow(window)),
		Facts:      tripFacts(trip),
		Recipients: to,
	}
}

// PersonalReminder confirms a last-minute booking to the single traveler who made it.
func PersonalReminder(trip models.TripSummary, to models.Recipient) Message {
	return Message{
		Title:      "⏰ Last-minute booking",
		Color:      ColorAttention,
		Body:       "Thanks for booking. Your bus departs **shortly**.",
		Facts:      tripFacts(trip),
		Recipients: []models.Recipient{to},
	}
}

func humanWindow(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d <= 0 {
		return "a moment"
	}
	return durafmt.Parse(d).String()
}
