package models

import "time"

// Reservation holds one seat on one trip for one user. SeatNumber never changes.
type Reservation struct {
	ID         string    `json:"reservation_id"`
	TripID     string    `json:"trip_id"`
	UserID     string    `json:"user_id"`
	SeatNumber int       `json:"seat_number"`
	CreatedAt  time.Time `json:"created_at"`
}

// MyReservation is a reservation joined with its trip for the traveler's list.
type MyReservation struct {
	ReservationID string    `json:"reservation_id"`
	TripID        string    `json:"trip_id"`
	SeatNumber    int       `json:"seat_number"`
	DepartureAt   time.Time `json:"departure_time"`
	Source        string    `json:"source"`
	Destination   string    `json:"destination"`
	VehicleName   string    `json:"vehicle_name"`
	Status        string    `json:"status"`
}

// TicketData is everything printed on an e-ticket.
type TicketData struct {
	ReservationID string
	SeatNumber    int
	PassengerName string
	Email         string
	Trip          TripSummary
}
