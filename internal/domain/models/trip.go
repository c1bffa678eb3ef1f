package models

import "time"

// Trip is one scheduled run of a vehicle on a route, with its capacity and overlay status.
type Trip struct {
	ID          string
	RouteID     string
	VehicleID   string
	DriverID    string
	DepartureAt time.Time
	ArrivalAt   time.Time
	Capacity    int
	Status      OperationalStatus
	Notified    bool
}

// TripSummary is the denormalized trip view used for listings and notification cards.
type TripSummary struct {
	TripID      string    `json:"trip_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	DepartureAt time.Time `json:"departure_time"`
	ArrivalAt   time.Time `json:"arrival_time"`
	VehicleName string    `json:"vehicle_name"`
	Status      string    `json:"status"`
}

// NewTrip is the admin input for trip creation.
type NewTrip struct {
	RouteID     string
	VehicleID   string
	DriverID    string
	DepartureAt time.Time
	ArrivalAt   time.Time
}

// Option is an id/name pair for admin pick lists.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RouteOption names a route as "source → destination".
type RouteOption struct {
	RouteID string `json:"route_id"`
	Name    string `json:"name"`
}

// AdminOptions bundles the master data needed to create a trip.
type AdminOptions struct {
	Routes   []RouteOption `json:"routes"`
	Vehicles []Option      `json:"vehicles"`
	Drivers  []Option      `json:"drivers"`
}
