package services

import (
	"context"
	"time"

	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"
)

// TripService lists trips and lets administrators create them.
type TripService struct {
	Trips TripStore
	Users AdminChecker
}

func (s TripService) List(ctx context.Context) ([]models.TripSummary, error) {
	out, err := s.Trips.ListSummaries(ctx)
	if err != nil {
		return nil, domain.Internalize(err)
	}
	if out == nil {
		out = []models.TripSummary{}
	}
	return out, nil
}

// CreateTripInput is the raw admin form; times are parsed in loc.
type CreateTripInput struct {
	RouteID   string `json:"route_id"`
	VehicleID string `json:"vehicle_id"`
	DriverID  string `json:"driver_id"`
	Departure string `json:"departure_datetime"`
	Arrival   string `json:"arrival_datetime"`
}

func (s TripService) Create(ctx context.Context, in CreateTripInput, loc *time.Location, actorID string) (string, error) {
	if err := requireAdmin(ctx, s.Users, actorID, "create trip"); err != nil {
		return "", err
	}

	var nt models.NewTrip
	var err error
	if nt.RouteID, err = requireID("route_id", in.RouteID); err != nil {
		return "", err
	}
	if nt.VehicleID, err = requireID("vehicle_id", in.VehicleID); err != nil {
		return "", err
	}
	if nt.DriverID, err = requireID("driver_id", in.DriverID); err != nil {
		return "", err
	}
	if nt.DepartureAt, err = utils.ParseDateTime(in.Departure, loc); err != nil {
		return "", domain.ValidationError{Field: "departure_datetime", Msg: "invalid departure time", Err: err}
	}
	if nt.ArrivalAt, err = utils.ParseDateTime(in.Arrival, loc); err != nil {
		return "", domain.ValidationError{Field: "arrival_datetime", Msg: "invalid arrival time", Err: err}
	}
	if !nt.ArrivalAt.After(nt.DepartureAt) {
		return "", domain.ValidationError{Field: "arrival_datetime", Msg: "arrival must be after departure"}
	}

	id, err := s.Trips.Create(ctx, nt)
	if err != nil {
		return "", domain.Internalize(err)
	}
	utils.LogEvent(utils.RequestID(ctx), "trip", "create", "trip="+id+" by="+actorID)
	return id, nil
}

func (s TripService) Options(ctx context.Context, actorID string) (models.AdminOptions, error) {
	if err := requireAdmin(ctx, s.Users, actorID, "list trip options"); err != nil {
		return models.AdminOptions{}, err
	}
	opts, err := s.Trips.Options(ctx)
	if err != nil {
		return models.AdminOptions{}, domain.Internalize(err)
	}
	return opts, nil
}
