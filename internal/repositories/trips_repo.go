package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	intdb "shuttlebus/internal/db"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
	"shuttlebus/internal/utils"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// tripColumns must stay in sync with scanTrip.
const tripColumns = `t.id, t.route_id, t.vehicle_id, t.driver_id, t.departure_at, t.arrival_at,
	t.notification_sent, vt.total_seats, os.status, os.description`

const tripJoins = `FROM trips t
	JOIN vehicles v ON t.vehicle_id = v.id
	JOIN vehicle_types vt ON v.vehicle_type_id = vt.id
	LEFT JOIN operational_statuses os ON os.trip_id = t.id`

func scanTrip(row scanner) (models.Trip, error) {
	var (
		t            models.Trip
		status, desc sql.NullString
	)
	if err := row.Scan(&t.ID, &t.RouteID, &t.VehicleID, &t.DriverID, &t.DepartureAt, &t.ArrivalAt,
		&t.Notified, &t.Capacity, &status, &desc); err != nil {
		return t, err
	}
	t.Status = models.StatusFromOverlay(status, desc)
	return t, nil
}

type TripsRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r TripsRepository) db() *sql.DB { return pickDB(r.DB) }

// GetTrip returns the trip with its capacity and overlay status.
func (r TripsRepository) GetTrip(ctx context.Context, id string) (models.Trip, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	t, err := scanTrip(r.db().QueryRowContext(ctx, `SELECT `+tripColumns+` `+tripJoins+` WHERE t.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return t, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return t, domain.InternalError{Err: err}
	}
	return t, nil
}

func summarySelect() sq.SelectBuilder {
	return sdb.Select(
		"t.id", "s.name", "d.name", "t.departure_at", "t.arrival_at", "v.name",
		"COALESCE(os.status, 'scheduled')",
	).
		From("trips t").
		Join("routes r ON t.route_id = r.id").
		Join("bus_stops s ON r.source_stop_id = s.id").
		Join("bus_stops d ON r.destination_stop_id = d.id").
		Join("vehicles v ON t.vehicle_id = v.id").
		LeftJoin("operational_statuses os ON os.trip_id = t.id")
}

func scanSummary(row scanner) (models.TripSummary, error) {
	var s models.TripSummary
	err := row.Scan(&s.TripID, &s.Source, &s.Destination, &s.DepartureAt, &s.ArrivalAt, &s.VehicleName, &s.Status)
	return s, err
}

// Summary returns the denormalized view of one trip.
func (r TripsRepository) Summary(ctx context.Context, id string) (models.TripSummary, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := summarySelect().Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return models.TripSummary{}, domain.InternalError{Err: err}
	}
	s, err := scanSummary(r.db().QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return s, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return s, domain.InternalError{Err: err}
	}
	return s, nil
}

// ListSummaries returns every trip ordered by departure.
func (r TripsRepository) ListSummaries(ctx context.Context) ([]models.TripSummary, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := summarySelect().OrderBy("t.departure_at ASC").ToSql()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.TripSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return out, domain.InternalError{Err: err}
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return out, domain.InternalError{Err: err}
	}
	return out, nil
}

// Create inserts a trip; trip_date is taken from the departure.
func (r TripsRepository) Create(ctx context.Context, in models.NewTrip) (string, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	id := uuid.NewString()
	query, args, err := sdb.Insert("trips").
		Columns("id", "route_id", "vehicle_id", "driver_id", "trip_date", "departure_at", "arrival_at").
		Values(id, in.RouteID, in.VehicleID, in.DriverID, utils.FormatDate(in.DepartureAt), in.DepartureAt, in.ArrivalAt).
		ToSql()
	if err != nil {
		return "", domain.InternalError{Err: err}
	}
	if _, err := r.db().ExecContext(ctx, query, args...); err != nil {
		if intdb.IsForeignKeyMissing(err) {
			return "", domain.NotFoundError{Resource: "route, vehicle or driver", Err: err}
		}
		return "", domain.InternalError{Err: err}
	}
	return id, nil
}

// ListDueForReminder returns trips departing in (from, to] that have not been reminded yet.
func (r TripsRepository) ListDueForReminder(ctx context.Context, from, to time.Time) ([]string, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := sdb.Select("id").
		From("trips").
		Where(sq.Gt{"departure_at": from}).
		Where(sq.LtOrEq{"departure_at": to}).
		Where(sq.Eq{"notification_sent": false}).
		OrderBy("departure_at ASC").
		ToSql()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, domain.InternalError{Err: err}
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return ids, domain.InternalError{Err: err}
	}
	return ids, nil
}

// ClaimReminder atomically flips notification_sent to TRUE. It reports false when
// another tick (in this or another process) already holds the claim.
func (r TripsRepository) ClaimReminder(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.db().ExecContext(ctx,
		`UPDATE trips SET notification_sent = TRUE WHERE id = ? AND notification_sent = FALSE`, id)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return affected(res) == 1, nil
}

// ReleaseReminder resets the claim so a later tick can try again.
func (r TripsRepository) ReleaseReminder(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	if _, err := r.db().ExecContext(ctx, `UPDATE trips SET notification_sent = FALSE WHERE id = ?`, id); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// Options returns routes, vehicles and drivers for the trip creation form.
func (r TripsRepository) Options(ctx context.Context) (models.AdminOptions, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	out := models.AdminOptions{Routes: []models.RouteOption{}, Vehicles: []models.Option{}, Drivers: []models.Option{}}
	db := r.db()

	rows, err := db.QueryContext(ctx, `
		SELECT r.id, s.name, d.name
		FROM routes r
		JOIN bus_stops s ON r.source_stop_id = s.id
		JOIN bus_stops d ON r.destination_stop_id = d.id
		ORDER BY s.name, d.name`)
	if err != nil {
		return out, domain.InternalError{Err: err}
	}
	for rows.Next() {
		var id, src, dst string
		if err := rows.Scan(&id, &src, &dst); err != nil {
			rows.Close()
			return out, domain.InternalError{Err: err}
		}
		out.Routes = append(out.Routes, models.RouteOption{RouteID: id, Name: fmt.Sprintf("%s → %s", src, dst)})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return out, domain.InternalError{Err: err}
	}
	rows.Close()

	if out.Vehicles, err = listOptions(ctx, db, "vehicles"); err != nil {
		return out, err
	}
	if out.Drivers, err = listOptions(ctx, db, "drivers"); err != nil {
		return out, err
	}
	return out, nil
}

func listOptions(ctx context.Context, q intdb.Querier, table string) ([]models.Option, error) {
	query, args, err := sdb.Select("id", "name").From(table).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return out, domain.InternalError{Err: err}
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return out, domain.InternalError{Err: err}
	}
	return out, nil
}
