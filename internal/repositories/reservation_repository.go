package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intdb "shuttlebus/internal/db"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"

	sq "github.com/Masterminds/squirrel"
)

const maxLockAttempts = 3

// SeatLedger is one trip held under its row lock. It is only valid inside WithTripLock.
type SeatLedger interface {
	Trip() models.Trip
	NextSeat(ctx context.Context) (int, error)
	Insert(ctx context.Context, res models.Reservation) error
}

type ReservationRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r ReservationRepository) db() *sql.DB { return pickDB(r.DB) }

// WithTripLock runs fn in a transaction holding the trip row lock (SELECT ... FOR UPDATE),
// so seat computation and insert are serialized per trip across all processes.
// fn's error rolls the transaction back. Deadlocks and lock wait timeouts are retried.
func (r ReservationRepository) WithTripLock(ctx context.Context, tripID string, fn func(SeatLedger) error) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= maxLockAttempts; attempt++ {
		err = r.withTripLockOnce(ctx, tripID, fn)
		if err == nil || !intdb.IsRetryable(err) || ctx.Err() != nil {
			break
		}
	}
	return domain.Internalize(err)
}

func (r ReservationRepository) withTripLockOnce(ctx context.Context, tripID string, fn func(SeatLedger) error) error {
	tx, err := r.db().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	trip, err := scanTrip(tx.QueryRowContext(ctx,
		`SELECT `+tripColumns+` `+tripJoins+` WHERE t.id = ? FOR UPDATE OF t`, tripID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return err
	}

	if err := fn(&lockedTrip{tx: tx, trip: trip}); err != nil {
		return err
	}
	return tx.Commit()
}

type lockedTrip struct {
	tx   *sql.Tx
	trip models.Trip
}

func (l *lockedTrip) Trip() models.Trip { return l.trip }

func (l *lockedTrip) NextSeat(ctx context.Context) (int, error) {
	var next int
	err := l.tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seat_number), 0) + 1 FROM reservations WHERE trip_id = ?`, l.trip.ID).Scan(&next)
	return next, err
}

func (l *lockedTrip) Insert(ctx context.Context, res models.Reservation) error {
	_, err := l.tx.ExecContext(ctx,
		`INSERT INTO reservations (id, trip_id, user_id, seat_number) VALUES (?, ?, ?, ?)`,
		res.ID, res.TripID, res.UserID, res.SeatNumber)
	switch {
	case intdb.IsDuplicateKey(err):
		return domain.ConflictError{Resource: "reservation", Msg: "trip already booked by this user", Err: err}
	case intdb.IsForeignKeyMissing(err):
		return domain.NotFoundError{Resource: "user", Err: err}
	}
	return err
}

// DeleteOwned removes the reservation only when it belongs to userID.
func (r ReservationRepository) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.db().ExecContext(ctx, `DELETE FROM reservations WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return affected(res) > 0, nil
}

// Delete removes the reservation regardless of owner.
func (r ReservationRepository) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.db().ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return affected(res) > 0, nil
}

// DeleteByTrip purges every reservation of a trip and returns how many were removed.
func (r ReservationRepository) DeleteByTrip(ctx context.Context, tripID string) (int64, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	res, err := r.db().ExecContext(ctx, `DELETE FROM reservations WHERE trip_id = ?`, tripID)
	if err != nil {
		return 0, domain.InternalError{Err: err}
	}
	return affected(res), nil
}

// Holders returns the distinct travelers holding a reservation on the trip.
func (r ReservationRepository) Holders(ctx context.Context, tripID string) ([]models.Recipient, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := sdb.Select("u.name", "u.email").Distinct().
		From("reservations r").
		Join("users u ON r.user_id = u.id").
		Where(sq.Eq{"r.trip_id": tripID}).
		ToSql()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.Recipient{}
	for rows.Next() {
		var rc models.Recipient
		if err := rows.Scan(&rc.Name, &rc.Email); err != nil {
			return out, domain.InternalError{Err: err}
		}
		out = append(out, rc)
	}
	if err := rows.Err(); err != nil {
		return out, domain.InternalError{Err: err}
	}
	return out, nil
}

// ListByUser returns the user's reservations, latest departure first.
func (r ReservationRepository) ListByUser(ctx context.Context, userID string) ([]models.MyReservation, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := sdb.Select(
		"r.id", "r.seat_number", "t.id", "t.departure_at", "s.name", "d.name", "v.name",
		"COALESCE(os.status, 'scheduled')",
	).
		From("reservations r").
		Join("trips t ON r.trip_id = t.id").
		Join("routes rt ON t.route_id = rt.id").
		Join("bus_stops s ON rt.source_stop_id = s.id").
		Join("bus_stops d ON rt.destination_stop_id = d.id").
		Join("vehicles v ON t.vehicle_id = v.id").
		LeftJoin("operational_statuses os ON os.trip_id = t.id").
		Where(sq.Eq{"r.user_id": userID}).
		OrderBy("t.departure_at DESC").
		ToSql()
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	rows, err := r.db().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.InternalError{Err: err}
	}
	defer rows.Close()

	out := []models.MyReservation{}
	for rows.Next() {
		var m models.MyReservation
		if err := rows.Scan(&m.ReservationID, &m.SeatNumber, &m.TripID, &m.DepartureAt,
			&m.Source, &m.Destination, &m.VehicleName, &m.Status); err != nil {
			return out, domain.InternalError{Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return out, domain.InternalError{Err: err}
	}
	return out, nil
}

// Ticket loads e-ticket data for a reservation owned by userID.
func (r ReservationRepository) Ticket(ctx context.Context, id, userID string) (models.TicketData, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	query, args, err := summarySelect().
		Columns("res.id", "res.seat_number", "u.name", "u.email").
		Join("reservations res ON res.trip_id = t.id").
		Join("users u ON res.user_id = u.id").
		Where(sq.Eq{"res.id": id, "res.user_id": userID}).
		ToSql()
	if err != nil {
		return models.TicketData{}, domain.InternalError{Err: err}
	}

	var d models.TicketData
	s := &d.Trip
	err = r.db().QueryRowContext(ctx, query, args...).Scan(
		&s.TripID, &s.Source, &s.Destination, &s.DepartureAt, &s.ArrivalAt, &s.VehicleName, &s.Status,
		&d.ReservationID, &d.SeatNumber, &d.PassengerName, &d.Email,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return d, domain.NotFoundError{Resource: "reservation", Err: err}
	}
	if err != nil {
		return d, domain.InternalError{Err: err}
	}
	return d, nil
}
