package repositories

import (
	"context"
	"database/sql"
	"time"

	intdb "shuttlebus/internal/db"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
)

// StatusRepository persists the operational status overlay of trips.
type StatusRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r StatusRepository) db() *sql.DB { return pickDB(r.DB) }

// Upsert writes a delayed/cancelled overlay row. Scheduled deletes the row instead.
func (r StatusRepository) Upsert(ctx context.Context, tripID string, st models.OperationalStatus) error {
	status, desc, present := st.Overlay()
	if !present {
		return r.Delete(ctx, tripID)
	}

	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	_, err := r.db().ExecContext(ctx, `
		INSERT INTO operational_statuses (trip_id, status, description, updated_at)
		VALUES (?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			description = VALUES(description),
			updated_at = NOW()`,
		tripID, status, desc)
	if intdb.IsForeignKeyMissing(err) {
		return domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// Delete removes the overlay row; deleting a missing row is not an error.
func (r StatusRepository) Delete(ctx context.Context, tripID string) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	if _, err := r.db().ExecContext(ctx, `DELETE FROM operational_statuses WHERE trip_id = ?`, tripID); err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}
