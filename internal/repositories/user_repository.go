package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	intdb "shuttlebus/internal/db"
	"shuttlebus/internal/domain"
	"shuttlebus/internal/domain/models"
)

type UserRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r UserRepository) db() *sql.DB { return pickDB(r.DB) }

const userColumns = `id, name, email, password_hash, role`

func (r UserRepository) getBy(ctx context.Context, column, value string) (models.User, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var u models.User
	err := r.db().QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = ? LIMIT 1`, value).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return u, domain.NotFoundError{Resource: "user", Err: err}
	}
	if err != nil {
		return u, domain.InternalError{Err: err}
	}
	return u, nil
}

func (r UserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	return r.getBy(ctx, "email", email)
}

// Create inserts the user; a taken email is a ConflictError.
func (r UserRepository) Create(ctx context.Context, u models.User) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	_, err := r.db().ExecContext(ctx,
		`INSERT INTO users (id, name, email, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role)
	if intdb.IsDuplicateKey(err) {
		return domain.ConflictError{Resource: "user", Msg: "email already registered", Err: err}
	}
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}

// IsAdmin reports whether the user exists and has the admin role.
func (r UserRepository) IsAdmin(ctx context.Context, id string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var role string
	err := r.db().QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, id).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	return role == domain.RoleAdmin, nil
}
