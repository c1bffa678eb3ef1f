package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"shuttlebus/internal/domain"
)

// SettingsRepository reads and writes named values in app_settings. Nothing is cached.
type SettingsRepository struct {
	DB      *sql.DB
	Timeout time.Duration
}

func (r SettingsRepository) db() *sql.DB { return pickDB(r.DB) }

// GetBool returns the flag value; a missing row reads as false and an unparsable
// value is an internal error.
func (r SettingsRepository) GetBool(ctx context.Context, key string) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	var raw string
	err := r.db().QueryRowContext(ctx, `SELECT value FROM app_settings WHERE setting_key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.InternalError{Err: err}
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, domain.InternalError{Msg: "invalid " + key + " setting", Err: err}
	}
	return v, nil
}

// SetBool stores the flag, creating the row when it does not exist.
func (r SettingsRepository) SetBool(ctx context.Context, key string, v bool) error {
	ctx, cancel := withTimeout(ctx, r.Timeout)
	defer cancel()

	_, err := r.db().ExecContext(ctx, `
		INSERT INTO app_settings (setting_key, value) VALUES (?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value)`,
		key, strconv.FormatBool(v))
	if err != nil {
		return domain.InternalError{Err: err}
	}
	return nil
}
