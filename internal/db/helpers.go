package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories translate.
const (
	ErrDupEntry          uint16 = 1062
	ErrNoReferencedRow   uint16 = 1452
	ErrLockDeadlock      uint16 = 1213
	ErrLockWaitTimeout   uint16 = 1205
	ErrNoReferencedRowV1 uint16 = 1216
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NullIfEmpty helps store optional strings as NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// MySQLErrorNumber extracts the server error number, 0 when err is not a MySQL error.
func MySQLErrorNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func IsDuplicateKey(err error) bool {
	return MySQLErrorNumber(err) == ErrDupEntry
}

func IsForeignKeyMissing(err error) bool {
	n := MySQLErrorNumber(err)
	return n == ErrNoReferencedRow || n == ErrNoReferencedRowV1
}

// IsRetryable reports lock conflicts that a fresh transaction may resolve.
func IsRetryable(err error) bool {
	n := MySQLErrorNumber(err)
	return n == ErrLockDeadlock || n == ErrLockWaitTimeout
}

// HasTable reports whether table exists in the current schema.
func HasTable(ctx context.Context, q Querier, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}
