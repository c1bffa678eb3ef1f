package repositories

import (
	"context"
	"database/sql"
	"time"

	intconfig "shuttlebus/internal/config"

	sq "github.com/Masterminds/squirrel"
)

// DefaultTimeout bounds a single storage call when the repository has none configured.
const DefaultTimeout = 5 * time.Second

var sdb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

type scanner interface {
	Scan(dest ...any) error
}

func pickDB(db *sql.DB) *sql.DB {
	if db != nil {
		return db
	}
	return intconfig.DB
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = DefaultTimeout
	}
	return context.WithTimeout(ctx, d)
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
