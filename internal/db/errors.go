package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// FailingStatement returns a statement the database accepts but fails to
// evaluate. Postgres rejects a division by zero; sqlite evaluates 1/0 to
// NULL, so it overflows abs() instead.
func FailingStatement(dialect string) string {
	if dialect == "sqlite" {
		return "SELECT abs(-9223372036854775807 - 1) AS meaningless"
	}
	return "SELECT 1/0 AS meaningless"
}

// IsDatabaseError reports whether err was raised by the database engine
// rather than by the driver, the network or the caller.
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return true
	}

	var liteErr sqlite3.Error
	return errors.As(err, &liteErr)
}
