package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AcquireAdvisoryLock attempts to acquire a session-level advisory lock on the provided lockKey, returns true if
// acquired, or false if not. The lock belongs to conn, so it must be released on the same connection.
func AcquireAdvisoryLock(ctx context.Context, conn *pgxpool.Conn, lockKey int) (bool, error) {
	lockAcquired := false
	sqlQuery := "SELECT pg_try_advisory_lock($1)"
	err := conn.QueryRow(ctx, sqlQuery, lockKey).Scan(&lockAcquired)
	if err != nil {
		return false, fmt.Errorf("querying pg_try_advisory_lock(%v): %w", lockKey, err)
	}
	return lockAcquired, nil
}

// ReleaseAdvisoryLock releases an advisory lock on the provided lockKey.
func ReleaseAdvisoryLock(ctx context.Context, conn *pgxpool.Conn, lockKey int) error {
	sqlQuery := "SELECT pg_advisory_unlock($1)"
	_, err := conn.Exec(ctx, sqlQuery, lockKey)
	if err != nil {
		return fmt.Errorf("executing pg_advisory_unlock(%v): %w", lockKey, err)
	}
	return nil
}
