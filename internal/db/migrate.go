package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/db/migrations"
	"github.com/suimigrate/migrate-backend/internal/utils"
)

// migrationsLockKey serializes concurrent `migrate` runs against the same database.
const migrationsLockKey = 2_025_0601

var ErrMigrationsLocked = errors.New("another process is applying migrations")

func Migrate(ctx context.Context, databaseURL string, direction migrate.MigrationDirection, count int) (int, error) {
	dbConnectionPool, err := OpenDBConnectionPool(databaseURL)
	if err != nil {
		return 0, fmt.Errorf("connecting to the database: %w", err)
	}
	defer utils.DeferredClose(ctx, dbConnectionPool, "closing dbConnectionPool in the Migrate function")

	conn, err := dbConnectionPool.PgxPool().Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquiring connection for the migrations lock: %w", err)
	}
	defer conn.Release()

	locked, err := AcquireAdvisoryLock(ctx, conn, migrationsLockKey)
	if err != nil {
		return 0, fmt.Errorf("acquiring migrations lock: %w", err)
	}
	if !locked {
		return 0, ErrMigrationsLocked
	}
	defer func() {
		if unlockErr := ReleaseAdvisoryLock(ctx, conn, migrationsLockKey); unlockErr != nil {
			log.Ctx(ctx).Errorf("releasing migrations lock: %v", unlockErr)
		}
	}()

	sqlDB, err := dbConnectionPool.SqlDB(ctx)
	if err != nil {
		return 0, fmt.Errorf("getting sql.DB: %w", err)
	}

	m := migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(migrations.FS)}
	appliedMigrationsCount, err := migrate.ExecMax(sqlDB, "postgres", m, direction, count)
	if err != nil {
		return appliedMigrationsCount, fmt.Errorf("applying migrations: %w", err)
	}
	return appliedMigrationsCount, nil
}
