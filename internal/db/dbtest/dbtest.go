// Package dbtest starts a throwaway Postgres container for tests that need a real database.
package dbtest

import (
	"context"
	"database/sql"
	"net/http"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/suimigrate/migrate-backend/internal/db/migrations"
)

const postgresImage = "postgres:16-alpine"

// DB is a running test database. Callers must call Close when done.
type DB struct {
	DSN       string
	t         *testing.T
	container *postgres.PostgresContainer
}

func (db *DB) Close() {
	if err := db.container.Terminate(context.Background()); err != nil {
		db.t.Logf("failed to terminate postgres container: %v", err)
	}
}

// Open starts a database and applies every migration to it.
func Open(t *testing.T) *DB {
	t.Helper()
	db := OpenWithoutMigrations(t)

	conn, err := sql.Open("pgx", db.DSN)
	require.NoError(t, err)
	defer conn.Close()

	m := migrate.HttpFileSystemMigrationSource{FileSystem: http.FS(migrations.FS)}
	_, err = migrate.Exec(conn, "postgres", m, migrate.Up)
	require.NoError(t, err, "applying migrations")

	return db
}

func OpenWithoutMigrations(t *testing.T) *DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("migrate-backend"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "starting postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "getting connection string")

	return &DB{DSN: dsn, t: t, container: container}
}
