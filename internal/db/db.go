package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/stellar/go-stellar-sdk/support/log"
)

// ConnectionPool exposes the same Postgres pool through two views: sqlx for read queries that scan into structs, and
// pgx for the write path (COPY, batches and transactions).
type ConnectionPool interface {
	SQLExecuter
	Close() error
	Ping(ctx context.Context) error
	SqlDB(ctx context.Context) (*sql.DB, error)
	SqlxDB(ctx context.Context) (*sqlx.DB, error)
	PgxPool() *pgxpool.Pool
}

// Make sure *ConnectionPoolImplementation implements ConnectionPool:
var _ ConnectionPool = (*ConnectionPoolImplementation)(nil)

type ConnectionPoolImplementation struct {
	*sqlx.DB
	pool *pgxpool.Pool
}

const (
	MaxDBConnIdleTime = 10 * time.Second
	MaxOpenDBConns    = 30
	// DriverName is the database/sql driver registered by pgx/v5/stdlib.
	DriverName = "pgx"

	pingAttempts = 5
	pingDelay    = 500 * time.Millisecond
)

func OpenDBConnectionPool(dataSourceName string) (ConnectionPool, error) {
	ctx := context.Background()

	pgxConfig, err := pgxpool.ParseConfig(dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("parsing app DB connection string: %w", err)
	}
	pgxConfig.MaxConns = MaxOpenDBConns
	pgxConfig.MaxConnIdleTime = MaxDBConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating app DB connection pool: %w", err)
	}

	// The database may still be starting when the service boots next to it (docker compose, k8s sidecars).
	err = retry.Do(
		func() error { return pool.Ping(ctx) },
		retry.Context(ctx),
		retry.Attempts(pingAttempts),
		retry.Delay(pingDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warnf("Pinging app DB failed (attempt %d/%d): %v", n+1, pingAttempts, err)
		}),
	)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging app DB connection pool: %w", err)
	}

	sqlxDB := sqlx.NewDb(stdlib.OpenDBFromPool(pool), DriverName)

	return &ConnectionPoolImplementation{DB: sqlxDB, pool: pool}, nil
}

//nolint:wrapcheck // this is a thin layer on top of the pgxpool.Pool.Ping method
func (db *ConnectionPoolImplementation) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *ConnectionPoolImplementation) SqlDB(ctx context.Context) (*sql.DB, error) {
	return db.DB.DB, nil
}

func (db *ConnectionPoolImplementation) SqlxDB(ctx context.Context) (*sqlx.DB, error) {
	return db.DB, nil
}

func (db *ConnectionPoolImplementation) PgxPool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database/sql view first, since it borrows connections from the pgx pool.
func (db *ConnectionPoolImplementation) Close() error {
	err := db.DB.Close()
	db.pool.Close()
	if err != nil {
		return fmt.Errorf("closing sqlx DB: %w", err)
	}
	return nil
}

// SQLExecuter is an interface that wraps the *sqlx.DB and *sqlx.Tx structs methods.
type SQLExecuter interface {
	DriverName() string
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	sqlx.QueryerContext
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Make sure *sqlx.DB implements SQLExecuter:
var _ SQLExecuter = (*sqlx.DB)(nil)

// Make sure *sqlx.Tx implements SQLExecuter:
var _ SQLExecuter = (*sqlx.Tx)(nil)

// RunInPgxTransaction runs the given atomic function in a pgx transaction, rolling back if it returns an error.
func RunInPgxTransaction(ctx context.Context, dbConnectionPool ConnectionPool, atomicFunction func(dbTx pgx.Tx) error) error {
	_, err := RunInPgxTransactionWithResult(ctx, dbConnectionPool, func(dbTx pgx.Tx) (struct{}, error) {
		return struct{}{}, atomicFunction(dbTx)
	})
	return err
}

// RunInPgxTransactionWithResult runs the given atomic function in a pgx transaction and returns its result.
func RunInPgxTransactionWithResult[T any](ctx context.Context, dbConnectionPool ConnectionPool, atomicFunction func(dbTx pgx.Tx) (T, error)) (result T, err error) {
	dbTx, err := dbConnectionPool.PgxPool().Begin(ctx)
	if err != nil {
		return *new(T), fmt.Errorf("creating pgx transaction: %w", err)
	}

	defer func() {
		if err != nil {
			log.Ctx(ctx).Errorf("Rolling back transaction due to error: %v", err)
			if errRollBack := dbTx.Rollback(ctx); errRollBack != nil {
				log.Ctx(ctx).Errorf("Error in database transaction rollback: %v", errRollBack)
			}
		}
	}()

	result, err = atomicFunction(dbTx)
	if err != nil {
		return *new(T), fmt.Errorf("running atomic function in RunInPgxTransactionWithResult: %w", err)
	}

	err = dbTx.Commit(ctx)
	if err != nil {
		return *new(T), fmt.Errorf("committing transaction in RunInPgxTransactionWithResult: %w", err)
	}

	return result, nil
}
