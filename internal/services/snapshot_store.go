package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/entities"
	"github.com/suimigrate/migrate-backend/internal/metrics"
)

// SnapshotStore is the write side of a snapshot run.
type SnapshotStore interface {
	UpsertToken(ctx context.Context, coinType string) (string, error)
	InsertSnapshot(ctx context.Context, snapshot data.SnapshotInsert) (string, error)
	InsertHolders(ctx context.Context, snapshotID string, holders []entities.HolderBalance) (int, error)
	// InTransaction calls fn with a store whose writes commit together when fn returns nil and roll back otherwise.
	InTransaction(ctx context.Context, fn func(store SnapshotStore) error) error
}

type modelsSnapshotStore struct {
	models         *data.Models
	metricsService metrics.MetricsService
	dbTx           data.PgxExecuter
	inTx           bool
}

var _ SnapshotStore = (*modelsSnapshotStore)(nil)

// NewSnapshotStore returns a SnapshotStore over Postgres. Outside InTransaction every write commits on its own.
func NewSnapshotStore(models *data.Models, metricsService metrics.MetricsService) (*modelsSnapshotStore, error) {
	if models == nil {
		return nil, fmt.Errorf("models cannot be nil")
	}
	if metricsService == nil {
		return nil, fmt.Errorf("metrics service cannot be nil")
	}

	return &modelsSnapshotStore{
		models:         models,
		metricsService: metricsService,
		dbTx:           models.DB.PgxPool(),
	}, nil
}

func (s *modelsSnapshotStore) UpsertToken(ctx context.Context, coinType string) (string, error) {
	return s.models.Tokens.Upsert(ctx, s.dbTx, coinType) //nolint:wrapcheck
}

func (s *modelsSnapshotStore) InsertSnapshot(ctx context.Context, snapshot data.SnapshotInsert) (string, error) {
	return s.models.Snapshots.Insert(ctx, s.dbTx, snapshot) //nolint:wrapcheck
}

func (s *modelsSnapshotStore) InsertHolders(ctx context.Context, snapshotID string, holders []entities.HolderBalance) (int, error) {
	return s.models.Holders.BatchCopy(ctx, s.dbTx, snapshotID, holders) //nolint:wrapcheck
}

func (s *modelsSnapshotStore) InTransaction(ctx context.Context, fn func(store SnapshotStore) error) error {
	if s.inTx {
		return fn(s)
	}

	start := time.Now()
	err := db.RunInPgxTransaction(ctx, s.models.DB, func(dbTx pgx.Tx) error {
		return fn(&modelsSnapshotStore{
			models:         s.models,
			metricsService: s.metricsService,
			dbTx:           dbTx,
			inTx:           true,
		})
	})

	status := "committed"
	if err != nil {
		status = "rolled_back"
	}
	s.metricsService.IncDBTransaction(status)
	s.metricsService.ObserveDBTransactionDuration(status, time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("running snapshot transaction: %w", err)
	}
	return nil
}
