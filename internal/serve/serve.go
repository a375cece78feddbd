package serve

import (
	"context"
	"fmt"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
)

type Configs struct {
	Port        int
	DatabaseURL string
	LogLevel    logrus.Level

	// Indexer
	IndexerURL     string
	IndexerTimeout time.Duration

	// Snapshots
	AdminAddresses            set.Set[string]
	SnapshotAtomicPersistence bool
	SnapshotTimeout           time.Duration

	// Error Tracker
	AppTracker apptracker.AppTracker
}

func Serve(cfg Configs) error {
	deps, cleanup, err := initHandlerDeps(cfg)
	if err != nil {
		return fmt.Errorf("setting up handler dependencies: %w", err)
	}
	defer cleanup()

	addr := fmt.Sprintf(":%d", cfg.Port)
	supporthttp.Run(supporthttp.Config{
		ListenAddr: addr,
		Handler:    NewHandler(deps),
		OnStarting: func() {
			log.Infof("Starting Migrate Backend server on port %d", cfg.Port)
		},
		OnStopping: func() {
			log.Info("Stopping Migrate Backend server")
		},
	})

	return nil
}

func initHandlerDeps(cfg Configs) (HandlerDependencies, func(), error) {
	dbConnectionPool, err := db.OpenDBConnectionPool(cfg.DatabaseURL)
	if err != nil {
		return HandlerDependencies{}, nil, fmt.Errorf("connecting to the database: %w", err)
	}
	cleanup := func() {
		if closeErr := dbConnectionPool.Close(); closeErr != nil {
			log.Errorf("closing database connection pool: %v", closeErr)
		}
	}

	container, err := NewServiceContainerFromPool(context.Background(), dbConnectionPool, cfg)
	if err != nil {
		cleanup()
		return HandlerDependencies{}, nil, err
	}

	if cfg.AdminAddresses == nil || cfg.AdminAddresses.Cardinality() == 0 {
		log.Warn("No admin addresses configured, POST /api/snapshot is open to everyone")
	}

	return HandlerDependencies{ServiceContainer: container}, cleanup, nil
}

// NewServiceContainerFromPool wires metrics, models and services over an open connection pool.
func NewServiceContainerFromPool(ctx context.Context, dbConnectionPool db.ConnectionPool, cfg Configs) (*serviceContainer, error) {
	sqlxDB, err := dbConnectionPool.SqlxDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting sqlx db: %w", err)
	}
	metricsService := metrics.NewMetricsService(sqlxDB)

	databaseProvider, err := NewDatabaseProvider(dbConnectionPool, metricsService)
	if err != nil {
		return nil, fmt.Errorf("creating database provider: %w", err)
	}

	container, err := NewServiceContainer(ServiceDependencies{
		DatabaseProvider:   databaseProvider,
		HTTPClientProvider: NewHTTPClientProvider(cfg.IndexerTimeout),
		MetricsService:     metricsService,
		AppTracker:         cfg.AppTracker,
		IndexerURL:         cfg.IndexerURL,
		AtomicPersistence:  cfg.SnapshotAtomicPersistence,
		SnapshotTimeout:    cfg.SnapshotTimeout,
		AdminAddresses:     cfg.AdminAddresses,
	})
	if err != nil {
		return nil, fmt.Errorf("creating service container: %w", err)
	}
	return container, nil
}
