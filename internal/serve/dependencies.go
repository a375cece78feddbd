package serve

import (
	"context"
	"net/http"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/services"
)

// DatabaseProvider provides database connections and models
type DatabaseProvider interface {
	GetDB(ctx context.Context) (*sqlx.DB, error)
	GetConnectionPool() db.ConnectionPool
	GetModels() (*data.Models, error)
}

// HTTPClientProvider provides HTTP clients
type HTTPClientProvider interface {
	GetClient() *http.Client
}

// ServiceDependencies holds the basic dependencies needed for service creation
type ServiceDependencies struct {
	DatabaseProvider   DatabaseProvider
	HTTPClientProvider HTTPClientProvider
	MetricsService     metrics.MetricsService
	AppTracker         apptracker.AppTracker
	IndexerURL         string
	// AtomicPersistence writes each snapshot in a single transaction instead of batch by batch.
	AtomicPersistence bool
	SnapshotTimeout   time.Duration
	AdminAddresses    set.Set[string]
}

// ServiceContainer manages all business services
type ServiceContainer interface {
	GetSnapshotService() services.SnapshotService
	GetSnapshotQueryService() services.SnapshotQueryService
	GetMetricsService() metrics.MetricsService
	GetDatabaseProvider() DatabaseProvider
	GetAppTracker() apptracker.AppTracker
	GetAdminAddresses() set.Set[string]
}

// HandlerDependencies represents all dependencies needed for HTTP handlers
type HandlerDependencies struct {
	ServiceContainer ServiceContainer
}
