package serve

import (
	"fmt"

	set "github.com/deckarep/golang-set/v2"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/indexer"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/services"
)

// serviceContainer implements ServiceContainer
type serviceContainer struct {
	snapshotService      services.SnapshotService
	snapshotQueryService services.SnapshotQueryService
	metricsService       metrics.MetricsService
	databaseProvider     DatabaseProvider
	appTracker           apptracker.AppTracker
	adminAddresses       set.Set[string]
}

func (c *serviceContainer) GetSnapshotService() services.SnapshotService {
	return c.snapshotService
}

func (c *serviceContainer) GetSnapshotQueryService() services.SnapshotQueryService {
	return c.snapshotQueryService
}

func (c *serviceContainer) GetMetricsService() metrics.MetricsService {
	return c.metricsService
}

func (c *serviceContainer) GetDatabaseProvider() DatabaseProvider {
	return c.databaseProvider
}

func (c *serviceContainer) GetAppTracker() apptracker.AppTracker {
	return c.appTracker
}

func (c *serviceContainer) GetAdminAddresses() set.Set[string] {
	return c.adminAddresses
}

// NewServiceContainer creates a new service container with all required services
func NewServiceContainer(deps ServiceDependencies) (*serviceContainer, error) {
	if deps.DatabaseProvider == nil {
		return nil, fmt.Errorf("database provider cannot be nil")
	}
	if deps.HTTPClientProvider == nil {
		return nil, fmt.Errorf("http client provider cannot be nil")
	}
	if deps.MetricsService == nil {
		return nil, fmt.Errorf("metrics service cannot be nil")
	}
	if deps.AppTracker == nil {
		return nil, fmt.Errorf("app tracker cannot be nil")
	}

	models, err := deps.DatabaseProvider.GetModels()
	if err != nil {
		return nil, fmt.Errorf("getting models: %w", err)
	}

	snapshotService, err := createSnapshotService(deps, models)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot service: %w", err)
	}

	snapshotQueryService, err := services.NewSnapshotQueryService(models)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot query service: %w", err)
	}

	adminAddresses := deps.AdminAddresses
	if adminAddresses == nil {
		adminAddresses = set.NewSet[string]()
	}

	return &serviceContainer{
		snapshotService:      snapshotService,
		snapshotQueryService: snapshotQueryService,
		metricsService:       deps.MetricsService,
		databaseProvider:     deps.DatabaseProvider,
		appTracker:           deps.AppTracker,
		adminAddresses:       adminAddresses,
	}, nil
}

func createSnapshotService(deps ServiceDependencies, models *data.Models) (services.SnapshotService, error) {
	indexerURL := deps.IndexerURL
	if indexerURL == "" {
		indexerURL = indexer.DefaultURL
	}
	indexerClient, err := indexer.NewGraphQLClient(indexerURL, deps.HTTPClientProvider.GetClient(), deps.MetricsService)
	if err != nil {
		return nil, fmt.Errorf("creating indexer client: %w", err)
	}

	store, err := services.NewSnapshotStore(models, deps.MetricsService)
	if err != nil {
		return nil, fmt.Errorf("creating snapshot store: %w", err)
	}

	persister, err := services.NewSnapshotPersister(services.SnapshotPersisterOptions{
		Store:          store,
		AppTracker:     deps.AppTracker,
		MetricsService: deps.MetricsService,
		Atomic:         deps.AtomicPersistence,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot persister: %w", err)
	}

	snapshotService, err := services.NewSnapshotService(services.SnapshotServiceOptions{
		IndexerClient:  indexerClient,
		Store:          store,
		Persister:      persister,
		MetricsService: deps.MetricsService,
		Timeout:        deps.SnapshotTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("creating snapshot service: %w", err)
	}
	return snapshotService, nil
}
