package serve

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
)

// databaseProvider implements DatabaseProvider
type databaseProvider struct {
	connectionPool db.ConnectionPool
	models         *data.Models
}

func NewDatabaseProvider(connectionPool db.ConnectionPool, metricsService metrics.MetricsService) (*databaseProvider, error) {
	models, err := data.NewModels(connectionPool, metricsService)
	if err != nil {
		return nil, fmt.Errorf("creating data models: %w", err)
	}

	return &databaseProvider{
		connectionPool: connectionPool,
		models:         models,
	}, nil
}

func (p *databaseProvider) GetDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := p.connectionPool.SqlxDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting sqlx DB: %w", err)
	}
	return db, nil
}

func (p *databaseProvider) GetConnectionPool() db.ConnectionPool {
	return p.connectionPool
}

func (p *databaseProvider) GetModels() (*data.Models, error) {
	return p.models, nil
}

// httpClientProvider implements HTTPClientProvider
type httpClientProvider struct {
	client *http.Client
}

// NewHTTPClientProvider returns a provider whose client times out after timeout. Zero means 30s.
func NewHTTPClientProvider(timeout time.Duration) *httpClientProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &httpClientProvider{
		client: &http.Client{Timeout: timeout},
	}
}

func (p *httpClientProvider) GetClient() *http.Client {
	return p.client
}
