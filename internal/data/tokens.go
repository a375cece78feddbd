package data

import (
	"context"
	"fmt"
	"time"

	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/utils"
)

type TokenModel struct {
	DB             db.ConnectionPool
	MetricsService metrics.MetricsService
}

// Upsert registers coinType and returns its id. Registering the same coin type again returns the existing id.
func (m *TokenModel) Upsert(ctx context.Context, dbTx PgxExecuter, coinType string) (string, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const query = `
		INSERT INTO tokens (coin_type)
		VALUES ($1)
		ON CONFLICT (coin_type) DO UPDATE SET coin_type = EXCLUDED.coin_type
		RETURNING id::text`

	var id string
	start := time.Now()
	err := dbTx.QueryRow(ctx, query, coinType).Scan(&id)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("Upsert", "tokens", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("Upsert", "tokens", utils.GetDBErrorType(err))
		return "", fmt.Errorf("upserting token %s: %w", coinType, err)
	}
	m.MetricsService.IncDBQuery("Upsert", "tokens")
	return id, nil
}

// Count returns the number of registered tokens.
func (m *TokenModel) Count(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM tokens`

	var count int
	start := time.Now()
	err := m.DB.GetContext(ctx, &count, query)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("Count", "tokens", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("Count", "tokens", utils.GetDBErrorType(err))
		return 0, fmt.Errorf("counting tokens: %w", err)
	}
	m.MetricsService.IncDBQuery("Count", "tokens")
	return count, nil
}
