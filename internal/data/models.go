package data

import (
	"errors"

	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
)

type Models struct {
	DB        db.ConnectionPool
	Tokens    *TokenModel
	Snapshots *SnapshotModel
	Holders   *HolderModel
}

func NewModels(db db.ConnectionPool, metricsService metrics.MetricsService) (*Models, error) {
	if db == nil {
		return nil, errors.New("ConnectionPool must be initialized")
	}
	if metricsService == nil {
		return nil, errors.New("MetricsService must be initialized")
	}

	return &Models{
		DB:        db,
		Tokens:    &TokenModel{DB: db, MetricsService: metricsService},
		Snapshots: &SnapshotModel{DB: db, MetricsService: metricsService},
		Holders:   &HolderModel{DB: db, MetricsService: metricsService},
	}, nil
}
