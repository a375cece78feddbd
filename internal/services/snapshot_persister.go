package services

import (
	"context"
	"fmt"

	"github.com/guregu/null"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/data"
	"github.com/suimigrate/migrate-backend/internal/entities"
	"github.com/suimigrate/migrate-backend/internal/metrics"
)

// HolderBatchSize is the maximum number of holder rows written by one bulk insert.
const HolderBatchSize = 1000

type PersistRequest struct {
	CoinType     string
	TokenID      string
	NewTokenName null.String
	OldTokenName null.String
	Holders      []entities.HolderBalance
	Truncated    bool
}

type PersistResult struct {
	SnapshotID string
	// HolderCount is the number of distinct holders aggregated, whether or not every batch was written.
	HolderCount      int
	PersistedHolders int
	FailedBatches    int
}

type SnapshotPersisterOptions struct {
	Store          SnapshotStore
	AppTracker     apptracker.AppTracker
	MetricsService metrics.MetricsService
	// Atomic writes the snapshot row and every holder batch in one transaction.
	Atomic    bool
	BatchSize int
}

func (o *SnapshotPersisterOptions) Validate() error {
	if o.Store == nil {
		return fmt.Errorf("snapshot store cannot be nil")
	}

	if o.AppTracker == nil {
		return fmt.Errorf("app tracker cannot be nil")
	}

	if o.MetricsService == nil {
		return fmt.Errorf("metrics service cannot be nil")
	}

	if o.BatchSize < 0 {
		return fmt.Errorf("batch size cannot be negative")
	}

	return nil
}

// SnapshotPersister writes one snapshot row and its holder rows.
//
// In the default best-effort mode a failed holder batch is logged, reported and counted, and the remaining batches
// are still written, so a snapshot may end up with fewer holder rows than its holder_count. In atomic mode any
// failure rolls the whole snapshot back.
type SnapshotPersister struct {
	store          SnapshotStore
	appTracker     apptracker.AppTracker
	metricsService metrics.MetricsService
	atomic         bool
	batchSize      int
}

func NewSnapshotPersister(opts SnapshotPersisterOptions) (*SnapshotPersister, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	batchSize := opts.BatchSize
	if batchSize == 0 {
		batchSize = HolderBatchSize
	}

	return &SnapshotPersister{
		store:          opts.Store,
		appTracker:     opts.AppTracker,
		metricsService: opts.MetricsService,
		atomic:         opts.Atomic,
		batchSize:      batchSize,
	}, nil
}

func (p *SnapshotPersister) Persist(ctx context.Context, req PersistRequest) (*PersistResult, error) {
	if p.atomic {
		var result *PersistResult
		err := p.store.InTransaction(ctx, func(store SnapshotStore) error {
			var persistErr error
			result, persistErr = p.persist(ctx, store, req)
			return persistErr
		})
		if err != nil {
			return nil, fmt.Errorf("persisting snapshot atomically: %w", err)
		}
		return result, nil
	}

	return p.persist(ctx, p.store, req)
}

func (p *SnapshotPersister) persist(ctx context.Context, store SnapshotStore, req PersistRequest) (*PersistResult, error) {
	snapshotID, err := store.InsertSnapshot(ctx, data.SnapshotInsert{
		TokenID:      req.TokenID,
		HolderCount:  len(req.Holders),
		NewTokenName: req.NewTokenName,
		OldTokenName: req.OldTokenName,
		Truncated:    req.Truncated,
	})
	if err != nil {
		return nil, fmt.Errorf("inserting snapshot: %w", err)
	}

	result := &PersistResult{
		SnapshotID:  snapshotID,
		HolderCount: len(req.Holders),
	}

	batches := partitionHolders(req.Holders, p.batchSize)
	for i, batch := range batches {
		written, batchErr := store.InsertHolders(ctx, snapshotID, batch)
		if batchErr == nil {
			result.PersistedHolders += written
			continue
		}

		batchErr = fmt.Errorf("inserting holder batch %d/%d of snapshot %s: %w", i+1, len(batches), snapshotID, batchErr)
		if p.atomic {
			return nil, batchErr
		}

		result.FailedBatches++
		log.Ctx(ctx).WithFields(log.F{
			"coin_type":   req.CoinType,
			"snapshot_id": snapshotID,
			"batch":       i + 1,
			"batch_size":  len(batch),
		}).Errorf("Error inserting holder batch, continuing with the next one: %v", batchErr)
		p.appTracker.CaptureExceptionWithTags(batchErr, map[string]string{
			"coin_type":   req.CoinType,
			"snapshot_id": snapshotID,
		})
	}

	if result.FailedBatches > 0 {
		p.metricsService.IncSnapshotFailedBatches(result.FailedBatches)
	}

	return result, nil
}

// partitionHolders splits holders into consecutive batches of at most size elements.
func partitionHolders(holders []entities.HolderBalance, size int) [][]entities.HolderBalance {
	if len(holders) == 0 || size <= 0 {
		return nil
	}

	batches := make([][]entities.HolderBalance, 0, (len(holders)+size-1)/size)
	for start := 0; start < len(holders); start += size {
		end := min(start+size, len(holders))
		batches = append(batches, holders[start:end])
	}
	return batches
}
