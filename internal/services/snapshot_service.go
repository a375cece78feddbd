package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/indexer"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/utils"
	"github.com/suimigrate/migrate-backend/internal/validators"
)

// MaxPages caps the number of indexer pages fetched by one snapshot run.
const MaxPages = 2000

var ErrInvalidCoinType = errors.New("Invalid coinType format. Expected 0xPACKAGE::MODULE::TOKEN") //nolint:staticcheck

// IsValidCoinType reports whether coinType has the `0xPACKAGE::MODULE::TOKEN` shape.
func IsValidCoinType(coinType string) bool {
	return validators.IsValidCoinType(coinType)
}

type SnapshotRequest struct {
	CoinType     string
	NewTokenName string
}

type SnapshotResult struct {
	CoinType    string `json:"coinType"`
	HolderCount int    `json:"holderCount"`
	SnapshotID  string `json:"snapshotId"`
	// Truncated is set when the run stopped at the page cap while the indexer still reported more pages.
	Truncated        bool `json:"truncated"`
	PagesFetched     int  `json:"-"`
	PersistedHolders int  `json:"-"`
	FailedBatches    int  `json:"-"`
}

type SnapshotService interface {
	TakeSnapshot(ctx context.Context, req SnapshotRequest) (*SnapshotResult, error)
}

type snapshotService struct {
	indexerClient  indexer.Client
	store          SnapshotStore
	persister      *SnapshotPersister
	metricsService metrics.MetricsService
	maxPages       int
	timeout        time.Duration
}

var _ SnapshotService = (*snapshotService)(nil)

type SnapshotServiceOptions struct {
	IndexerClient  indexer.Client
	Store          SnapshotStore
	Persister      *SnapshotPersister
	MetricsService metrics.MetricsService
	// MaxPages defaults to the package MaxPages when zero.
	MaxPages int
	// Timeout bounds a whole run. Zero means no bound beyond the caller's context.
	Timeout time.Duration
}

func (o *SnapshotServiceOptions) Validate() error {
	if o.IndexerClient == nil {
		return fmt.Errorf("indexer client cannot be nil")
	}

	if o.Store == nil {
		return fmt.Errorf("snapshot store cannot be nil")
	}

	if o.Persister == nil {
		return fmt.Errorf("snapshot persister cannot be nil")
	}

	if o.MetricsService == nil {
		return fmt.Errorf("metrics service cannot be nil")
	}

	if o.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}

	if o.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

func NewSnapshotService(opts SnapshotServiceOptions) (*snapshotService, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	maxPages := opts.MaxPages
	if maxPages == 0 {
		maxPages = MaxPages
	}

	return &snapshotService{
		indexerClient:  opts.IndexerClient,
		store:          opts.Store,
		persister:      opts.Persister,
		metricsService: opts.MetricsService,
		maxPages:       maxPages,
		timeout:        opts.Timeout,
	}, nil
}

// TakeSnapshot registers the coin type, pages through every coin object of it, sums balances per owner and
// persists the result. Invalid coin types fail with ErrInvalidCoinType before any network or database call.
func (s *snapshotService) TakeSnapshot(ctx context.Context, req SnapshotRequest) (result *SnapshotResult, err error) {
	if !IsValidCoinType(req.CoinType) {
		return nil, ErrInvalidCoinType
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "failed"
		}
		s.metricsService.IncSnapshotRuns(status)
		s.metricsService.ObserveSnapshotDuration(status, time.Since(start).Seconds())
	}()

	logger := log.Ctx(ctx).WithField("coin_type", req.CoinType)

	logger.Info("Registering token")
	tokenID, err := s.store.UpsertToken(ctx, req.CoinType)
	if err != nil {
		return nil, fmt.Errorf("registering token %s: %w", req.CoinType, err)
	}

	logger.Info("Fetching coin objects")
	aggregator := indexer.NewHolderAggregator()
	var (
		cursor       *string
		oldTokenName string
		pages        int
		hasNextPage  = true
	)
	for hasNextPage && pages < s.maxPages {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("snapshot of %s interrupted after %d pages: %w", req.CoinType, pages, ctxErr)
		}

		page, fetchErr := s.indexerClient.FetchCoinObjects(ctx, req.CoinType, cursor)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetching page %d of %s: %w", pages+1, req.CoinType, fetchErr)
		}
		pages++

		if page.Metadata != nil {
			oldTokenName = page.Metadata.Name
		}
		for _, node := range page.Nodes {
			if reason := aggregator.AddNode(node); reason != indexer.SkipReasonNone {
				s.metricsService.IncSkippedCoinObjects(string(reason))
			}
		}

		hasNextPage = page.HasNextPage
		cursor = page.EndCursor
		if hasNextPage && cursor == nil {
			logger.Warnf("Indexer reported a next page without a cursor after page %d, stopping", pages)
			break
		}

		logger.WithFields(log.F{"page": pages, "holders": aggregator.Len()}).Debug("Fetched coin objects page")
	}

	truncated := hasNextPage
	if truncated {
		logger.WithField("page", pages).Warn("Stopped before the last page, snapshot is truncated")
		s.metricsService.IncSnapshotTruncated()
	}
	s.metricsService.ObserveSnapshotPages(pages)
	s.metricsService.ObserveSnapshotHolders(aggregator.Len())

	logger.WithFields(log.F{"page": pages, "holders": aggregator.Len()}).Info("Persisting snapshot")
	persisted, err := s.persister.Persist(ctx, PersistRequest{
		CoinType:     req.CoinType,
		TokenID:      tokenID,
		NewTokenName: nullIfEmpty(req.NewTokenName),
		OldTokenName: nullIfEmpty(utils.SanitizeUTF8(oldTokenName)),
		Holders:      aggregator.Holders(),
		Truncated:    truncated,
	})
	if err != nil {
		return nil, fmt.Errorf("persisting snapshot of %s: %w", req.CoinType, err)
	}

	logger.WithFields(log.F{
		"snapshot_id":       persisted.SnapshotID,
		"holders":           persisted.HolderCount,
		"persisted_holders": persisted.PersistedHolders,
		"failed_batches":    persisted.FailedBatches,
	}).Info("Snapshot done")

	return &SnapshotResult{
		CoinType:         req.CoinType,
		HolderCount:      persisted.HolderCount,
		SnapshotID:       persisted.SnapshotID,
		Truncated:        truncated,
		PagesFetched:     pages,
		PersistedHolders: persisted.PersistedHolders,
		FailedBatches:    persisted.FailedBatches,
	}, nil
}

func nullIfEmpty(s string) null.String {
	return null.NewString(s, s != "")
}
