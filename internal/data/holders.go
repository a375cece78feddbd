package data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/entities"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/utils"
)

type Holder struct {
	SnapshotID   string          `db:"snapshot_id" json:"snapshotId"`
	OwnerAddress string          `db:"owner_address" json:"ownerAddress"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
}

type HolderModel struct {
	DB             db.ConnectionPool
	MetricsService metrics.MetricsService
}

const holderColumns = `snapshot_id::text AS snapshot_id, owner_address, balance`

// BatchCopy writes one batch of holder rows for a snapshot with a single COPY and returns the number of rows written.
func (m *HolderModel) BatchCopy(ctx context.Context, dbTx PgxExecuter, snapshotID string, holders []entities.HolderBalance) (int, error) {
	if len(holders) == 0 {
		return 0, nil
	}

	var snapshotUUID pgtype.UUID
	if err := snapshotUUID.Scan(snapshotID); err != nil {
		return 0, fmt.Errorf("parsing snapshot id %s: %w", snapshotID, err)
	}

	start := time.Now()
	copyCount, err := dbTx.CopyFrom(
		ctx,
		pgx.Identifier{"token_holders"},
		[]string{"snapshot_id", "owner_address", "balance"},
		pgx.CopyFromSlice(len(holders), func(i int) ([]any, error) {
			holder := holders[i]
			return []any{
				snapshotUUID,
				pgtype.Text{String: holder.Owner, Valid: true},
				pgtype.Numeric{Int: holder.Balance.Coefficient(), Exp: holder.Balance.Exponent(), Valid: true},
			}, nil
		}),
	)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("BatchCopy", "token_holders", duration)
	m.MetricsService.ObserveDBBatchSize("BatchCopy", "token_holders", len(holders))
	if err != nil {
		m.MetricsService.IncDBQueryError("BatchCopy", "token_holders", utils.GetDBErrorType(err))
		return 0, fmt.Errorf("pgx CopyFrom token_holders: %w", err)
	}
	if int(copyCount) != len(holders) {
		return 0, fmt.Errorf("expected %d rows copied, got %d", len(holders), copyCount)
	}
	m.MetricsService.IncDBQuery("BatchCopy", "token_holders")

	return int(copyCount), nil
}

// GetBySnapshot returns a window of a snapshot's holders ordered by balance.
func (m *HolderModel) GetBySnapshot(ctx context.Context, snapshotID string, limit, offset int, sortOrder SortOrder) ([]*Holder, error) {
	if !sortOrder.IsValid() {
		return nil, fmt.Errorf("invalid sort order %q", sortOrder)
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM token_holders
		WHERE snapshot_id = $1
		ORDER BY balance %s, owner_address ASC
		LIMIT $2 OFFSET $3`, holderColumns, sortOrder)

	holders := []*Holder{}
	start := time.Now()
	err := m.DB.SelectContext(ctx, &holders, query, snapshotID, limit, offset)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("GetBySnapshot", "token_holders", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("GetBySnapshot", "token_holders", utils.GetDBErrorType(err))
		return nil, fmt.Errorf("getting holders of snapshot %s: %w", snapshotID, err)
	}
	m.MetricsService.IncDBQuery("GetBySnapshot", "token_holders")
	return holders, nil
}

// GetByAddresses returns the rows of the given owners in a snapshot. Owners with no row are omitted.
func (m *HolderModel) GetByAddresses(ctx context.Context, snapshotID string, addresses []string) ([]*Holder, error) {
	const query = `
		SELECT ` + holderColumns + `
		FROM token_holders
		WHERE snapshot_id = $1 AND owner_address = ANY($2::text[])
		ORDER BY owner_address`

	holders := []*Holder{}
	start := time.Now()
	err := m.DB.SelectContext(ctx, &holders, query, snapshotID, pq.Array(addresses))
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("GetByAddresses", "token_holders", duration)
	m.MetricsService.ObserveDBBatchSize("GetByAddresses", "token_holders", len(addresses))
	if err != nil {
		m.MetricsService.IncDBQueryError("GetByAddresses", "token_holders", utils.GetDBErrorType(err))
		return nil, fmt.Errorf("getting holders %v of snapshot %s: %w", addresses, snapshotID, err)
	}
	m.MetricsService.IncDBQuery("GetByAddresses", "token_holders")
	return holders, nil
}

// CountBySnapshot returns the number of holder rows persisted for a snapshot.
func (m *HolderModel) CountBySnapshot(ctx context.Context, snapshotID string) (int, error) {
	const query = `SELECT COUNT(*) FROM token_holders WHERE snapshot_id = $1`

	var count int
	start := time.Now()
	err := m.DB.GetContext(ctx, &count, query, snapshotID)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("CountBySnapshot", "token_holders", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("CountBySnapshot", "token_holders", utils.GetDBErrorType(err))
		return 0, fmt.Errorf("counting holders of snapshot %s: %w", snapshotID, err)
	}
	m.MetricsService.IncDBQuery("CountBySnapshot", "token_holders")
	return count, nil
}
