package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/guregu/null"

	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/metrics"
	"github.com/suimigrate/migrate-backend/internal/utils"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type Snapshot struct {
	ID           string      `db:"id" json:"id"`
	TokenID      string      `db:"token_id" json:"tokenId"`
	CoinType     string      `db:"coin_type" json:"coinType"`
	HolderCount  int         `db:"holder_count" json:"holderCount"`
	NewTokenName null.String `db:"new_token_name" json:"newTokenName"`
	OldTokenName null.String `db:"old_token_name" json:"oldTokenName"`
	Truncated    bool        `db:"truncated" json:"truncated"`
	CreatedAt    time.Time   `db:"created_at" json:"createdAt"`
	// PersistedHolderCount is the number of holder rows actually stored. It is lower than HolderCount when
	// holder batches failed in best-effort persistence. Only filled in for single-snapshot reads.
	PersistedHolderCount int `db:"-" json:"persistedHolderCount"`
}

type SnapshotInsert struct {
	TokenID      string
	HolderCount  int
	NewTokenName null.String
	OldTokenName null.String
	Truncated    bool
}

type SnapshotModel struct {
	DB             db.ConnectionPool
	MetricsService metrics.MetricsService
}

const snapshotColumns = `
	s.id::text AS id, s.token_id::text AS token_id, t.coin_type, s.holder_count,
	s.new_token_name, s.old_token_name, s.truncated, s.created_at`

// Insert writes a snapshot row and returns its id.
func (m *SnapshotModel) Insert(ctx context.Context, dbTx PgxExecuter, snapshot SnapshotInsert) (string, error) {
	const query = `
		INSERT INTO token_snapshots (token_id, holder_count, new_token_name, old_token_name, truncated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id::text`

	var id string
	start := time.Now()
	err := dbTx.QueryRow(ctx, query,
		snapshot.TokenID,
		snapshot.HolderCount,
		snapshot.NewTokenName.Ptr(),
		snapshot.OldTokenName.Ptr(),
		snapshot.Truncated,
	).Scan(&id)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("Insert", "token_snapshots", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("Insert", "token_snapshots", utils.GetDBErrorType(err))
		return "", fmt.Errorf("inserting snapshot for token %s: %w", snapshot.TokenID, err)
	}
	m.MetricsService.IncDBQuery("Insert", "token_snapshots")
	return id, nil
}

// GetByID returns ErrSnapshotNotFound when no snapshot has the given id, including ids that are not valid UUIDs.
func (m *SnapshotModel) GetByID(ctx context.Context, id string) (*Snapshot, error) {
	query := `SELECT ` + snapshotColumns + `
		FROM token_snapshots s
		JOIN tokens t ON t.id = s.token_id
		WHERE s.id = $1`

	var snapshot Snapshot
	start := time.Now()
	err := m.DB.GetContext(ctx, &snapshot, query, id)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("GetByID", "token_snapshots", duration)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || utils.IsInvalidTextRepresentation(err) {
			m.MetricsService.IncDBQuery("GetByID", "token_snapshots")
			return nil, ErrSnapshotNotFound
		}
		m.MetricsService.IncDBQueryError("GetByID", "token_snapshots", utils.GetDBErrorType(err))
		return nil, fmt.Errorf("getting snapshot %s: %w", id, err)
	}
	m.MetricsService.IncDBQuery("GetByID", "token_snapshots")
	return &snapshot, nil
}

// List returns snapshots newest first.
func (m *SnapshotModel) List(ctx context.Context, limit, offset int) ([]*Snapshot, error) {
	query, args, err := PrepareNamedQuery(ctx, m.DB, `SELECT `+snapshotColumns+`
		FROM token_snapshots s
		JOIN tokens t ON t.id = s.token_id
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT :limit OFFSET :offset`,
		map[string]interface{}{"limit": limit, "offset": offset})
	if err != nil {
		return nil, fmt.Errorf("preparing named query: %w", err)
	}

	snapshots := []*Snapshot{}
	start := time.Now()
	err = m.DB.SelectContext(ctx, &snapshots, query, args...)
	duration := time.Since(start).Seconds()
	m.MetricsService.ObserveDBQueryDuration("List", "token_snapshots", duration)
	if err != nil {
		m.MetricsService.IncDBQueryError("List", "token_snapshots", utils.GetDBErrorType(err))
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	m.MetricsService.IncDBQuery("List", "token_snapshots")
	return snapshots, nil
}
