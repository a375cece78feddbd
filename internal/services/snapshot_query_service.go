package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/suimigrate/migrate-backend/internal/data"
)

var ErrHolderNotFound = errors.New("holder not found in snapshot")

type SnapshotList struct {
	Snapshots  []*data.Snapshot `json:"snapshots"`
	TokenCount int              `json:"tokenCount"`
}

// SnapshotQueryService serves the read side of snapshots: the admin listing and claim-eligibility lookups.
type SnapshotQueryService interface {
	ListSnapshots(ctx context.Context, limit, offset int) (*SnapshotList, error)
	GetSnapshot(ctx context.Context, snapshotID string) (*data.Snapshot, error)
	ListHolders(ctx context.Context, snapshotID string, limit, offset int) ([]*data.Holder, error)
	GetHolder(ctx context.Context, snapshotID, address string) (*data.Holder, error)
}

type snapshotQueryService struct {
	models *data.Models
}

var _ SnapshotQueryService = (*snapshotQueryService)(nil)

func NewSnapshotQueryService(models *data.Models) (*snapshotQueryService, error) {
	if models == nil {
		return nil, fmt.Errorf("models cannot be nil")
	}
	return &snapshotQueryService{models: models}, nil
}

func (s *snapshotQueryService) ListSnapshots(ctx context.Context, limit, offset int) (*SnapshotList, error) {
	snapshots, err := s.models.Snapshots.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	tokenCount, err := s.models.Tokens.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting tokens: %w", err)
	}

	return &SnapshotList{Snapshots: snapshots, TokenCount: tokenCount}, nil
}

func (s *snapshotQueryService) GetSnapshot(ctx context.Context, snapshotID string) (*data.Snapshot, error) {
	snapshot, err := s.getSnapshot(ctx, snapshotID)
	if err != nil {
		return nil, err
	}

	persisted, err := s.models.Holders.CountBySnapshot(ctx, snapshot.ID)
	if err != nil {
		return nil, fmt.Errorf("counting persisted holders: %w", err)
	}
	snapshot.PersistedHolderCount = persisted
	return snapshot, nil
}

func (s *snapshotQueryService) getSnapshot(ctx context.Context, snapshotID string) (*data.Snapshot, error) {
	snapshot, err := s.models.Snapshots.GetByID(ctx, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("getting snapshot: %w", err)
	}
	return snapshot, nil
}

// ListHolders returns holders by balance, largest first.
func (s *snapshotQueryService) ListHolders(ctx context.Context, snapshotID string, limit, offset int) ([]*data.Holder, error) {
	if _, err := s.getSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}

	holders, err := s.models.Holders.GetBySnapshot(ctx, snapshotID, limit, offset, data.DESC)
	if err != nil {
		return nil, fmt.Errorf("listing holders: %w", err)
	}
	return holders, nil
}

func (s *snapshotQueryService) GetHolder(ctx context.Context, snapshotID, address string) (*data.Holder, error) {
	if _, err := s.getSnapshot(ctx, snapshotID); err != nil {
		return nil, err
	}

	holders, err := s.models.Holders.GetByAddresses(ctx, snapshotID, []string{address})
	if err != nil {
		return nil, fmt.Errorf("getting holder: %w", err)
	}
	if len(holders) == 0 {
		return nil, ErrHolderNotFound
	}
	return holders[0], nil
}
