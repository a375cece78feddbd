package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/suimigrate/migrate-backend/internal/data"
)

type SnapshotServiceMock struct {
	mock.Mock
}

var _ SnapshotService = (*SnapshotServiceMock)(nil)

func (s *SnapshotServiceMock) TakeSnapshot(ctx context.Context, req SnapshotRequest) (*SnapshotResult, error) {
	args := s.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SnapshotResult), args.Error(1)
}

type SnapshotQueryServiceMock struct {
	mock.Mock
}

var _ SnapshotQueryService = (*SnapshotQueryServiceMock)(nil)

func (s *SnapshotQueryServiceMock) ListSnapshots(ctx context.Context, limit, offset int) (*SnapshotList, error) {
	args := s.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SnapshotList), args.Error(1)
}

func (s *SnapshotQueryServiceMock) GetSnapshot(ctx context.Context, snapshotID string) (*data.Snapshot, error) {
	args := s.Called(ctx, snapshotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Snapshot), args.Error(1)
}

func (s *SnapshotQueryServiceMock) ListHolders(ctx context.Context, snapshotID string, limit, offset int) ([]*data.Holder, error) {
	args := s.Called(ctx, snapshotID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*data.Holder), args.Error(1)
}

func (s *SnapshotQueryServiceMock) GetHolder(ctx context.Context, snapshotID, address string) (*data.Holder, error) {
	args := s.Called(ctx, snapshotID, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*data.Holder), args.Error(1)
}
