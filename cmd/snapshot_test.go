package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/suimigrate/migrate-backend/internal/services"
)

const (
	coinTypeA = "0xa::old::OLD"
	coinTypeB = "0xb::old::OLD"
)

func TestRunSnapshots(t *testing.T) {
	t.Run("🟢results_follow_the_coin_type_order", func(t *testing.T) {
		snapshotService := &services.SnapshotServiceMock{}
		defer snapshotService.AssertExpectations(t)
		resultA := &services.SnapshotResult{CoinType: coinTypeA, SnapshotID: "snap-a", HolderCount: 3}
		resultB := &services.SnapshotResult{CoinType: coinTypeB, SnapshotID: "snap-b", HolderCount: 0}
		snapshotService.
			On("TakeSnapshot", mock.Anything, services.SnapshotRequest{CoinType: coinTypeA, NewTokenName: "New"}).Return(resultA, nil).Once().
			On("TakeSnapshot", mock.Anything, services.SnapshotRequest{CoinType: coinTypeB, NewTokenName: "New"}).Return(resultB, nil).Once()

		pool := pond.NewPool(2)
		defer pool.StopAndWait()

		results, err := runSnapshots(context.Background(), snapshotService, pool, []string{coinTypeA, coinTypeB}, "New")
		require.NoError(t, err)
		assert.Equal(t, []*services.SnapshotResult{resultA, resultB}, results)
	})

	t.Run("🔴one_failure_does_not_stop_the_others", func(t *testing.T) {
		snapshotService := &services.SnapshotServiceMock{}
		defer snapshotService.AssertExpectations(t)
		resultB := &services.SnapshotResult{CoinType: coinTypeB, SnapshotID: "snap-b", HolderCount: 1}
		snapshotService.
			On("TakeSnapshot", mock.Anything, services.SnapshotRequest{CoinType: coinTypeA}).Return(nil, errors.New("indexer down")).Once().
			On("TakeSnapshot", mock.Anything, services.SnapshotRequest{CoinType: coinTypeB}).Return(resultB, nil).Once()

		pool := pond.NewPool(1)
		defer pool.StopAndWait()

		results, err := runSnapshots(context.Background(), snapshotService, pool, []string{coinTypeA, coinTypeB}, "")
		assert.EqualError(t, err, "taking snapshot of "+coinTypeA+": indexer down")
		require.Len(t, results, 2)
		assert.Nil(t, results[0])
		assert.Equal(t, resultB, results[1])
	})
}
