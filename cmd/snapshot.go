package cmd

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"sync"

	"github.com/alitto/pond/v2"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/cmd/utils"
	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/db"
	"github.com/suimigrate/migrate-backend/internal/serve"
	"github.com/suimigrate/migrate-backend/internal/services"
)

type snapshotCmdConfigs struct {
	DatabaseURL            string
	LogLevel               logrus.Level
	NewTokenName           string
	MaxConcurrentSnapshots int
	Snapshot               utils.SnapshotConfigs
	AppTracker             apptracker.AppTracker
}

type snapshotCmd struct{}

func (c *snapshotCmd) Command() *cobra.Command {
	cfg := snapshotCmdConfigs{}

	var sentryDSN string
	var environment string
	cfgOpts := config.ConfigOptions{
		utils.DatabaseURLOption(&cfg.DatabaseURL),
		utils.LogLevelOption(&cfg.LogLevel),
		utils.SentryDSNOption(&sentryDSN),
		utils.EnvironmentOption(&environment),
		{
			Name:      "new-token-name",
			Usage:     "Name of the token the holders migrate to, recorded with every snapshot of this run.",
			OptType:   types.String,
			ConfigKey: &cfg.NewTokenName,
			Required:  false,
		},
		{
			Name:        "max-concurrent-snapshots",
			Usage:       "Maximum number of coin types snapshotted at the same time.",
			OptType:     types.Int,
			ConfigKey:   &cfg.MaxConcurrentSnapshots,
			FlagDefault: 2,
			Required:    false,
		},
	}
	cfgOpts = append(cfgOpts, utils.SnapshotOptions(&cfg.Snapshot)...)

	cmd := &cobra.Command{
		Use:   "snapshot <coinType> [coinType...]",
		Short: "Take holder snapshots of one or more coin types and exit",
		Args:  cobra.MinimumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.DefaultPersistentPreRunE(cfgOpts)(cmd, args); err != nil {
				return err
			}
			log.DefaultLogger.SetLevel(cfg.LogLevel)

			if cfg.MaxConcurrentSnapshots < 1 {
				return fmt.Errorf("max-concurrent-snapshots must be at least 1")
			}

			appTracker, err := utils.AppTrackerResolver(sentryDSN, environment)
			if err != nil {
				return fmt.Errorf("initializing App Tracker: %w", err)
			}
			cfg.AppTracker = appTracker

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.Run(cmd.Context(), cfg, args)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *snapshotCmd) Run(ctx context.Context, cfg snapshotCmdConfigs, coinTypes []string) error {
	dbConnectionPool, err := db.OpenDBConnectionPool(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to the database: %w", err)
	}
	defer func() {
		if closeErr := dbConnectionPool.Close(); closeErr != nil {
			log.Ctx(ctx).Errorf("closing database connection pool: %v", closeErr)
		}
	}()

	container, err := serve.NewServiceContainerFromPool(ctx, dbConnectionPool, serve.Configs{
		IndexerURL:                cfg.Snapshot.IndexerURL,
		IndexerTimeout:            cfg.Snapshot.IndexerTimeout,
		SnapshotAtomicPersistence: cfg.Snapshot.AtomicPersistence,
		SnapshotTimeout:           cfg.Snapshot.SnapshotTimeout,
		AppTracker:                cfg.AppTracker,
	})
	if err != nil {
		return fmt.Errorf("setting up snapshot services: %w", err)
	}

	pool := pond.NewPool(cfg.MaxConcurrentSnapshots)
	defer pool.StopAndWait()
	container.GetMetricsService().RegisterPoolMetrics("snapshot", pool)

	results, err := runSnapshots(ctx, container.GetSnapshotService(), pool, coinTypes, cfg.NewTokenName)
	for _, result := range results {
		if result == nil {
			continue
		}
		log.Ctx(ctx).WithFields(log.F{
			"coin_type":    result.CoinType,
			"snapshot_id":  result.SnapshotID,
			"holder_count": result.HolderCount,
			"truncated":    result.Truncated,
		}).Info("Snapshot taken")
	}
	if err != nil {
		return fmt.Errorf("running snapshots: %w", err)
	}
	return nil
}

// runSnapshots takes one snapshot per coin type on the pool. Results keep the order of coinTypes, with nil
// entries for the runs that failed.
func runSnapshots(ctx context.Context, snapshotService services.SnapshotService, pool pond.Pool, coinTypes []string, newTokenName string) ([]*services.SnapshotResult, error) {
	results := make([]*services.SnapshotResult, len(coinTypes))
	group := pool.NewGroupContext(ctx)

	var errs []error
	errMu := sync.Mutex{}
	for i, coinType := range coinTypes {
		group.Submit(func() {
			result, err := snapshotService.TakeSnapshot(ctx, services.SnapshotRequest{
				CoinType:     coinType,
				NewTokenName: newTokenName,
			})
			if err != nil {
				errMu.Lock()
				errs = append(errs, fmt.Errorf("taking snapshot of %s: %w", coinType, err))
				errMu.Unlock()
				return
			}
			results[i] = result
		})
	}

	if err := group.Wait(); err != nil {
		return results, fmt.Errorf("waiting for snapshots: %w", err)
	}
	return results, errors.Join(errs...)
}
