package utils

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/internal/apptracker"
	"github.com/suimigrate/migrate-backend/internal/apptracker/dryrun"
	"github.com/suimigrate/migrate-backend/internal/apptracker/sentry"
)

// DefaultPersistentPreRunE rebinds the options to the flags of the running command, since several commands
// share option names in the global viper registry, and then reads their values.
func DefaultPersistentPreRunE(cfgOpts config.ConfigOptions) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		for _, co := range cfgOpts {
			if flag := cmd.Flags().Lookup(co.Name); flag != nil {
				if err := viper.BindPFlag(co.Name, flag); err != nil {
					return fmt.Errorf("binding flag %s: %w", co.Name, err)
				}
			}
		}
		if err := cfgOpts.RequireE(); err != nil {
			return fmt.Errorf("requiring values of config options: %w", err)
		}
		if err := cfgOpts.SetValues(); err != nil {
			return fmt.Errorf("setting values of config options: %w", err)
		}
		return nil
	}
}

type SnapshotConfigs struct {
	IndexerURL        string
	IndexerTimeout    time.Duration
	SnapshotTimeout   time.Duration
	AtomicPersistence bool
}

// AppTrackerResolver returns a Sentry tracker when a DSN is configured, and a log-only tracker otherwise.
func AppTrackerResolver(sentryDSN, environment string) (apptracker.AppTracker, error) {
	if sentryDSN == "" {
		log.Warn("No tracker DSN configured, errors will only be logged")
		return &dryrun.DryRunTracker{}, nil
	}

	appTracker, err := sentry.NewSentryTracker(sentryDSN, environment, 5)
	if err != nil {
		return nil, fmt.Errorf("initializing sentry tracker: %w", err)
	}
	return appTracker, nil
}
