package cmd

import (
	"fmt"
	"go/types"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/suimigrate/migrate-backend/cmd/utils"
	"github.com/suimigrate/migrate-backend/internal/serve"
)

type serveCmd struct{}

func (c *serveCmd) Command() *cobra.Command {
	cfg := serve.Configs{}
	snapshotCfg := utils.SnapshotConfigs{}

	var sentryDSN string
	var environment string
	cfgOpts := config.ConfigOptions{
		utils.DatabaseURLOption(&cfg.DatabaseURL),
		utils.LogLevelOption(&cfg.LogLevel),
		utils.SentryDSNOption(&sentryDSN),
		utils.EnvironmentOption(&environment),
		utils.AdminAddressesOption(&cfg.AdminAddresses),
		{
			Name:        "port",
			Usage:       "Port to listen and serve on",
			OptType:     types.Int,
			ConfigKey:   &cfg.Port,
			FlagDefault: 8001,
			Required:    false,
		},
	}
	cfgOpts = append(cfgOpts, utils.SnapshotOptions(&snapshotCfg)...)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run Migrate Backend server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.DefaultPersistentPreRunE(cfgOpts)(cmd, args); err != nil {
				return err
			}
			log.DefaultLogger.SetLevel(cfg.LogLevel)

			cfg.IndexerURL = snapshotCfg.IndexerURL
			cfg.IndexerTimeout = snapshotCfg.IndexerTimeout
			cfg.SnapshotTimeout = snapshotCfg.SnapshotTimeout
			cfg.SnapshotAtomicPersistence = snapshotCfg.AtomicPersistence

			appTracker, err := utils.AppTrackerResolver(sentryDSN, environment)
			if err != nil {
				return fmt.Errorf("initializing App Tracker: %w", err)
			}
			cfg.AppTracker = appTracker

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Run(cfg)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *serveCmd) Run(cfg serve.Configs) error {
	err := serve.Serve(cfg)
	if err != nil {
		return fmt.Errorf("running serve: %w", err)
	}
	return nil
}
