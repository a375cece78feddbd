package utils

import (
	"go/types"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/suimigrate/migrate-backend/internal/indexer"
)

func DatabaseURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "database-url",
		Usage:       "Database connection URL.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "postgres://postgres@localhost:5432/migrate-backend?sslmode=disable",
		Required:    true,
	}
}

func LogLevelOption(configKey *logrus.Level) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "log-level",
		Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
		OptType:        types.String,
		FlagDefault:    "INFO",
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionLogLevel,
		Required:       false,
	}
}

func SentryDSNOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "tracker-dsn",
		Usage:     "The Sentry DSN. When empty, errors are only logged.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func EnvironmentOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "environment",
		Usage:       "The deployment environment reported to the error tracker.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "development",
		Required:    false,
	}
}

func IndexerURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "indexer-url",
		Usage:       "The URL of the Sui GraphQL indexer used to list coin objects.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: indexer.DefaultURL,
		Required:    true,
	}
}

func IndexerTimeoutOption(configKey *time.Duration) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "indexer-timeout",
		Usage:          "Timeout of a single indexer request, in seconds.",
		OptType:        types.Int,
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionSeconds,
		FlagDefault:    30,
		Required:       false,
	}
}

func SnapshotTimeoutOption(configKey *time.Duration) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "snapshot-timeout",
		Usage:          "Upper bound for a whole snapshot run, in seconds. Set to 0 to disable.",
		OptType:        types.Int,
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionSeconds,
		FlagDefault:    600,
		Required:       false,
	}
}

func SnapshotAtomicPersistenceOption(configKey *bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "snapshot-atomic-persistence",
		Usage:       "Write the snapshot and all of its holders in a single transaction. When disabled, failed holder batches are reported and skipped.",
		OptType:     types.Bool,
		ConfigKey:   configKey,
		FlagDefault: false,
		Required:    false,
	}
}

func AdminAddressesOption(configKey *set.Set[string]) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "admin-addresses",
		Usage:          "A comma-separated list of Sui addresses allowed to trigger snapshots. If not provided or empty, the check is disabled.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionSuiAddressSet,
		ConfigKey:      configKey,
		Required:       false,
	}
}

// SnapshotOptions are the options shared by every command that takes snapshots.
func SnapshotOptions(cfg *SnapshotConfigs) config.ConfigOptions {
	return config.ConfigOptions{
		IndexerURLOption(&cfg.IndexerURL),
		IndexerTimeoutOption(&cfg.IndexerTimeout),
		SnapshotTimeoutOption(&cfg.SnapshotTimeout),
		SnapshotAtomicPersistenceOption(&cfg.AtomicPersistence),
	}
}
