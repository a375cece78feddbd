package utils

import (
	"fmt"
	"strings"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/suimigrate/migrate-backend/internal/validators"
)

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}
	*key = logLevel

	return nil
}

// SetConfigOptionSeconds reads an integer number of seconds into a time.Duration.
func SetConfigOptionSeconds(co *config.ConfigOption) error {
	seconds := viper.GetInt(co.Name)
	if seconds < 0 {
		return fmt.Errorf("%s cannot be negative", co.Name)
	}

	key, ok := co.ConfigKey.(*time.Duration)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a time.Duration, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = time.Duration(seconds) * time.Second

	return nil
}

// SetConfigOptionSuiAddressSet parses a comma-separated list of Sui addresses into a lowercased set.
func SetConfigOptionSuiAddressSet(co *config.ConfigOption) error {
	addresses := set.NewSet[string]()
	for _, address := range strings.Split(viper.GetString(co.Name), ",") {
		address = strings.ToLower(strings.TrimSpace(address))
		if address == "" {
			continue
		}
		if !validators.IsValidSuiAddress(address) {
			return fmt.Errorf("invalid Sui address %q provided in %s", address, co.Name)
		}
		addresses.Add(address)
	}

	key, ok := co.ConfigKey.(*set.Set[string])
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a set of strings, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = addresses

	return nil
}
