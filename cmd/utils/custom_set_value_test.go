package utils

import (
	"go/types"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	set "github.com/deckarep/golang-set/v2"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// customSetterTestCase is a test case to test a custom_set_value function.
type customSetterTestCase[T any] struct {
	name            string
	args            []string
	envValue        string
	wantErrContains string
	wantResult      T
	checkResult     bool
}

// customSetterTester runs a config option through a cobra command and checks what the custom setter produced.
func customSetterTester[T any](t *testing.T, tc customSetterTestCase[T], co config.ConfigOption, got func() T) {
	t.Helper()
	ClearTestEnvironment(t)
	if tc.envValue != "" {
		envName := strings.ToUpper(co.Name)
		envName = strings.ReplaceAll(envName, "-", "_")
		t.Setenv(envName, tc.envValue)
	}

	testCmd := cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			co.Require()
			return co.SetValue()
		},
	}
	buf := new(strings.Builder)
	testCmd.SetOut(buf)

	err := co.Init(&testCmd)
	require.NoError(t, err)

	testCmd.SetArgs(tc.args)
	err = testCmd.Execute()

	if tc.wantErrContains != "" {
		assert.ErrorContains(t, err, tc.wantErrContains)
		return
	}
	require.NoError(t, err)
	if tc.checkResult {
		assert.Equal(t, tc.wantResult, got())
	}
}

// ClearTestEnvironment removes all envs from the test environment, so tests don't depend on the host's variables.
func ClearTestEnvironment(t *testing.T) {
	t.Helper()

	for _, env := range os.Environ() {
		key := env[:strings.Index(env, "=")]
		t.Setenv(key, "")
	}
}

func Test_SetConfigOptionLogLevel(t *testing.T) {
	opts := struct{ logrusLevel logrus.Level }{}

	co := config.ConfigOption{
		Name:           "log-level",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionLogLevel,
		ConfigKey:      &opts.logrusLevel,
	}

	testCases := []customSetterTestCase[logrus.Level]{
		{
			name:            "🔴empty_log_level",
			wantErrContains: `couldn't parse log level in log-level: not a valid logrus Level: ""`,
		},
		{
			name:            "🔴invalid_log_level",
			args:            []string{"--log-level", "test"},
			wantErrContains: `couldn't parse log level in log-level: not a valid logrus Level: "test"`,
		},
		{
			name:        "🟢trace_through_cli_args",
			args:        []string{"--log-level", "TRACE"},
			wantResult:  logrus.TraceLevel,
			checkResult: true,
		},
		{
			name:        "🟢warn_through_env_vars",
			envValue:    "WARN",
			wantResult:  logrus.WarnLevel,
			checkResult: true,
		},
		{
			name:        "🟢lowercase_info",
			args:        []string{"--log-level", "info"},
			wantResult:  logrus.InfoLevel,
			checkResult: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.logrusLevel = logrus.PanicLevel
			customSetterTester(t, tc, co, func() logrus.Level { return opts.logrusLevel })
		})
	}
}

func Test_SetConfigOptionSeconds(t *testing.T) {
	opts := struct{ timeout time.Duration }{}

	co := config.ConfigOption{
		Name:           "snapshot-timeout",
		OptType:        types.Int,
		CustomSetValue: SetConfigOptionSeconds,
		ConfigKey:      &opts.timeout,
		FlagDefault:    600,
	}

	testCases := []customSetterTestCase[time.Duration]{
		{
			name:            "🔴negative_seconds",
			args:            []string{"--snapshot-timeout", "-1"},
			wantErrContains: "snapshot-timeout cannot be negative",
		},
		{
			name:        "🟢default_value",
			wantResult:  10 * time.Minute,
			checkResult: true,
		},
		{
			name:        "🟢through_cli_args",
			args:        []string{"--snapshot-timeout", "45"},
			wantResult:  45 * time.Second,
			checkResult: true,
		},
		{
			name:        "🟢zero_disables_the_timeout",
			envValue:    "0",
			wantResult:  0,
			checkResult: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.timeout = -1
			customSetterTester(t, tc, co, func() time.Duration { return opts.timeout })
		})
	}
}

func Test_SetConfigOptionSuiAddressSet(t *testing.T) {
	opts := struct{ admins set.Set[string] }{}

	co := config.ConfigOption{
		Name:           "admin-addresses",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionSuiAddressSet,
		ConfigKey:      &opts.admins,
	}

	const (
		addrA = "0x00000000000000000000000000000000000000000000000000000000000000aa"
		addrB = "0x00000000000000000000000000000000000000000000000000000000000000bb"
	)

	testCases := []customSetterTestCase[[]string]{
		{
			name:            "🔴invalid_address",
			args:            []string{"--admin-addresses", addrA + ",not-an-address"},
			wantErrContains: `invalid Sui address "not-an-address" provided in admin-addresses`,
		},
		{
			name:        "🟢empty_list",
			wantResult:  []string{},
			checkResult: true,
		},
		{
			name:        "🟢normalizes_case_and_spaces",
			args:        []string{"--admin-addresses", " 0x00000000000000000000000000000000000000000000000000000000000000AA , " + addrB + ",,"},
			wantResult:  []string{addrA, addrB},
			checkResult: true,
		},
		{
			name:        "🟢deduplicates_through_env_vars",
			envValue:    addrA + "," + addrA,
			wantResult:  []string{addrA},
			checkResult: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			opts.admins = nil
			customSetterTester(t, tc, co, func() []string {
				require.NotNil(t, opts.admins)
				return sortedSlice(opts.admins)
			})
		})
	}
}

func sortedSlice(s set.Set[string]) []string {
	out := s.ToSlice()
	slices.Sort(out)
	return out
}
