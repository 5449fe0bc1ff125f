package cli

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "coupon", rootCmd.Use)
	for _, name := range []string{"config-dir", "verbose", "ephemeral"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
}

func TestExecute_BuildsAndClosesServices(t *testing.T) {
	_, cleanup := setupSettingsTest()
	defer cleanup()
	oldFactory := factory
	defer func() {
		factory = oldFactory
		configDir, ephemeral = "", false
	}()

	var gotOpts Options
	closed := false
	settings := newMockSettingsService()
	build := func(_ context.Context, opts Options) (*Services, error) {
		gotOpts = opts
		return &Services{
			Settings: settings,
			Close: func() error {
				closed = true
				return nil
			},
		}, nil
	}

	rootCmd.SetArgs([]string{"settings", "show", "--config-dir", "/tmp/coupon-cfg", "--ephemeral"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "", build)

	require.NoError(t, err)
	assert.Equal(t, Options{ConfigDir: "/tmp/coupon-cfg", Ephemeral: true}, gotOpts)
	assert.True(t, closed)
	assert.Same(t, settings, settingsService)
}

func TestExecute_FactoryError(t *testing.T) {
	oldFactory := factory
	defer func() { factory = oldFactory }()

	rootCmd.SetArgs([]string{"settings", "show"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "", func(context.Context, Options) (*Services, error) {
		return nil, errors.New("database is locked")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestExecute_VersionSkipsFactory(t *testing.T) {
	oldFactory, oldVersion := factory, version
	defer func() { factory, version = oldFactory, oldVersion }()

	called := false
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	err := Execute(context.Background(), "1.2.3", func(context.Context, Options) (*Services, error) {
		called = true
		return &Services{}, nil
	})

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, "1.2.3", version)
}

func TestConfigure(t *testing.T) {
	oldSettings, oldConfig, oldLocal := settingsService, schedulerConfig, localQueue
	defer func() { settingsService, schedulerConfig, localQueue = oldSettings, oldConfig, oldLocal }()

	settings := newMockSettingsService()
	Configure(&Services{Settings: settings, SchedulerConfig: domain.DefaultSchedulerConfig(), LocalQueue: true})

	assert.Same(t, settings, settingsService)
	assert.True(t, schedulerConfig.Enabled)
	assert.True(t, localQueue)
}

func TestIgnoreCancel(t *testing.T) {
	assert.NoError(t, ignoreCancel(nil))
	assert.NoError(t, ignoreCancel(context.Canceled))
	assert.ErrorIs(t, ignoreCancel(context.DeadlineExceeded), context.DeadlineExceeded)
}
