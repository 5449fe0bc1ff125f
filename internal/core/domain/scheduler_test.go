package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSchedulerConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	assert.True(t, config.Enabled)
	assert.Len(t, config.TaskConfigs, 1)

	consumeCfg := config.TaskConfigs[TaskIDIssueConsume]
	assert.True(t, consumeCfg.Enabled)
	assert.Equal(t, 1*time.Second, consumeCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig(t *testing.T) {
	config := DefaultSchedulerConfig()

	consumeCfg := config.GetTaskConfig(TaskIDIssueConsume)
	assert.True(t, consumeCfg.Enabled)

	unknownCfg := config.GetTaskConfig("unknown-task")
	assert.False(t, unknownCfg.Enabled)
	assert.Equal(t, time.Duration(0), unknownCfg.Interval)
}

func TestSchedulerConfig_GetTaskConfig_NilMap(t *testing.T) {
	config := SchedulerConfig{
		Enabled:     true,
		TaskConfigs: nil,
	}

	cfg := config.GetTaskConfig("any-task")
	assert.False(t, cfg.Enabled)
	assert.Equal(t, time.Duration(0), cfg.Interval)
}

func TestSchedulerConfig_EffectiveTick(t *testing.T) {
	t.Run("explicit tick wins", func(t *testing.T) {
		config := DefaultSchedulerConfig()
		config.TickInterval = 250 * time.Millisecond
		assert.Equal(t, 250*time.Millisecond, config.EffectiveTick())
	})

	t.Run("shortest enabled task interval", func(t *testing.T) {
		config := SchedulerConfig{TaskConfigs: map[string]TaskConfig{
			"a": {Enabled: true, Interval: 5 * time.Second},
			"b": {Enabled: true, Interval: 2 * time.Second},
			"c": {Enabled: false, Interval: time.Millisecond},
		}}
		assert.Equal(t, 2*time.Second, config.EffectiveTick())
	})

	t.Run("defaults to a minute", func(t *testing.T) {
		config := SchedulerConfig{}
		assert.Equal(t, time.Minute, config.EffectiveTick())
	})
}

func TestTaskConstants(t *testing.T) {
	assert.Equal(t, "coupon-issue-consume", TaskIDIssueConsume)
}
