package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"myvaillant2mqtt/internal/util"
)

func TestCheckConfigBounds(t *testing.T) {
	cfg := util.LoadTestConfig()
	assert.NoError(t, checkConfigBounds(&cfg))

	// one-second polling and an immediate refresh are both allowed
	cfg.UpdateConfig.UpdateIntervalSeconds = 1
	cfg.UpdateConfig.UpdateIntervalDailySeconds = 1
	cfg.UpdateConfig.RefreshDelaySeconds = 0
	assert.NoError(t, checkConfigBounds(&cfg))

	cfg.UpdateConfig.UpdateIntervalSeconds = 0
	assert.Error(t, checkConfigBounds(&cfg))

	cfg = util.LoadTestConfig()
	cfg.ControlConfig.QuickVetoDurationHours = 0
	assert.Error(t, checkConfigBounds(&cfg))

	cfg = util.LoadTestConfig()
	cfg.ControlConfig.DefaultHolidaySetpoint = 31
	assert.Error(t, checkConfigBounds(&cfg))

	cfg = util.LoadTestConfig()
	cfg.ControlConfig.DhwLegionellaProtectionTemperature = 101
	assert.Error(t, checkConfigBounds(&cfg))
}
