package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

var testDefaults = ControlDefaults{
	QuickVetoDurationHours: 3,
	Holiday:                HolidayDefaults{DurationHours: 24, SetpointVRC700: 10.0},
}

func TestPlanZoneHVACMode(t *testing.T) {
	plan, err := PlanZoneHVACMode("system-0", 0, domain.HVAC_MODE_AUTO)
	assert.NoError(t, err)
	assert.Equal(t, []domain.ActorRequest{domain.SetZoneOperatingModeRequest{
		SystemID: "system-0", Zone: 0, Mode: vaillant.OPERATION_MODE_TIME_CONTROLLED,
	}}, plan.Steps)

	plan, err = PlanZoneHVACMode("system-0", 0, domain.HVAC_MODE_HEAT)
	assert.NoError(t, err)
	assert.Equal(t, vaillant.OPERATION_MODE_MANUAL,
		plan.Steps[0].(domain.SetZoneOperatingModeRequest).Mode)

	_, err = PlanZoneHVACMode("system-0", 0, domain.HVACMode("dry"))
	assert.True(t, domain.IsValidationError(err))
}

func TestPlanZonePresetTransitions(t *testing.T) {
	sys := holidayTestSystem()
	zone := &sys.Zones[0]
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	// NONE with no active special function is a no-op
	plan, err := PlanZonePreset(sys, zone, domain.PRESET_NONE, testDefaults, now)
	assert.NoError(t, err)
	assert.True(t, plan.Empty())

	// NONE while quick veto cancels the veto
	zone.CurrentSpecialFunction = vaillant.SPECIAL_FUNCTION_QUICK_VETO
	plan, err = PlanZonePreset(sys, zone, domain.PRESET_NONE, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, domain.CancelZoneQuickVetoRequest{SystemID: "system-0", Zone: 0},
		plan.Steps[0])

	// NONE while holiday cancels the holiday, with the long refresh delay
	zone.CurrentSpecialFunction = vaillant.SPECIAL_FUNCTION_HOLIDAY
	plan, err = PlanZonePreset(sys, zone, domain.PRESET_NONE, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, domain.CancelHolidayRequest{SystemID: "system-0"}, plan.Steps[0])
	assert.True(t, plan.LongRefresh)

	// quick veto uses the manual mode setpoint and the default duration
	zone.CurrentSpecialFunction = vaillant.SPECIAL_FUNCTION_NONE
	plan, err = PlanZonePreset(sys, zone, domain.PRESET_QUICK_VETO, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, domain.StartZoneQuickVetoRequest{
		SystemID: "system-0", Zone: 0, Setpoint: 20, DurationHours: 3,
	}, plan.Steps[0])

	// holiday uses default bounds and flags the long refresh
	plan, err = PlanZonePreset(sys, zone, domain.PRESET_HOLIDAY, testDefaults, now)
	assert.NoError(t, err)
	assert.True(t, plan.LongRefresh)
	holiday := plan.Steps[0].(domain.SetHolidayRequest)
	assert.True(t, holiday.End.Equal(holiday.Start.Add(24*time.Hour)))

	// system off falls back to switching the zone off
	plan, err = PlanZonePreset(sys, zone, domain.PRESET_SYSTEM_OFF, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, vaillant.OPERATION_MODE_OFF,
		plan.Steps[0].(domain.SetZoneOperatingModeRequest).Mode)
}

func TestPlanZoneTemperatureManualMode(t *testing.T) {
	sys := holidayTestSystem()
	zone := &sys.Zones[0]
	zone.OperationModeHeating = vaillant.OPERATION_MODE_MANUAL
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	plan, err := PlanZoneTemperature(sys, zone, 22.5, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, domain.SetZoneManualSetpointRequest{
		SystemID: "system-0", Zone: 0,
		SetpointType: vaillant.SETPOINT_TYPE_HEATING, Temperature: 22.5,
	}, plan.Steps[0])
}

func TestPlanZoneTemperatureQuickVetoFallback(t *testing.T) {
	sys := holidayTestSystem()
	zone := &sys.Zones[0]
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	plan, err := PlanZoneTemperature(sys, zone, 22.5, testDefaults, now)
	assert.NoError(t, err)
	assert.Equal(t, domain.StartZoneQuickVetoRequest{
		SystemID: "system-0", Zone: 0, Setpoint: 22.5, DurationHours: 3,
	}, plan.Steps[0])
}

func TestPlanZoneTemperatureTimeProgramOverwrite(t *testing.T) {
	sys := holidayTestSystem()
	zone := &sys.Zones[0]
	defaults := testDefaults
	defaults.TimeProgramOverwrite = true

	// 2023-01-02 is a monday; 08:00 Berlin falls inside the 05:00-10:00 slot
	berlin, _ := time.LoadLocation("Europe/Berlin")
	now := time.Date(2023, 1, 2, 8, 0, 0, 0, berlin)

	plan, err := PlanZoneTemperature(sys, zone, 19.0, defaults, now)
	assert.NoError(t, err)
	write := plan.Steps[0].(domain.SetZoneTimeProgramRequest)
	assert.Equal(t, vaillant.SETPOINT_TYPE_HEATING, write.ProgramType)
	assert.Equal(t, 19.0, *write.Program.Monday[0].Setpoint)
	assert.Equal(t, 20.0, *write.Program.Monday[1].Setpoint)
	// the published snapshot is untouched
	assert.Equal(t, 21.0, *zone.HeatingProgram.Monday[0].Setpoint)

	// no active slot: falls back to a quick veto
	gap := time.Date(2023, 1, 2, 12, 0, 0, 0, berlin)
	plan, err = PlanZoneTemperature(sys, zone, 19.0, defaults, gap)
	assert.NoError(t, err)
	assert.IsType(t, domain.StartZoneQuickVetoRequest{}, plan.Steps[0])

	// active quick veto bypasses the overwrite
	zone.CurrentSpecialFunction = vaillant.SPECIAL_FUNCTION_QUICK_VETO
	plan, err = PlanZoneTemperature(sys, zone, 19.0, defaults, now)
	assert.NoError(t, err)
	assert.IsType(t, domain.StartZoneQuickVetoRequest{}, plan.Steps[0])
}

func TestPlanZoneTemperatureRange(t *testing.T) {
	sys := holidayTestSystem()
	zone := &sys.Zones[0]
	now := time.Now()

	_, err := PlanZoneTemperature(sys, zone, 31, testDefaults, now)
	assert.True(t, domain.IsValidationError(err))
	_, err = PlanZoneTemperature(sys, zone, -1, testDefaults, now)
	assert.True(t, domain.IsValidationError(err))
}

func TestPlanDhwOperationMode(t *testing.T) {
	sys := holidayTestSystem()
	dhw := &sys.Dhw[0]

	// boost request hits the boost endpoint
	plan, err := PlanDhwOperationMode("system-0", dhw, DhwModeBoost, testDefaults)
	assert.NoError(t, err)
	assert.Equal(t, domain.StartHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
		plan.Steps[0])

	// same mode, not boosting: nothing to do
	plan, err = PlanDhwOperationMode("system-0", dhw, vaillant.OPERATION_MODE_TIME_CONTROLLED, testDefaults)
	assert.NoError(t, err)
	assert.True(t, plan.Empty())

	// mode change while boosting cancels the boost first
	dhw.CurrentSpecialFunction = vaillant.SPECIAL_FUNCTION_CYLINDER_BOOST
	plan, err = PlanDhwOperationMode("system-0", dhw, vaillant.OPERATION_MODE_OFF, testDefaults)
	assert.NoError(t, err)
	assert.Equal(t, []domain.ActorRequest{
		domain.CancelHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
		domain.SetDhwOperationModeRequest{SystemID: "system-0", Dhw: 255, Mode: vaillant.OPERATION_MODE_OFF},
	}, plan.Steps)

	// same mode while boosting only cancels the boost
	plan, err = PlanDhwOperationMode("system-0", dhw, vaillant.OPERATION_MODE_TIME_CONTROLLED, testDefaults)
	assert.NoError(t, err)
	assert.Equal(t, []domain.ActorRequest{
		domain.CancelHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
	}, plan.Steps)

	_, err = PlanDhwOperationMode("system-0", dhw, "TURBO", testDefaults)
	assert.True(t, domain.IsValidationError(err))
}

func TestPlanDhwSetpointClamp(t *testing.T) {
	sys := holidayTestSystem()
	dhw := &sys.Dhw[0] // range [35, 65]

	assert.Equal(t, 50, PlanDhwSetpoint("system-0", dhw, 50.7).
		Steps[0].(domain.SetDhwSetpointRequest).Setpoint)
	assert.Equal(t, 35, PlanDhwSetpoint("system-0", dhw, 20).
		Steps[0].(domain.SetDhwSetpointRequest).Setpoint)
	assert.Equal(t, 65, PlanDhwSetpoint("system-0", dhw, 80).
		Steps[0].(domain.SetDhwSetpointRequest).Setpoint)
}

func TestPlanHotWaterBoost(t *testing.T) {
	sys := holidayTestSystem()
	dhw := &sys.Dhw[0] // tapping setpoint 50, range [35, 65]

	// no protection temperature configured: boost only
	plan := PlanHotWaterBoost("system-0", dhw, testDefaults)
	assert.Equal(t, []domain.ActorRequest{
		domain.StartHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
	}, plan.Steps)

	// configured above the tapping setpoint: raise it first, clamped to range
	defaults := testDefaults
	defaults.DhwLegionellaTemperature = 70
	plan = PlanHotWaterBoost("system-0", dhw, defaults)
	assert.Equal(t, []domain.ActorRequest{
		domain.SetDhwSetpointRequest{SystemID: "system-0", Dhw: 255, Setpoint: 65},
		domain.StartHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
	}, plan.Steps)

	// configured below the tapping setpoint: nothing to raise
	defaults.DhwLegionellaTemperature = 45
	plan = PlanHotWaterBoost("system-0", dhw, defaults)
	assert.Equal(t, []domain.ActorRequest{
		domain.StartHotWaterBoostRequest{SystemID: "system-0", Dhw: 255},
	}, plan.Steps)
}
