package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

func holidayTestSystem() *vaillant.System {
	s := vaillant.TestSystem()
	return &s
}

func TestResolveHolidayWindowDurationOnly(t *testing.T) {
	sys := holidayTestSystem()
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	dur := 48.0

	w, err := ResolveHolidayWindow(nil, nil, &dur, sys,
		HolidayDefaults{DurationHours: 24, SetpointVRC700: 10.0}, now)
	assert.NoError(t, err)

	berlin, _ := time.LoadLocation("Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", w.Start.Location().String())
	assert.True(t, w.Start.Equal(now.In(berlin)))
	assert.True(t, w.End.Equal(now.Add(48*time.Hour)))
}

func TestResolveHolidayWindowEndAndDurationExclusive(t *testing.T) {
	sys := holidayTestSystem()
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)
	end := now.Add(72 * time.Hour)
	dur := 48.0

	_, err := ResolveHolidayWindow(nil, &end, &dur, sys, HolidayDefaults{}, now)
	assert.Error(t, err)
	assert.True(t, domain.IsValidationError(err))
}

func TestResolveHolidayWindowDefaults(t *testing.T) {
	sys := holidayTestSystem()
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	w, err := ResolveHolidayWindow(nil, nil, nil, sys,
		HolidayDefaults{DurationHours: 24, SetpointVRC700: 10.0}, now)
	assert.NoError(t, err)
	assert.True(t, w.End.Equal(now.Add(24*time.Hour)))
	assert.Equal(t, 0.0, w.Setpoint) // tli controller takes no holiday setpoint

	sys.ControlIdentifier = vaillant.CONTROL_IDENTIFIER_VRC700
	w, err = ResolveHolidayWindow(nil, nil, nil, sys,
		HolidayDefaults{DurationHours: 24, SetpointVRC700: 10.0}, now)
	assert.NoError(t, err)
	assert.Equal(t, 10.0, w.Setpoint)
}

func TestResolveHolidayWindowValidation(t *testing.T) {
	sys := holidayTestSystem()
	now := time.Date(2023, 1, 2, 10, 0, 0, 0, time.UTC)

	short := 0.5
	_, err := ResolveHolidayWindow(nil, nil, &short, sys, HolidayDefaults{}, now)
	assert.True(t, domain.IsValidationError(err))

	past := now.Add(-time.Hour)
	_, err = ResolveHolidayWindow(nil, &past, nil, sys, HolidayDefaults{}, now)
	assert.True(t, domain.IsValidationError(err))
}
