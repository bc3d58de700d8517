package service

import (
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

// HolidayDefaults are the fallbacks applied when a holiday request leaves a
// bound unspecified. They come straight from configuration.
type HolidayDefaults struct {
	DurationHours  float64
	SetpointVRC700 float64
}

// HolidayWindow is a fully resolved away-mode interval plus the setpoint to
// push for controllers that take one.
type HolidayWindow struct {
	Start    time.Time
	End      time.Time
	Setpoint float64
}

// ResolveHolidayWindow turns a partial holiday request (any of start, end,
// duration) into concrete bounds. End and duration are mutually exclusive.
// A missing start defaults to now in the installation's timezone.
func ResolveHolidayWindow(
	start *time.Time, end *time.Time, durationHours *float64,
	system *vaillant.System, defaults HolidayDefaults, now time.Time,
) (HolidayWindow, error) {
	if end != nil && durationHours != nil {
		return HolidayWindow{}, domain.NewValidationError(
			"holiday end and duration are mutually exclusive")
	}
	if durationHours != nil && *durationHours < 1 {
		return HolidayWindow{}, domain.NewValidationError(
			"holiday duration must be at least 1 hour, got %g", *durationHours)
	}

	loc := systemLocation(system)
	w := HolidayWindow{Setpoint: defaults.SetpointVRC700}
	if system.ControlIdentifier != vaillant.CONTROL_IDENTIFIER_VRC700 {
		w.Setpoint = 0
	}

	if start != nil {
		w.Start = start.In(loc)
	} else {
		w.Start = now.In(loc)
	}
	switch {
	case end != nil:
		w.End = end.In(loc)
	case durationHours != nil:
		w.End = w.Start.Add(time.Duration(*durationHours * float64(time.Hour)))
	default:
		w.End = w.Start.Add(time.Duration(defaults.DurationHours * float64(time.Hour)))
	}
	if !w.End.After(w.Start) {
		return HolidayWindow{}, domain.NewValidationError(
			"holiday end %s is not after start %s", w.End, w.Start)
	}
	return w, nil
}

func systemLocation(system *vaillant.System) *time.Location {
	if system == nil || system.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(system.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}
