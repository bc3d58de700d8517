package domain

import (
	"time"

	"myvaillant2mqtt/pkg/vaillant"
)

// HVACMode is the host-facing climate mode of a heating zone.
type HVACMode string

const (
	HVAC_MODE_OFF  HVACMode = "off"
	HVAC_MODE_HEAT HVACMode = "heat"
	HVAC_MODE_COOL HVACMode = "cool"
	HVAC_MODE_AUTO HVACMode = "auto"
)

// Preset is the host-facing special function of a zone.
type Preset string

const (
	PRESET_NONE       Preset = "none"
	PRESET_QUICK_VETO Preset = "quick_veto"
	PRESET_HOLIDAY    Preset = "holiday"
	PRESET_SYSTEM_OFF Preset = "system_off"
)

// HVACModeFromOperationMode translates the vendor heating operating mode to
// the host climate mode. The enum stays authoritative internally; this
// translation happens only at the boundary.
func HVACModeFromOperationMode(mode string) HVACMode {
	switch mode {
	case vaillant.OPERATION_MODE_OFF:
		return HVAC_MODE_OFF
	case vaillant.OPERATION_MODE_MANUAL:
		return HVAC_MODE_HEAT
	case vaillant.OPERATION_MODE_TIME_CONTROLLED:
		return HVAC_MODE_AUTO
	}
	return HVAC_MODE_OFF
}

// OperationModeFromHVACMode is the reverse translation. heat and cool both
// map to MANUAL.
func OperationModeFromHVACMode(mode HVACMode) (string, error) {
	switch mode {
	case HVAC_MODE_OFF:
		return vaillant.OPERATION_MODE_OFF, nil
	case HVAC_MODE_HEAT, HVAC_MODE_COOL:
		return vaillant.OPERATION_MODE_MANUAL, nil
	case HVAC_MODE_AUTO:
		return vaillant.OPERATION_MODE_TIME_CONTROLLED, nil
	}
	return "", NewValidationError("unknown hvac mode %q", mode)
}

func PresetFromSpecialFunction(fn string) Preset {
	switch fn {
	case vaillant.SPECIAL_FUNCTION_QUICK_VETO:
		return PRESET_QUICK_VETO
	case vaillant.SPECIAL_FUNCTION_HOLIDAY:
		return PRESET_HOLIDAY
	case vaillant.SPECIAL_FUNCTION_SYSTEM_OFF:
		return PRESET_SYSTEM_OFF
	}
	return PRESET_NONE
}

// SystemSnapshot is one atomic view of the cloud state published by the
// system poller. Snapshots are immutable after publication; readers hold
// the pointer to the latest one.
type SystemSnapshot struct {
	FetchedAt time.Time
	Systems   []vaillant.System
}

func (s *SystemSnapshot) System(systemID string) (vaillant.System, bool) {
	if s == nil {
		return vaillant.System{}, false
	}
	for _, sys := range s.Systems {
		if sys.ID == systemID {
			return sys, true
		}
	}
	return vaillant.System{}, false
}

func (s *SystemSnapshot) Zone(systemID string, index int) (vaillant.Zone, bool) {
	sys, ok := s.System(systemID)
	if !ok {
		return vaillant.Zone{}, false
	}
	for _, zone := range sys.Zones {
		if zone.Index == index {
			return zone, true
		}
	}
	return vaillant.Zone{}, false
}

func (s *SystemSnapshot) Dhw(systemID string, index int) (vaillant.Dhw, bool) {
	sys, ok := s.System(systemID)
	if !ok {
		return vaillant.Dhw{}, false
	}
	for _, dhw := range sys.Dhw {
		if dhw.Index == index {
			return dhw, true
		}
	}
	return vaillant.Dhw{}, false
}

// Location resolves the system's IANA timezone, falling back to UTC.
func (s *SystemSnapshot) Location(systemID string) *time.Location {
	sys, ok := s.System(systemID)
	if !ok || sys.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(sys.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// EnergyBucketKey identifies one day-granularity energy counter series.
type EnergyBucketKey struct {
	SystemID    string
	DeviceIndex int
	SeriesIndex int
}

// EnergySnapshot is the daily-data poller's counterpart of SystemSnapshot.
type EnergySnapshot struct {
	FetchedAt time.Time
	Data      map[EnergyBucketKey]vaillant.EnergyData
}
