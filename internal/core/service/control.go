package service

import (
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

// DhwModeBoost is the pseudo operation mode exposed on the DHW mode entity.
// It is not a cloud operation mode: selecting it triggers the boost endpoint.
const DhwModeBoost = "BOOST"

// ControlDefaults groups the configured fallbacks the planners need.
type ControlDefaults struct {
	QuickVetoDurationHours   float64
	TimeProgramOverwrite     bool
	DhwLegionellaTemperature float64
	Holiday                  HolidayDefaults
}

// Plan is the ordered list of cloud writes a command resolves to. Steps are
// the api actor's request messages. LongRefresh marks plans whose effect the
// cloud materializes slowly (holiday), doubling the refresh delay.
type Plan struct {
	Steps       []domain.ActorRequest
	LongRefresh bool
}

func (p Plan) Empty() bool {
	return len(p.Steps) == 0
}

func singleStep(req domain.ActorRequest) Plan {
	return Plan{Steps: []domain.ActorRequest{req}}
}

// PlanZoneHVACMode maps an HVAC mode request onto a zone operating mode
// write.
func PlanZoneHVACMode(systemID string, zone int, mode domain.HVACMode) (Plan, error) {
	opMode, err := domain.OperationModeFromHVACMode(mode)
	if err != nil {
		return Plan{}, err
	}
	return singleStep(domain.SetZoneOperatingModeRequest{
		SystemID: systemID, Zone: zone, Mode: opMode,
	}), nil
}

// PlanZonePreset resolves a preset transition against the zone's current
// special function.
func PlanZonePreset(
	system *vaillant.System, zone *vaillant.Zone,
	preset domain.Preset, defaults ControlDefaults, now time.Time,
) (Plan, error) {
	switch preset {
	case domain.PRESET_NONE:
		switch zone.CurrentSpecialFunction {
		case vaillant.SPECIAL_FUNCTION_QUICK_VETO:
			return singleStep(domain.CancelZoneQuickVetoRequest{
				SystemID: system.ID, Zone: zone.Index,
			}), nil
		case vaillant.SPECIAL_FUNCTION_HOLIDAY:
			return Plan{
				Steps:       []domain.ActorRequest{domain.CancelHolidayRequest{SystemID: system.ID}},
				LongRefresh: true,
			}, nil
		}
		return Plan{}, nil
	case domain.PRESET_QUICK_VETO:
		return singleStep(domain.StartZoneQuickVetoRequest{
			SystemID:      system.ID,
			Zone:          zone.Index,
			Setpoint:      zone.ManualModeSetpoint,
			DurationHours: defaults.QuickVetoDurationHours,
		}), nil
	case domain.PRESET_HOLIDAY:
		w, err := ResolveHolidayWindow(nil, nil, nil, system, defaults.Holiday, now)
		if err != nil {
			return Plan{}, err
		}
		return Plan{
			Steps: []domain.ActorRequest{domain.SetHolidayRequest{
				SystemID: system.ID, Start: w.Start, End: w.End, Setpoint: w.Setpoint,
			}},
			LongRefresh: true,
		}, nil
	case domain.PRESET_SYSTEM_OFF:
		// no dedicated endpoint, approximated by switching the zone off
		return singleStep(domain.SetZoneOperatingModeRequest{
			SystemID: system.ID, Zone: zone.Index, Mode: vaillant.OPERATION_MODE_OFF,
		}), nil
	}
	return Plan{}, domain.NewValidationError("unsupported preset %q", preset)
}

// PlanZoneTemperature implements the temperature change policy. In MANUAL
// mode the write is a manual setpoint update. In time-controlled mode the
// configured overwrite option rewrites the active schedule slot; otherwise
// the change becomes a quick veto for the default duration.
func PlanZoneTemperature(
	system *vaillant.System, zone *vaillant.Zone,
	temperature float64, defaults ControlDefaults, now time.Time,
) (Plan, error) {
	if temperature < 0 || temperature > 30 {
		return Plan{}, domain.NewValidationError(
			"temperature %g out of range [0, 30]", temperature)
	}
	if zone.OperationModeHeating == vaillant.OPERATION_MODE_MANUAL {
		return singleStep(domain.SetZoneManualSetpointRequest{
			SystemID:     system.ID,
			Zone:         zone.Index,
			SetpointType: vaillant.SETPOINT_TYPE_HEATING,
			Temperature:  temperature,
		}), nil
	}
	if defaults.TimeProgramOverwrite &&
		zone.CurrentSpecialFunction != vaillant.SPECIAL_FUNCTION_QUICK_VETO {
		if plan, ok := planTimeProgramOverwrite(system, zone, temperature, now); ok {
			return plan, nil
		}
	}
	return singleStep(domain.StartZoneQuickVetoRequest{
		SystemID:      system.ID,
		Zone:          zone.Index,
		Setpoint:      temperature,
		DurationHours: defaults.QuickVetoDurationHours,
	}), nil
}

// planTimeProgramOverwrite rewrites the setpoint of the schedule slot active
// right now. Reports false when no slot is active, in which case the caller
// falls back to a quick veto.
func planTimeProgramOverwrite(
	system *vaillant.System, zone *vaillant.Zone,
	temperature float64, now time.Time,
) (Plan, bool) {
	loc := systemLocation(system)
	local := now.In(loc)
	minute := local.Hour()*60 + local.Minute()
	weekday := domain.WeekdayOf(local)

	tp := domain.TimeProgramFromAPI(zone.HeatingProgram)
	for i, slot := range tp.Days[weekday] {
		if minute >= slot.StartMinute && minute < slot.EffectiveEndMinute() {
			s := tp.Days[weekday][i]
			s.Setpoint = &temperature
			tp.Days[weekday][i] = s
			return singleStep(domain.SetZoneTimeProgramRequest{
				SystemID:    system.ID,
				Zone:        zone.Index,
				ProgramType: vaillant.SETPOINT_TYPE_HEATING,
				Program:     tp.ToAPI(),
			}), true
		}
	}
	return Plan{}, false
}

// PlanDhwOperationMode handles the DHW mode entity. BOOST triggers the boost
// endpoint; any other target while boosting first cancels the boost, then
// applies the mode if it differs from the current one.
func PlanDhwOperationMode(systemID string, dhw *vaillant.Dhw, mode string, defaults ControlDefaults) (Plan, error) {
	if mode == DhwModeBoost {
		return PlanHotWaterBoost(systemID, dhw, defaults), nil
	}
	switch mode {
	case vaillant.OPERATION_MODE_OFF, vaillant.OPERATION_MODE_MANUAL,
		vaillant.OPERATION_MODE_TIME_CONTROLLED, vaillant.OPERATION_MODE_DAY:
	default:
		return Plan{}, domain.NewValidationError("unsupported DHW operation mode %q", mode)
	}
	var steps []domain.ActorRequest
	if dhw.CurrentSpecialFunction == vaillant.SPECIAL_FUNCTION_CYLINDER_BOOST {
		steps = append(steps, domain.CancelHotWaterBoostRequest{
			SystemID: systemID, Dhw: dhw.Index,
		})
	}
	if mode != dhw.OperationMode {
		steps = append(steps, domain.SetDhwOperationModeRequest{
			SystemID: systemID, Dhw: dhw.Index, Mode: mode,
		})
	}
	return Plan{Steps: steps}, nil
}

// PlanHotWaterBoost starts a cylinder boost. When a legionella protection
// temperature is configured above the current tapping setpoint, the setpoint
// is raised first so the boost heats the cylinder past the safe threshold.
func PlanHotWaterBoost(systemID string, dhw *vaillant.Dhw, defaults ControlDefaults) Plan {
	var steps []domain.ActorRequest
	if lp := defaults.DhwLegionellaTemperature; lp > 0 && lp > dhw.TappingSetpoint {
		steps = append(steps, PlanDhwSetpoint(systemID, dhw, lp).Steps...)
	}
	steps = append(steps, domain.StartHotWaterBoostRequest{
		SystemID: systemID, Dhw: dhw.Index,
	})
	return Plan{Steps: steps}
}

// PlanDhwSetpoint clamps the requested tapping temperature into the unit's
// advertised range and truncates to whole degrees, which is all the cloud
// accepts.
func PlanDhwSetpoint(systemID string, dhw *vaillant.Dhw, setpoint float64) Plan {
	clamped := setpoint
	if dhw.MinSetpoint > 0 && clamped < dhw.MinSetpoint {
		clamped = dhw.MinSetpoint
	}
	if dhw.MaxSetpoint > 0 && clamped > dhw.MaxSetpoint {
		clamped = dhw.MaxSetpoint
	}
	return singleStep(domain.SetDhwSetpointRequest{
		SystemID: systemID, Dhw: dhw.Index, Setpoint: int(clamped),
	})
}
