package domain

import (
	"fmt"
	"time"
)

// ControlRequest is a command of the service surface (quick veto, holiday,
// setpoints, schedules, fan stage). Commands are routed by the master to
// the control actor, which answers with a ControlResponse: either success
// (optionally with a result dictionary) or a single user-visible error.

type ControlRequest interface {
	ActorRequest
	ControlCommand() string
}

type ControlRequestMixIn struct {
	ActorRequestMixIn
}

func (r ControlRequestMixIn) ControlCommand() string {
	return fmt.Sprintf("%T", r)
}

type ControlResponse struct {
	ActorResponseMixIn
	Result map[string]any
}

// zone commands

type SetQuickVetoCommand struct {
	ControlRequestMixIn
	SystemID      string
	Zone          int
	Temperature   float64
	DurationHours *float64
}

type CancelQuickVetoCommand struct {
	ControlRequestMixIn
	SystemID string
	Zone     int
}

type SetZoneTemperatureCommand struct {
	ControlRequestMixIn
	SystemID    string
	Zone        int
	Temperature float64
}

type SetZoneHVACModeCommand struct {
	ControlRequestMixIn
	SystemID string
	Zone     int
	Mode     HVACMode
}

type SetZonePresetCommand struct {
	ControlRequestMixIn
	SystemID string
	Zone     int
	Preset   Preset
}

type SetManualModeSetpointCommand struct {
	ControlRequestMixIn
	SystemID     string
	Zone         int
	Temperature  float64
	SetpointType string
}

type SetZoneTimeProgramCommand struct {
	ControlRequestMixIn
	SystemID    string
	Zone        int
	ProgramType string
	Program     TimeProgram
}

// holiday commands

type SetHolidayCommand struct {
	ControlRequestMixIn
	SystemID      string
	Start         *time.Time
	End           *time.Time
	DurationHours *float64
}

type CancelHolidayCommand struct {
	ControlRequestMixIn
	SystemID string
}

// cooling commands

type SetCoolingForDaysCommand struct {
	ControlRequestMixIn
	SystemID string
	Days     int
}

type CancelCoolingCommand struct {
	ControlRequestMixIn
	SystemID string
}

// DHW commands

type StartHotWaterBoostCommand struct {
	ControlRequestMixIn
	SystemID string
	Dhw      int
}

type CancelHotWaterBoostCommand struct {
	ControlRequestMixIn
	SystemID string
	Dhw      int
}

type SetDhwOperationModeCommand struct {
	ControlRequestMixIn
	SystemID string
	Dhw      int
	Mode     string
}

type SetDhwSetpointCommand struct {
	ControlRequestMixIn
	SystemID string
	Dhw      int
	Setpoint float64
}

type SetDhwTimeProgramCommand struct {
	ControlRequestMixIn
	SystemID    string
	Dhw         int
	Circulation bool
	Program     TimeProgram
}

// ventilation commands

type SetVentilationFanStageCommand struct {
	ControlRequestMixIn
	SystemID  string
	Index     int
	MaxStage  int
	StageType string
}

// calendar commands, carrying host-side event edits into the time-program
// model

type CalendarEventWrite struct {
	UID          string
	RecurrenceID string
	Scope        string
	Summary      string
	RRule        string
	Start        time.Time
	End          time.Time
}

type CreateCalendarEventCommand struct {
	ControlRequestMixIn
	SystemID string
	Program  ProgramRef
	Event    CalendarEventWrite
}

type UpdateCalendarEventCommand struct {
	ControlRequestMixIn
	SystemID string
	Program  ProgramRef
	Event    CalendarEventWrite
}

type DeleteCalendarEventCommand struct {
	ControlRequestMixIn
	SystemID string
	Program  ProgramRef
	Event    CalendarEventWrite
}

// ProgramRef names one time program of an installation.
type ProgramRef struct {
	Kind  ProgramKind
	Index int
}

type ProgramKind string

const (
	PROGRAM_ZONE_HEATING    ProgramKind = "zone_heating"
	PROGRAM_DHW             ProgramKind = "dhw"
	PROGRAM_DHW_CIRCULATION ProgramKind = "dhw_circulation"
)

// UIDPrefix is the component-specific event UID prefix.
func (p ProgramRef) UIDPrefix() string {
	return fmt.Sprintf("%s_%d", p.Kind, p.Index)
}

// ensure interface compliance
var _ ControlRequest = (*SetQuickVetoCommand)(nil)
