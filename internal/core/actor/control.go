package actor

import (
	"fmt"
	"time"

	"myvaillant2mqtt/internal/config"
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/service"
	. "myvaillant2mqtt/internal/util/actorutil"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const controlWriteTimeout = 40 * time.Second

// longRefreshDelay is the fixed wait before re-reading after writes the
// cloud materializes slowly, such as holiday schedules.
const longRefreshDelay = 10 * time.Second

// ControlActor executes service commands. Every command resolves to a plan
// of cloud writes against the latest system snapshot, the writes run
// sequentially through the api actor, and a successful plan ends with a
// delayed refresh request to the system poller so the entities converge on
// the cloud's view instead of an optimistic local one.
type ControlActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	apiActor     *actor.PID
	systemPoller *actor.PID
	config       *config.Config

	pending *pendingCommand

	logger *zap.Logger
}

type pendingCommand struct {
	command     domain.ControlRequest
	respondTo   *actor.PID
	steps       []domain.ActorRequest
	longRefresh bool
	result      map[string]any
}

func NewControlActor(config *config.Config, apiActor, systemPoller *actor.PID, logger *zap.Logger) *ControlActor {
	act := &ControlActor{
		config:       config,
		apiActor:     apiActor,
		systemPoller: systemPoller,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_CONTROL, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *ControlActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *ControlActor) defaults() service.ControlDefaults {
	cc := state.config.ControlConfig
	return service.ControlDefaults{
		QuickVetoDurationHours:   cc.QuickVetoDurationHours,
		TimeProgramOverwrite:     cc.TimeProgramOverwrite,
		DhwLegionellaTemperature: cc.DhwLegionellaProtectionTemperature,
		Holiday: service.HolidayDefaults{
			DurationHours:  cc.HolidayDurationHours,
			SetpointVRC700: cc.DefaultHolidaySetpoint,
		},
	}
}

func (state *ControlActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("control@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		state.behavior.Become(state.DefaultReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("control@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ControlActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("control@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   "idle",
		})
	case domain.ControlRequest:
		state.logger.Debug("control@default command", zap.String("command", msg.ControlCommand()))
		state.pending = &pendingCommand{
			command:   msg,
			respondTo: ctx.Sender(),
		}
		// planning always runs against the freshest snapshot we have
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.systemPoller, domain.GetSnapshotRequest{}, 10*time.Second), func(err error) any {
			return domain.GetSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}
		})
		state.behavior.BecomeStacked(state.BusyReceive)
	default:
		state.logger.Debug("control@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ControlActor) BusyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSnapshotResponse:
		if msg.Snapshot == nil {
			err := msg.GetResponseError()
			if err == nil {
				err = fmt.Errorf("no system snapshot available yet")
			}
			state.finish(ctx, err)
			return
		}
		plan, result, err := state.buildPlan(state.pending.command, msg.Snapshot, time.Now())
		if err != nil {
			state.finish(ctx, err)
			return
		}
		state.pending.steps = plan.Steps
		state.pending.longRefresh = plan.LongRefresh
		state.pending.result = result
		if plan.Empty() {
			// nothing to change, e.g. selecting the already-active mode
			state.finish(ctx, nil)
			return
		}
		state.sendNextStep(ctx)
	case domain.WriteResponse:
		if msg.HasResponseError() {
			state.finish(ctx, msg.GetResponseError())
			return
		}
		state.pending.steps = state.pending.steps[1:]
		if len(state.pending.steps) > 0 {
			state.sendNextStep(ctx)
			return
		}
		state.scheduleRefresh()
		state.finish(ctx, nil)
	default:
		state.logger.Debug("control@busy: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *ControlActor) sendNextStep(ctx actor.Context) {
	step := state.pending.steps[0]
	state.logger.Debug("control@busy step", zap.String("type", fmt.Sprintf("%T", step)))
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.apiActor, step, controlWriteTimeout), func(err error) any {
		return domain.WriteResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		}
	})
}

// scheduleRefresh arms the delayed refresh of the system poller.
func (state *ControlActor) scheduleRefresh() {
	delay := time.Duration(state.config.UpdateConfig.RefreshDelaySeconds) * time.Second
	if state.pending.longRefresh {
		delay = longRefreshDelay
	}
	state.scheduler.RequestOnce(delay, state.systemPoller, domain.ForceRefresh{})
}

func (state *ControlActor) finish(ctx actor.Context, err error) {
	if err != nil {
		state.logger.Warn("control command failed",
			zap.String("command", state.pending.command.ControlCommand()), zap.Error(err))
	}
	if state.pending.respondTo != nil {
		ctx.Send(state.pending.respondTo, domain.ControlResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			Result:             state.pending.result,
		})
	}
	state.pending = nil
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

// buildPlan turns one command into the list of cloud writes implementing it.
// A command with an empty system id targets the first installation.
func (state *ControlActor) buildPlan(
	cmd domain.ControlRequest, snap *domain.SystemSnapshot, now time.Time,
) (service.Plan, map[string]any, error) {
	defaults := state.defaults()

	switch c := cmd.(type) {
	case domain.SetZoneHVACModeCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		plan, err := service.PlanZoneHVACMode(system.ID, c.Zone, c.Mode)
		return plan, nil, err

	case domain.SetZonePresetCommand:
		system, zone, err := resolveZone(snap, c.SystemID, c.Zone)
		if err != nil {
			return service.Plan{}, nil, err
		}
		plan, err := service.PlanZonePreset(system, zone, c.Preset, defaults, now)
		return plan, nil, err

	case domain.SetZoneTemperatureCommand:
		system, zone, err := resolveZone(snap, c.SystemID, c.Zone)
		if err != nil {
			return service.Plan{}, nil, err
		}
		plan, err := service.PlanZoneTemperature(system, zone, c.Temperature, defaults, now)
		return plan, nil, err

	case domain.SetQuickVetoCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		if c.Temperature < 0 || c.Temperature > 30 {
			return service.Plan{}, nil, domain.NewValidationError(
				"temperature %g out of range [0, 30]", c.Temperature)
		}
		duration := defaults.QuickVetoDurationHours
		if c.DurationHours != nil {
			if *c.DurationHours < 1 {
				return service.Plan{}, nil, domain.NewValidationError(
					"quick veto duration must be at least 1 hour, got %g", *c.DurationHours)
			}
			duration = *c.DurationHours
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.StartZoneQuickVetoRequest{
			SystemID:      system.ID,
			Zone:          c.Zone,
			Setpoint:      c.Temperature,
			DurationHours: duration,
		}}}, nil, nil

	case domain.CancelQuickVetoCommand:
		// cancels are idempotent server-side, always issue the call
		system, _, err := resolveZone(snap, c.SystemID, c.Zone)
		if err != nil {
			return service.Plan{}, nil, err
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.CancelZoneQuickVetoRequest{
			SystemID: system.ID, Zone: c.Zone,
		}}}, nil, nil

	case domain.SetManualModeSetpointCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		setpointType := c.SetpointType
		if setpointType == "" {
			setpointType = vaillant.SETPOINT_TYPE_HEATING
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.SetZoneManualSetpointRequest{
			SystemID:     system.ID,
			Zone:         c.Zone,
			SetpointType: setpointType,
			Temperature:  c.Temperature,
		}}}, nil, nil

	case domain.SetZoneTimeProgramCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		if err := c.Program.CheckOverlap(); err != nil {
			return service.Plan{}, nil, err
		}
		programType := c.ProgramType
		if programType == "" {
			programType = vaillant.SETPOINT_TYPE_HEATING
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.SetZoneTimeProgramRequest{
			SystemID:    system.ID,
			Zone:        c.Zone,
			ProgramType: programType,
			Program:     c.Program.ToAPI(),
		}}}, nil, nil

	case domain.SetHolidayCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		w, err := service.ResolveHolidayWindow(c.Start, c.End, c.DurationHours, system, defaults.Holiday, now)
		if err != nil {
			return service.Plan{}, nil, err
		}
		result := map[string]any{
			"start":    w.Start.Format(time.RFC3339),
			"end":      w.End.Format(time.RFC3339),
			"setpoint": w.Setpoint,
		}
		return service.Plan{
			Steps: []domain.ActorRequest{domain.SetHolidayRequest{
				SystemID: system.ID, Start: w.Start, End: w.End, Setpoint: w.Setpoint,
			}},
			LongRefresh: true,
		}, result, nil

	case domain.CancelHolidayCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		return service.Plan{
			Steps:       []domain.ActorRequest{domain.CancelHolidayRequest{SystemID: system.ID}},
			LongRefresh: true,
		}, nil, nil

	case domain.SetCoolingForDaysCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		days := c.Days
		if days == 0 {
			days = state.config.ControlConfig.ManualCoolingDurationDays
		}
		if days < 1 || days > 365 {
			return service.Plan{}, nil, domain.NewValidationError(
				"cooling duration %d out of range [1, 365] days", days)
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.SetCoolingForDaysRequest{
			SystemID: system.ID, Days: days,
		}}}, nil, nil

	case domain.CancelCoolingCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.CancelCoolingRequest{
			SystemID: system.ID,
		}}}, nil, nil

	case domain.StartHotWaterBoostCommand:
		system, dhw, err := resolveDhw(snap, c.SystemID, c.Dhw)
		if err != nil {
			return service.Plan{}, nil, err
		}
		if dhw.CurrentSpecialFunction == vaillant.SPECIAL_FUNCTION_CYLINDER_BOOST {
			return service.Plan{}, nil, nil
		}
		return service.PlanHotWaterBoost(system.ID, dhw, defaults), nil, nil

	case domain.CancelHotWaterBoostCommand:
		system, dhw, err := resolveDhw(snap, c.SystemID, c.Dhw)
		if err != nil {
			return service.Plan{}, nil, err
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.CancelHotWaterBoostRequest{
			SystemID: system.ID, Dhw: dhw.Index,
		}}}, nil, nil

	case domain.SetDhwOperationModeCommand:
		system, dhw, err := resolveDhw(snap, c.SystemID, c.Dhw)
		if err != nil {
			return service.Plan{}, nil, err
		}
		plan, err := service.PlanDhwOperationMode(system.ID, dhw, c.Mode, defaults)
		return plan, nil, err

	case domain.SetDhwSetpointCommand:
		system, dhw, err := resolveDhw(snap, c.SystemID, c.Dhw)
		if err != nil {
			return service.Plan{}, nil, err
		}
		return service.PlanDhwSetpoint(system.ID, dhw, c.Setpoint), nil, nil

	case domain.SetDhwTimeProgramCommand:
		system, dhw, err := resolveDhw(snap, c.SystemID, c.Dhw)
		if err != nil {
			return service.Plan{}, nil, err
		}
		if err := c.Program.CheckOverlap(); err != nil {
			return service.Plan{}, nil, err
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.SetDhwTimeProgramRequest{
			SystemID:    system.ID,
			Dhw:         dhw.Index,
			Circulation: c.Circulation,
			Program:     c.Program.ToAPI(),
		}}}, nil, nil

	case domain.SetVentilationFanStageCommand:
		system, err := resolveSystem(snap, c.SystemID)
		if err != nil {
			return service.Plan{}, nil, err
		}
		if c.StageType != vaillant.FAN_STAGE_TYPE_DAY && c.StageType != vaillant.FAN_STAGE_TYPE_NIGHT {
			return service.Plan{}, nil, domain.NewValidationError(
				"unsupported fan stage type %q", c.StageType)
		}
		if c.MaxStage < 1 || c.MaxStage > 6 {
			return service.Plan{}, nil, domain.NewValidationError(
				"fan stage %d out of range [1, 6]", c.MaxStage)
		}
		return service.Plan{Steps: []domain.ActorRequest{domain.SetVentilationFanStageRequest{
			SystemID:  system.ID,
			Index:     c.Index,
			StageType: c.StageType,
			MaxStage:  c.MaxStage,
		}}}, nil, nil

	case domain.CreateCalendarEventCommand:
		return state.planCalendarEdit(snap, c.SystemID, c.Program, c.Event, calendarEditCreate)
	case domain.UpdateCalendarEventCommand:
		return state.planCalendarEdit(snap, c.SystemID, c.Program, c.Event, calendarEditUpdate)
	case domain.DeleteCalendarEventCommand:
		return state.planCalendarEdit(snap, c.SystemID, c.Program, c.Event, calendarEditDelete)
	}
	return service.Plan{}, nil, domain.NewValidationError(
		"unsupported command %T", cmd)
}

type calendarEditKind int

const (
	calendarEditCreate calendarEditKind = iota
	calendarEditUpdate
	calendarEditDelete
)

// planCalendarEdit applies a host-side calendar edit to the targeted weekly
// program and emits the single write replacing that program.
func (state *ControlActor) planCalendarEdit(
	snap *domain.SystemSnapshot, systemID string,
	ref domain.ProgramRef, ev domain.CalendarEventWrite, kind calendarEditKind,
) (service.Plan, map[string]any, error) {
	system, err := resolveSystem(snap, systemID)
	if err != nil {
		return service.Plan{}, nil, err
	}

	var (
		tp           domain.TimeProgram
		hasSetpoints bool
	)
	switch ref.Kind {
	case domain.PROGRAM_ZONE_HEATING:
		_, zone, err := resolveZone(snap, system.ID, ref.Index)
		if err != nil {
			return service.Plan{}, nil, err
		}
		tp = domain.TimeProgramFromAPI(zone.HeatingProgram)
		hasSetpoints = true
	case domain.PROGRAM_DHW:
		_, dhw, err := resolveDhw(snap, system.ID, ref.Index)
		if err != nil {
			return service.Plan{}, nil, err
		}
		tp = domain.TimeProgramFromAPI(dhw.TimeProgram)
	case domain.PROGRAM_DHW_CIRCULATION:
		_, dhw, err := resolveDhw(snap, system.ID, ref.Index)
		if err != nil {
			return service.Plan{}, nil, err
		}
		tp = domain.TimeProgramFromAPI(dhw.CirculationProgram)
	default:
		return service.Plan{}, nil, domain.NewValidationError(
			"unknown time program kind %q", ref.Kind)
	}

	var edited domain.TimeProgram
	switch kind {
	case calendarEditCreate:
		edited, err = service.CreateScheduleEvent(tp, ev, hasSetpoints)
	case calendarEditUpdate:
		edited, err = service.UpdateScheduleEvent(tp, ev, hasSetpoints)
	case calendarEditDelete:
		edited, err = service.DeleteScheduleEvent(tp, ev)
	}
	if err != nil {
		return service.Plan{}, nil, err
	}

	var step domain.ActorRequest
	switch ref.Kind {
	case domain.PROGRAM_ZONE_HEATING:
		step = domain.SetZoneTimeProgramRequest{
			SystemID:    system.ID,
			Zone:        ref.Index,
			ProgramType: vaillant.SETPOINT_TYPE_HEATING,
			Program:     edited.ToAPI(),
		}
	default:
		step = domain.SetDhwTimeProgramRequest{
			SystemID:    system.ID,
			Dhw:         ref.Index,
			Circulation: ref.Kind == domain.PROGRAM_DHW_CIRCULATION,
			Program:     edited.ToAPI(),
		}
	}
	return service.Plan{Steps: []domain.ActorRequest{step}}, nil, nil
}

func resolveSystem(snap *domain.SystemSnapshot, systemID string) (*vaillant.System, error) {
	if systemID == "" {
		if len(snap.Systems) == 0 {
			return nil, fmt.Errorf("no installation available")
		}
		return &snap.Systems[0], nil
	}
	for i := range snap.Systems {
		if snap.Systems[i].ID == systemID {
			return &snap.Systems[i], nil
		}
	}
	return nil, domain.NewValidationError("unknown system %q", systemID)
}

func resolveZone(snap *domain.SystemSnapshot, systemID string, index int) (*vaillant.System, *vaillant.Zone, error) {
	system, err := resolveSystem(snap, systemID)
	if err != nil {
		return nil, nil, err
	}
	for i := range system.Zones {
		if system.Zones[i].Index == index {
			return system, &system.Zones[i], nil
		}
	}
	return nil, nil, domain.NewValidationError("system %s has no zone %d", system.ID, index)
}

func resolveDhw(snap *domain.SystemSnapshot, systemID string, index int) (*vaillant.System, *vaillant.Dhw, error) {
	system, err := resolveSystem(snap, systemID)
	if err != nil {
		return nil, nil, err
	}
	for i := range system.Dhw {
		if system.Dhw[i].Index == index {
			return system, &system.Dhw[i], nil
		}
	}
	return nil, nil, domain.NewValidationError("system %s has no domestic hot water circuit %d", system.ID, index)
}
