package actor

import (
	"context"
	"fmt"
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/port"
	"myvaillant2mqtt/internal/util/actorutil"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"
)

const (
	API_ACTOR_ID = "api"

	apiCallTimeout = 35 * time.Second
)

// APIActor serializes all cloud traffic. Reads pass the update gate before
// touching the network; every finished call reports its error back to the
// gate so quota/outage cooldowns start at the source.
type APIActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	api      port.HeatingAPI
	gate     port.UpdateGate
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewAPIActor(api port.HeatingAPI, gate port.UpdateGate, logger *zap.Logger) *APIActor {
	act := &APIActor{
		api:      api,
		gate:     gate,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger(domain.ACTOR_ID_API, logger),
	}
	act.behavior.Become(act.DefaultReceive)
	return act
}

func (state *APIActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *APIActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("api@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_API,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetSystemsRequest:
		state.logger.Debug("api@default: GetSystemsRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		if paused := state.gate.Admit(); paused != nil {
			ctx.Send(sender, domain.GetSystemsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: paused},
			})
			return
		}
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getSystems),
			mapTaskResult[domain.GetSystemsResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetSystemsResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		}).WithTimeout(apiCallTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingAPI)
	case domain.GetEnergyDataRequest:
		state.logger.Debug("api@default: GetEnergyDataRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		if paused := state.gate.Admit(); paused != nil {
			ctx.Send(sender, domain.GetEnergyDataResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: paused},
			})
			return
		}
		queries := msg.Queries
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.GetEnergyDataResponse, error) {
			return state.getEnergyData(queries)
		}),
			mapTaskResult[domain.GetEnergyDataResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetEnergyDataResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
				},
				replyTo: sender,
			}
		}).WithTimeout(apiCallTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingAPI)
	case domain.StartZoneQuickVetoRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.StartZoneQuickVeto(c, msg.SystemID, msg.Zone, msg.Setpoint, msg.DurationHours)
		})
	case domain.CancelZoneQuickVetoRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.CancelZoneQuickVeto(c, msg.SystemID, msg.Zone)
		})
	case domain.SetZoneOperatingModeRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetZoneOperatingMode(c, msg.SystemID, msg.Zone, msg.Mode)
		})
	case domain.SetZoneManualSetpointRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetZoneManualSetpoint(c, msg.SystemID, msg.Zone, msg.SetpointType, msg.Temperature)
		})
	case domain.SetZoneTimeProgramRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetZoneTimeProgram(c, msg.SystemID, msg.Zone, msg.ProgramType, msg.Program)
		})
	case domain.SetHolidayRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetHoliday(c, msg.SystemID, msg.Start, msg.End, msg.Setpoint)
		})
	case domain.CancelHolidayRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.CancelHoliday(c, msg.SystemID)
		})
	case domain.StartHotWaterBoostRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.StartHotWaterBoost(c, msg.SystemID, msg.Dhw)
		})
	case domain.CancelHotWaterBoostRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.CancelHotWaterBoost(c, msg.SystemID, msg.Dhw)
		})
	case domain.SetDhwOperationModeRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetDhwOperationMode(c, msg.SystemID, msg.Dhw, msg.Mode)
		})
	case domain.SetDhwSetpointRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetDhwSetpoint(c, msg.SystemID, msg.Dhw, msg.Setpoint)
		})
	case domain.SetDhwTimeProgramRequest:
		state.write(ctx, msg, func(c context.Context) error {
			if msg.Circulation {
				return state.api.SetDhwCirculationTimeProgram(c, msg.SystemID, msg.Dhw, msg.Program)
			}
			return state.api.SetDhwTimeProgram(c, msg.SystemID, msg.Dhw, msg.Program)
		})
	case domain.SetVentilationFanStageRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetVentilationFanStage(c, msg.SystemID, msg.Index, msg.StageType, msg.MaxStage)
		})
	case domain.SetCoolingForDaysRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.SetCoolingForDays(c, msg.SystemID, msg.Days)
		})
	case domain.CancelCoolingRequest:
		state.write(ctx, msg, func(c context.Context) error {
			return state.api.CancelCooling(c, msg.SystemID)
		})
	default:
		state.logger.Debug("api@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *APIActor) WaitingAPI(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("api@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("api@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// write runs one cloud write off the actor goroutine and answers with a
// WriteResponse.
func (state *APIActor) write(ctx actor.Context, msg domain.ActorRequest, fn func(context.Context) error) {
	state.logger.Debug("api@default: write", zap.String("type", fmt.Sprintf("%T", msg)))
	sender := actorutil.ForRequest(msg).ReplyTo(ctx)
	actorutil.NewBackgroundTaskNoError(ctx, func() *backgroundTaskResult {
		err := state.observe(fn(context.Background()))
		if err != nil {
			logger.Error(err)
		}
		return &backgroundTaskResult{
			message: domain.WriteResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			},
			replyTo: sender,
		}
	}).WithTimeout(apiCallTimeout).OnError(func(err error) {
		ctx.Send(ctx.Self(), backgroundTaskResult{
			message: domain.WriteResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			},
			replyTo: sender,
		})
	}).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingAPI)
}

func (state *APIActor) getSystems() (*domain.GetSystemsResponse, error) {
	homes, err := state.api.GetHomes(context.Background())
	if err = state.observe(err); err != nil {
		logger.Error(err)
		return nil, err
	}
	systems := make([]vaillant.System, 0, len(homes))
	for _, home := range homes {
		system, err := state.api.GetSystem(context.Background(), home.SystemID)
		if err = state.observe(err); err != nil {
			logger.Error(err)
			return nil, err
		}
		if system.TimeZone == "" {
			system.TimeZone = home.TimeZone
		}
		systems = append(systems, system)
	}
	return &domain.GetSystemsResponse{Systems: systems}, nil
}

func (state *APIActor) getEnergyData(queries []domain.EnergyQuery) (*domain.GetEnergyDataResponse, error) {
	data := make(map[domain.EnergyBucketKey]vaillant.EnergyData, len(queries))
	for _, q := range queries {
		bucket, err := state.api.GetEnergyData(context.Background(),
			q.Key.SystemID, q.Key.DeviceIndex, q.Key.SeriesIndex, q.Start, q.End)
		if err = state.observe(err); err != nil {
			logger.Error(err)
			return nil, err
		}
		data[q.Key] = bucket
	}
	return &domain.GetEnergyDataResponse{Data: data}, nil
}

// observe feeds an error to the gate and passes it through.
func (state *APIActor) observe(err error) error {
	if err != nil {
		state.gate.Observe(err)
	}
	return err
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
