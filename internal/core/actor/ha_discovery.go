package actor

import (
	"errors"
	"fmt"
	"time"

	"myvaillant2mqtt/internal/config"
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// HADiscoveryActor announces the entity surface once at startup: it waits
// for the system poller and the MQTT actor to be healthy, grabs the first
// snapshot and publishes one discovery config per entity. The entity set is
// derived from the snapshot, so only hardware the installation actually
// reports gets announced.
type HADiscoveryActor struct {
	config             *config.Config
	version            string
	behavior           actor.Behavior
	stash              *actorutil.Stash
	scheduler          *scheduler.TimerScheduler
	systemPoller       *actor.PID
	mqttActor          *actor.PID
	pollerActorHealthy bool
	mqttActorHealthy   bool
	healthyRecv        int

	logger *zap.Logger
}

type retrySnapshot struct {
}

func NewHADiscoveryActor(config *config.Config, version string, systemPoller *actor.PID, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:       config,
		version:      version,
		systemPoller: systemPoller,
		mqttActor:    mqttActor,
		behavior:     actor.NewBehavior(),
		stash:        &actorutil.Stash{},
		logger:       actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)

		state.healthyRecv = 0
		state.pollerActorHealthy = false
		state.mqttActorHealthy = false
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.systemPoller, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_SYSTEM_POLLER,
				Healthy: false,
			}
		})
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 2*time.Second), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.healthyRecv++
		if msg.Healthy {
			switch msg.Id {
			case domain.ACTOR_ID_SYSTEM_POLLER:
				state.pollerActorHealthy = true
			case domain.ACTOR_ID_MQTT:
				state.mqttActorHealthy = true
			}
		}
		if state.healthyRecv == 2 {
			if state.pollerActorHealthy && state.mqttActorHealthy {
				state.requestSnapshot(ctx)
				state.behavior.Become(state.WaitingSnapshotReceive)
				state.stash.UnstashAll(ctx)
			} else {
				panic(errors.New("MQTT Actor or SystemPoller Actor are not healthy"))
			}
		}
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) requestSnapshot(ctx actor.Context) {
	actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.systemPoller, domain.GetSnapshotRequest{}, 10*time.Second), func(err error) any {
		return domain.GetSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		}
	})
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {

}

func (state *HADiscoveryActor) WaitingSnapshotReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSnapshotResponse:
		if msg.Snapshot == nil || len(msg.Snapshot.Systems) == 0 {
			// first poll may still be in flight, try again shortly
			state.logger.Debug("hadiscovery@snapshot: not ready, retrying")
			state.scheduler.RequestOnce(10*time.Second, ctx.Self(), retrySnapshot{})
			return
		}
		state.logger.Debug("hadiscovery@snapshot: GetSnapshotResponse")

		var sensors []domain.GenericSensor
		var switches []domain.GenericSwitch
		var selects []domain.GenericSelect
		var inputNumbers []domain.GenericInputNumber

		bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic, state.version)
		sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

		for i := range msg.Snapshot.Systems {
			system := &msg.Snapshot.Systems[i]
			systemDevice := domain.SystemDevice(system)
			systemDevice.ViaDevice = bridgeDevice.Id
			idDevice := domain.IdDevice(systemDevice)

			var systemSensors []domain.GenericSensor
			systemSensors = append(systemSensors, domain.SystemBaseSensors(systemDevice, system)...)
			for j := range system.Zones {
				zone := &system.Zones[j]
				systemSensors = append(systemSensors, domain.ZoneSensors(idDevice, zone)...)
				selects = append(selects, domain.ZoneSelects(idDevice, zone)...)
				inputNumbers = append(inputNumbers, domain.ZoneInputNumbers(idDevice, zone)...)
			}
			for j := range system.Circuits {
				systemSensors = append(systemSensors, domain.CircuitSensors(idDevice, &system.Circuits[j])...)
			}
			for j := range system.Dhw {
				dhw := &system.Dhw[j]
				systemSensors = append(systemSensors, domain.DhwSensors(idDevice, dhw)...)
				selects = append(selects, domain.DhwSelects(idDevice, dhw)...)
				switches = append(switches, domain.DhwSwitches(idDevice, dhw)...)
				inputNumbers = append(inputNumbers, domain.DhwInputNumbers(idDevice, dhw)...)
			}
			if state.config.FeatureConfig.Ventilation {
				for j := range system.Ventilation {
					inputNumbers = append(inputNumbers, domain.VentilationInputNumbers(idDevice, &system.Ventilation[j])...)
				}
			}
			if state.config.FeatureConfig.AmbisenseRooms {
				for j := range system.Rooms {
					systemSensors = append(systemSensors, domain.RoomSensors(idDevice, &system.Rooms[j])...)
				}
			}
			// only the first entity of a device carries the full descriptor
			for j := range systemSensors {
				if j == 0 {
					systemSensors[j].Device = systemDevice
				}
				sensors = append(sensors, systemSensors[j])
			}
		}

		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors:      sensors,
			Switches:     switches,
			Selects:      selects,
			InputNumbers: inputNumbers,
		})
		state.behavior.Become(state.Done)
	case retrySnapshot:
		state.requestSnapshot(ctx)
	default:
		state.logger.Debug("hadiscovery@snapshot: default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}
