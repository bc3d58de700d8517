package actor

import (
	"fmt"
	"time"

	"myvaillant2mqtt/internal/config"
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/events"
	. "myvaillant2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// SystemPollerActor is the system coordinator: it fetches the full system
// state on a fixed cadence, publishes the snapshot as sensor update events
// and serves the latest snapshot to whoever asks. A ForceRefresh message
// triggers one out-of-cycle fetch (the tail of a delayed-refresh commit).
type SystemPollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	apiActor    *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	snapshot    *domain.SystemSnapshot
	lastError   error

	logger *zap.Logger
}

type systemPollTick struct {
}

func NewSystemPollerActor(config *config.Config, apiActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *SystemPollerActor {
	act := &SystemPollerActor{
		config:      config,
		apiActor:    apiActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_SYSTEM_POLLER, logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *SystemPollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *SystemPollerActor) pollInterval() time.Duration {
	return time.Duration(state.config.UpdateConfig.UpdateIntervalSeconds) * time.Second
}

func (state *SystemPollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("system_poller@starting started")
		state.scheduler = scheduler.NewTimerScheduler(ctx)
		// first fetch right away
		ctx.Send(ctx.Self(), systemPollTick{})
		state.behavior.Become(state.DefaultReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("system_poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SystemPollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("system_poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SYSTEM_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case systemPollTick:
		state.logger.Debug("system_poller@default tick")
		state.requestFetch(ctx)
		// schedule next tick
		state.scheduler.RequestOnce(state.pollInterval(), ctx.Self(), systemPollTick{})
		state.behavior.BecomeStacked(state.WaitingFetchReceive)
	case domain.ForceRefresh:
		// out-of-cycle refresh after a write; the periodic cadence stays
		// untouched
		state.logger.Debug("system_poller@default ForceRefresh")
		state.requestFetch(ctx)
		state.behavior.BecomeStacked(state.WaitingFetchReceive)
	case domain.GetSnapshotRequest:
		ctx.Respond(domain.GetSnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: state.lastError},
			Snapshot:           state.snapshot,
		})
	default:
		state.logger.Debug("system_poller@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *SystemPollerActor) requestFetch(ctx actor.Context) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.apiActor, domain.GetSystemsRequest{}, 40*time.Second), func(err error) any {
		return domain.GetSystemsResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *SystemPollerActor) WaitingFetchReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSystemsResponse:
		if msg.HasResponseError() {
			state.lastError = msg.GetResponseError()
			state.logger.Error("system_poller@waiting GetSystemsResponse error", zap.Error(msg.GetResponseError()))
			state.eventStream.Publish(events.UpdateStateEvent(msg.GetResponseError()))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Debug("system_poller@waiting GetSystemsResponse")
		state.lastError = nil
		state.snapshot = &domain.SystemSnapshot{
			FetchedAt: time.Now(),
			Systems:   msg.Systems,
		}
		state.eventStream.Publish(events.UpdateStateEvent(nil))
		for i := range msg.Systems {
			for _, ev := range events.SystemToUpdateEvents(&msg.Systems[i]) {
				state.eventStream.Publish(ev)
			}
		}
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("system_poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}
