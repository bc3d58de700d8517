package actor

import (
	gocontext "context"
	"fmt"
	"time"

	"myvaillant2mqtt/internal/config"
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/events"
	. "myvaillant2mqtt/internal/util/actorutil"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// Per heat generator the vendor exposes a small fixed set of day-resolution
// counter series. Indexes 0 and 1 cover consumed energy and generated heat.
const energySeriesPerDevice = 2

// EnergyPollerActor is the daily-data coordinator. It runs on its own, much
// slower cadence than the system poller: energy counters have day resolution
// and the extra requests count against the same API quota.
type EnergyPollerActor struct {
	behavior actor.Behavior
	stash    *Stash
	cron     quartz.Scheduler

	apiActor     *actor.PID
	systemPoller *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream
	snapshot     *domain.EnergySnapshot
	lastError    error

	logger *zap.Logger
}

type energyPollTick struct {
}

func NewEnergyPollerActor(config *config.Config, apiActor, systemPoller *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *EnergyPollerActor {
	act := &EnergyPollerActor{
		config:       config,
		apiActor:     apiActor,
		systemPoller: systemPoller,
		behavior:     actor.NewBehavior(),
		stash:        &Stash{},
		logger:       ActorLogger(domain.ACTOR_ID_ENERGY_POLLER, logger),
		eventStream:  eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *EnergyPollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *EnergyPollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("energy_poller@starting started")
		if err := state.startCron(ctx); err != nil {
			state.logger.Error("energy_poller@starting cron", zap.Error(err))
		}
		// give the system poller a head start so the first snapshot exists
		root := ctx.ActorSystem().Root
		self := ctx.Self()
		time.AfterFunc(30*time.Second, func() {
			root.Send(self, energyPollTick{})
		})
		state.behavior.Become(state.DefaultReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("energy_poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// startCron schedules the periodic tick on a quartz scheduler. The job only
// posts a message back to the actor, so all state stays on the actor
// goroutine.
func (state *EnergyPollerActor) startCron(ctx actor.Context) error {
	state.cron = quartz.NewStdScheduler()
	state.cron.Start(gocontext.Background())

	root := ctx.ActorSystem().Root
	self := ctx.Self()
	tickJob := job.NewFunctionJob(func(_ gocontext.Context) (int, error) {
		root.Send(self, energyPollTick{})
		return 0, nil
	})
	interval := time.Duration(state.config.UpdateConfig.UpdateIntervalDailySeconds) * time.Second
	return state.cron.ScheduleJob(
		quartz.NewJobDetail(tickJob, quartz.NewJobKey("energy_poll")),
		quartz.NewSimpleTrigger(interval))
}

func (state *EnergyPollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Stopping:
		if state.cron != nil {
			state.cron.Stop()
		}
	case domain.ActorHealthRequest:
		state.logger.Debug("energy_poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_ENERGY_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case energyPollTick, domain.ForceRefresh:
		state.logger.Debug("energy_poller@default tick")
		// the device list comes from the latest system snapshot
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.systemPoller, domain.GetSnapshotRequest{}, 10*time.Second), func(err error) any {
			return domain.GetSnapshotResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}
		})
		state.behavior.BecomeStacked(state.WaitingFetchReceive)
	case domain.GetEnergySnapshotRequest:
		ctx.Respond(domain.GetEnergySnapshotResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: state.lastError},
			Snapshot:           state.snapshot,
		})
	default:
		state.logger.Debug("energy_poller@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *EnergyPollerActor) WaitingFetchReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetSnapshotResponse:
		if msg.HasResponseError() || msg.Snapshot == nil {
			state.logger.Debug("energy_poller@waiting: no system snapshot yet")
			state.finish(ctx)
			return
		}
		queries := energyQueries(msg.Snapshot, time.Now())
		if len(queries) == 0 {
			state.finish(ctx)
			return
		}
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.apiActor, domain.GetEnergyDataRequest{Queries: queries}, 60*time.Second), func(err error) any {
			return domain.GetEnergyDataResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
			}
		})
	case domain.GetEnergyDataResponse:
		if msg.HasResponseError() {
			state.lastError = msg.GetResponseError()
			state.logger.Error("energy_poller@waiting GetEnergyDataResponse error", zap.Error(msg.GetResponseError()))
			state.finish(ctx)
			return
		}
		state.logger.Debug("energy_poller@waiting GetEnergyDataResponse")
		state.lastError = nil
		state.snapshot = &domain.EnergySnapshot{
			FetchedAt: time.Now(),
			Data:      msg.Data,
		}
		for _, ev := range events.EnergyToUpdateEvents(state.snapshot) {
			state.eventStream.Publish(ev)
		}
		state.finish(ctx)
	default:
		state.logger.Debug("energy_poller@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *EnergyPollerActor) finish(ctx actor.Context) {
	state.behavior.UnbecomeStacked()
	state.stash.UnstashAll(ctx)
}

// energyQueries builds one query per counter series of every heat generator,
// spanning the current day in the installation's own timezone.
func energyQueries(snapshot *domain.SystemSnapshot, now time.Time) []domain.EnergyQuery {
	var queries []domain.EnergyQuery
	for _, sys := range snapshot.Systems {
		loc := snapshot.Location(sys.ID)
		local := now.In(loc)
		start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
		end := start.Add(24 * time.Hour)
		for _, dev := range sys.Devices {
			if dev.Type != vaillant.DEVICE_TYPE_HEAT_GENERATOR {
				continue
			}
			for series := 0; series < energySeriesPerDevice; series++ {
				queries = append(queries, domain.EnergyQuery{
					Key: domain.EnergyBucketKey{
						SystemID:    sys.ID,
						DeviceIndex: dev.Index,
						SeriesIndex: series,
					},
					Start: start,
					End:   end,
				})
			}
		}
	}
	return queries
}
