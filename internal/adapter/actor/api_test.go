package actor

import (
	"testing"
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/service"
	"myvaillant2mqtt/internal/util/actorutil"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestAPIActorGetSystems(t *testing.T) {

	assert := assert.New(t)

	api := vaillant.NewTestAPI()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewAPIActor(api, service.NewGate(), logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.GetSystemsRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetSystemsResponse)

	assert.False(resp.HasResponseError())
	assert.Len(resp.Systems, 1)
	assert.Equal(resp.Systems[0].ID, "system-0", "system id")
	assert.Len(resp.Systems[0].Zones, 1)
	assert.Len(resp.Systems[0].Dhw, 1)

	context.Stop(pid)

	as.Shutdown()
}

func TestAPIActorQuotaPausesReads(t *testing.T) {

	assert := assert.New(t)

	api := vaillant.NewTestAPI()
	api.Err = &vaillant.StatusError{Code: 429, Message: "Quota Exceeded"}
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewAPIActor(api, service.NewGate(), logger) })
	pid := context.Spawn(props)

	// first read hits the cloud and trips the quota cooldown
	result, err := context.RequestFuture(pid, domain.GetSystemsRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetSystemsResponse)
	assert.True(resp.HasResponseError())

	callsAfterFirst := api.Calls

	// second read fails fast without touching the network
	result, err = context.RequestFuture(pid, domain.GetSystemsRequest{}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp = result.(domain.GetSystemsResponse)
	assert.True(resp.HasResponseError())
	assert.True(domain.IsUpdateFailedError(resp.GetResponseError()))
	assert.Equal(callsAfterFirst, api.Calls, "no network call while paused")

	context.Stop(pid)

	as.Shutdown()
}

func TestAPIActorWrite(t *testing.T) {

	assert := assert.New(t)

	api := vaillant.NewTestAPI()
	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewAPIActor(api, service.NewGate(), logger) })
	pid := context.Spawn(props)

	result, err := context.RequestFuture(pid, domain.StartZoneQuickVetoRequest{
		SystemID:      "system-0",
		Zone:          0,
		Setpoint:      21.5,
		DurationHours: 3,
	}, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.WriteResponse)

	assert.False(resp.HasResponseError())
	assert.Equal([]string{"StartZoneQuickVeto"}, api.WriteCalls)

	context.Stop(pid)

	as.Shutdown()
}
