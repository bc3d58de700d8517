package actor

import (
	"fmt"
	"testing"
	"time"

	adactor "myvaillant2mqtt/internal/adapter/actor"
	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/core/service"
	"myvaillant2mqtt/internal/util"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func spawnTestMaster(t *testing.T, api *vaillant.TestAPI) (*actor.ActorSystem, *actor.PID) {
	t.Helper()

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.APIActor {
			return adactor.NewAPIActor(api, service.NewGate(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Fatal(err)
	}
	return as, pid
}

func TestMasterActorHealth(t *testing.T) {

	as, pid := spawnTestMaster(t, vaillant.NewTestAPI())
	context := as.Root

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorSnapshot(t *testing.T) {

	as, pid := spawnTestMaster(t, vaillant.NewTestAPI())
	context := as.Root

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	snapResp, ok := res.(domain.GetSnapshotResponse)
	assert.True(t, ok)
	assert.False(t, snapResp.HasResponseError())
	if assert.NotNil(t, snapResp.Snapshot) {
		assert.Len(t, snapResp.Snapshot.Systems, 1)
		assert.Equal(t, "system-0", snapResp.Snapshot.Systems[0].ID)
		assert.Equal(t, "Europe/Berlin", snapResp.Snapshot.Systems[0].TimeZone)
	}

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorControlCommand(t *testing.T) {

	api := vaillant.NewTestAPI()
	as, pid := spawnTestMaster(t, api)
	context := as.Root

	time.Sleep(2 * time.Second)

	// zone 0 is time-controlled, a temperature change becomes a quick veto
	res, err := context.RequestFuture(pid, domain.SetZoneTemperatureCommand{
		Zone:        0,
		Temperature: 22,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok := res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.False(t, controlResp.HasResponseError())
	assert.Contains(t, api.WriteCalls, "StartZoneQuickVeto")

	// delayed refresh fires after refresh_delay (1s in the test config)
	callsAfterWrite := api.Calls
	time.Sleep(2 * time.Second)
	assert.Greater(t, api.Calls, callsAfterWrite, "delayed refresh re-reads the system")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorControlValidationError(t *testing.T) {

	api := vaillant.NewTestAPI()
	as, pid := spawnTestMaster(t, api)
	context := as.Root

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.SetZoneTemperatureCommand{
		Zone:        0,
		Temperature: 45,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok := res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.True(t, controlResp.HasResponseError())
	assert.True(t, domain.IsValidationError(controlResp.GetResponseError()))
	assert.Empty(t, api.WriteCalls, "no cloud write on validation errors")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorCancelBoostIdempotent(t *testing.T) {

	api := vaillant.NewTestAPI()
	as, pid := spawnTestMaster(t, api)
	context := as.Root

	time.Sleep(2 * time.Second)

	// no boost running: the cancel call still goes out and succeeds, the
	// derived state is unchanged after the refresh
	res, err := context.RequestFuture(pid, domain.CancelHotWaterBoostCommand{
		Dhw: 255,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok := res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.False(t, controlResp.HasResponseError())
	assert.Equal(t, []string{"CancelHotWaterBoost"}, api.WriteCalls)

	// a second cancel issues the call again
	res, err = context.RequestFuture(pid, domain.CancelHotWaterBoostCommand{
		Dhw: 255,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok = res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.False(t, controlResp.HasResponseError())
	assert.Equal(t, []string{"CancelHotWaterBoost", "CancelHotWaterBoost"}, api.WriteCalls)

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorCancelQuickVetoAndHolidayAlwaysIssue(t *testing.T) {

	api := vaillant.NewTestAPI()
	as, pid := spawnTestMaster(t, api)
	context := as.Root

	time.Sleep(2 * time.Second)

	// neither a quick veto nor a holiday is active in the fixture
	res, err := context.RequestFuture(pid, domain.CancelQuickVetoCommand{
		Zone: 0,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok := res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.False(t, controlResp.HasResponseError())
	assert.Contains(t, api.WriteCalls, "CancelZoneQuickVeto")

	res, err = context.RequestFuture(pid, domain.CancelHolidayCommand{}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok = res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.False(t, controlResp.HasResponseError())
	assert.Contains(t, api.WriteCalls, "CancelHoliday")

	context.Stop(pid)

	as.Shutdown()
}

func TestMasterActorQuickVetoDurationValidation(t *testing.T) {

	api := vaillant.NewTestAPI()
	as, pid := spawnTestMaster(t, api)
	context := as.Root

	time.Sleep(2 * time.Second)

	short := 0.5
	res, err := context.RequestFuture(pid, domain.SetQuickVetoCommand{
		Zone:          0,
		Temperature:   22,
		DurationHours: &short,
	}, 10*time.Second).Result()
	if err != nil {
		t.Fatal(err)
	}
	controlResp, ok := res.(domain.ControlResponse)
	assert.True(t, ok)
	assert.True(t, controlResp.HasResponseError())
	assert.True(t, domain.IsValidationError(controlResp.GetResponseError()))
	assert.Empty(t, api.WriteCalls, "no cloud write on validation errors")

	context.Stop(pid)

	as.Shutdown()
}
