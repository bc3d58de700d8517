package domain

import (
	"time"

	"myvaillant2mqtt/pkg/vaillant"
)

const (
	ACTOR_ID_MASTER        = "master"
	ACTOR_ID_API           = "api"
	ACTOR_ID_SYSTEM_POLLER = "system_poller"
	ACTOR_ID_ENERGY_POLLER = "energy_poller"
	ACTOR_ID_CONTROL       = "control"
	ACTOR_ID_MQTT          = "mqtt"
	ACTOR_ID_HA_DISCOVERY  = "hadiscovery"
)

// api actor messages: reads

type GetSystemsRequest struct {
	ActorRequestMixIn
}

type GetSystemsResponse struct {
	ActorResponseMixIn
	Systems []vaillant.System
}

type EnergyQuery struct {
	Key   EnergyBucketKey
	Start time.Time
	End   time.Time
}

type GetEnergyDataRequest struct {
	ActorRequestMixIn
	Queries []EnergyQuery
}

type GetEnergyDataResponse struct {
	ActorResponseMixIn
	Data map[EnergyBucketKey]vaillant.EnergyData
}

// api actor messages: writes. All writes share one response shape; the
// interesting part of a write is only whether it failed.

type WriteResponse struct {
	ActorResponseMixIn
}

type StartZoneQuickVetoRequest struct {
	ActorRequestMixIn
	SystemID      string
	Zone          int
	Setpoint      float64
	DurationHours float64
}

type CancelZoneQuickVetoRequest struct {
	ActorRequestMixIn
	SystemID string
	Zone     int
}

type SetZoneOperatingModeRequest struct {
	ActorRequestMixIn
	SystemID string
	Zone     int
	Mode     string
}

type SetZoneManualSetpointRequest struct {
	ActorRequestMixIn
	SystemID     string
	Zone         int
	SetpointType string
	Temperature  float64
}

type SetZoneTimeProgramRequest struct {
	ActorRequestMixIn
	SystemID    string
	Zone        int
	ProgramType string
	Program     vaillant.TimeProgram
}

type SetHolidayRequest struct {
	ActorRequestMixIn
	SystemID string
	Start    time.Time
	End      time.Time
	Setpoint float64
}

type CancelHolidayRequest struct {
	ActorRequestMixIn
	SystemID string
}

type StartHotWaterBoostRequest struct {
	ActorRequestMixIn
	SystemID string
	Dhw      int
}

type CancelHotWaterBoostRequest struct {
	ActorRequestMixIn
	SystemID string
	Dhw      int
}

type SetDhwOperationModeRequest struct {
	ActorRequestMixIn
	SystemID string
	Dhw      int
	Mode     string
}

type SetDhwSetpointRequest struct {
	ActorRequestMixIn
	SystemID string
	Dhw      int
	Setpoint int
}

type SetDhwTimeProgramRequest struct {
	ActorRequestMixIn
	SystemID    string
	Dhw         int
	Circulation bool
	Program     vaillant.TimeProgram
}

type SetVentilationFanStageRequest struct {
	ActorRequestMixIn
	SystemID  string
	Index     int
	StageType string
	MaxStage  int
}

type SetCoolingForDaysRequest struct {
	ActorRequestMixIn
	SystemID string
	Days     int
}

type CancelCoolingRequest struct {
	ActorRequestMixIn
	SystemID string
}

// poller messages

// ForceRefresh asks a poller for one out-of-cycle refresh. Sent by the
// control actor as the tail of the delayed-refresh commit.
type ForceRefresh struct {
}

type GetSnapshotRequest struct {
	ActorRequestMixIn
}

type GetSnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *SystemSnapshot
}

type GetEnergySnapshotRequest struct {
	ActorRequestMixIn
}

type GetEnergySnapshotResponse struct {
	ActorResponseMixIn
	Snapshot *EnergySnapshot
}

// mqtt / discovery messages

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	Selects      []GenericSelect
	InputNumbers []GenericInputNumber
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// health

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
