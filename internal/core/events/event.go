package events

import (
	"fmt"

	. "myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"
)

// SystemToUpdateEvents flattens a fetched system into sensor update events.
// Entity ids follow the discovery descriptors: zone_0_current_temperature,
// dhw_255_operation_mode, ...
func SystemToUpdateEvents(system *vaillant.System) []any {
	var events []any

	if system.OutdoorTemperature != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: "outdoor_temperature",
			},
			Value:    *system.OutdoorTemperature,
			Decimals: 1,
		})
	}
	if system.WaterPressure != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: "water_pressure",
			},
			Value:    *system.WaterPressure,
			Decimals: 1,
		})
	}

	for i := range system.Zones {
		events = append(events, zoneToUpdateEvents(&system.Zones[i])...)
	}
	for i := range system.Circuits {
		events = append(events, circuitToUpdateEvents(&system.Circuits[i])...)
	}
	for i := range system.Dhw {
		events = append(events, dhwToUpdateEvents(&system.Dhw[i])...)
	}
	for i := range system.Ventilation {
		events = append(events, ventilationToUpdateEvents(&system.Ventilation[i])...)
	}
	for i := range system.Rooms {
		events = append(events, roomToUpdateEvents(&system.Rooms[i])...)
	}

	return events
}

func zoneToUpdateEvents(zone *vaillant.Zone) []any {
	prefix := ZoneEntityPrefix(zone.Index)
	var events []any

	if zone.CurrentTemperature != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "current_temperature",
			},
			Value:    *zone.CurrentTemperature,
			Decimals: 1,
		})
	}
	if zone.Humidity != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "humidity",
			},
			Value:    *zone.Humidity,
			Decimals: 0,
		})
	}
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "desired_setpoint",
		},
		Value:    zone.DesiredSetpoint,
		Decimals: 1,
	})
	events = append(events, SelectSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "hvac_mode",
		},
		Value: string(HVACModeFromOperationMode(zone.OperationModeHeating)),
	})
	events = append(events, SelectSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "preset",
		},
		Value: string(PresetFromSpecialFunction(zone.CurrentSpecialFunction)),
	})
	events = append(events, InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "target_temperature",
		},
		Value:    zone.ManualModeSetpoint,
		Decimals: 1,
	})

	return events
}

func circuitToUpdateEvents(circuit *vaillant.Circuit) []any {
	prefix := fmt.Sprintf("circuit_%d_", circuit.Index)
	var events []any

	if circuit.CurrentFlowTemperature != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "flow_temperature",
			},
			Value:    *circuit.CurrentFlowTemperature,
			Decimals: 1,
		})
	}
	if circuit.HeatingCurve != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "heating_curve",
			},
			Value:    *circuit.HeatingCurve,
			Decimals: 2,
		})
	}

	return events
}

func dhwToUpdateEvents(dhw *vaillant.Dhw) []any {
	prefix := DhwEntityPrefix(dhw.Index)
	var events []any

	if dhw.CurrentTemperature != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "current_temperature",
			},
			Value:    *dhw.CurrentTemperature,
			Decimals: 1,
		})
	}
	boosting := dhw.CurrentSpecialFunction == vaillant.SPECIAL_FUNCTION_CYLINDER_BOOST
	mode := dhw.OperationMode
	if boosting {
		mode = "BOOST"
	}
	events = append(events, SelectSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "operation_mode",
		},
		Value: mode,
	})
	events = append(events, SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "boost",
		},
		Value: boosting,
	})
	events = append(events, InputNumberSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "setpoint",
		},
		Value:    dhw.TappingSetpoint,
		Decimals: 0,
	})

	return events
}

func ventilationToUpdateEvents(vent *vaillant.Ventilation) []any {
	prefix := fmt.Sprintf("ventilation_%d_", vent.Index)
	return []any{
		InputNumberSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "day_fan_stage",
			},
			Value:    float64(vent.MaximumDayFanStage),
			Decimals: 0,
		},
		InputNumberSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "night_fan_stage",
			},
			Value:    float64(vent.MaximumNightFanStage),
			Decimals: 0,
		},
	}
}

func roomToUpdateEvents(room *vaillant.Room) []any {
	prefix := RoomEntityPrefix(room.Index)
	var events []any

	if room.CurrentTemperature != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "current_temperature",
			},
			Value:    *room.CurrentTemperature,
			Decimals: 1,
		})
	}
	if room.Humidity != nil {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: prefix + "humidity",
			},
			Value:    *room.Humidity,
			Decimals: 0,
		})
	}
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "battery_low",
		},
		Value: room.BatteryLow,
	})
	events = append(events, BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: prefix + "window_open",
		},
		Value: room.WindowOpen,
	})

	return events
}

// EnergyToUpdateEvents maps the daily snapshot buckets onto total-increasing
// energy sensors.
func EnergyToUpdateEvents(snapshot *EnergySnapshot) []any {
	var events []any
	if snapshot == nil {
		return events
	}
	for key, data := range snapshot.Data {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: EnergyEntityId(key),
			},
			Value:    data.Total,
			Decimals: 3,
		})
	}
	return events
}

func EnergyEntityId(key EnergyBucketKey) string {
	return fmt.Sprintf("energy_%d_%d", key.DeviceIndex, key.SeriesIndex)
}

// UpdateStateEvent reflects the poller's health on the diagnostic sensor:
// "ok", or the cooldown kind while updates are paused.
func UpdateStateEvent(err error) any {
	value := "ok"
	if err != nil {
		value = err.Error()
	}
	return TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_UPDATE_STATE,
		},
		Value: value,
	}
}
