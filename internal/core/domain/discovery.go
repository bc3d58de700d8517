package domain

import (
	"fmt"

	"myvaillant2mqtt/pkg/vaillant"
)

// Discovery descriptor builders. Which entities exist for an installation
// depends on the hardware reported in the snapshot: zones, circuits, DHW
// cylinders and ventilation units each contribute their own block.

func BridgeDevice(baseTopic string, version string) HADevice {
	return HADevice{
		Id:           fmt.Sprintf("%s_bridge", baseTopic),
		Name:         "myVaillant bridge",
		Version:      version,
		Model:        "myVaillant MQTT bridge",
		Manufacturer: "myvaillant2mqtt",
	}
}

func SystemDevice(system *vaillant.System) HADevice {
	device := HADevice{
		Id:           fmt.Sprintf("vaillant_%s", system.ID),
		Name:         "Vaillant system",
		Manufacturer: "Vaillant",
		Model:        system.ControlIdentifier,
	}
	for _, d := range system.Devices {
		if d.Type == vaillant.DEVICE_TYPE_HEAT_GENERATOR {
			device.Name = d.Name
			device.Model = d.ProductName
			break
		}
	}
	return device
}

// IdDevice strips a device descriptor down to its id. Only the first entity
// of a device carries the full descriptor.
func IdDevice(device HADevice) HADevice {
	return HADevice{Id: device.Id}
}

func BridgeSensors(device HADevice) []GenericSensor {
	return []GenericSensor{
		{
			Device:         device,
			Id:             SENSOR_ID_BRIDGE_STATE,
			SensorType:     "binary_sensor",
			Name:           "Bridge state",
			UniqueId:       fmt.Sprintf("%s_%s", device.Id, SENSOR_ID_BRIDGE_STATE),
			DeviceClass:    "connectivity",
			EntityCategory: "diagnostic",
		},
		{
			Device:         IdDevice(device),
			Id:             SENSOR_ID_UPDATE_STATE,
			SensorType:     "sensor",
			Name:           "Cloud update state",
			UniqueId:       fmt.Sprintf("%s_%s", device.Id, SENSOR_ID_UPDATE_STATE),
			EntityCategory: "diagnostic",
			Icon:           "mdi:cloud-sync",
		},
	}
}

func SystemBaseSensors(device HADevice, system *vaillant.System) []GenericSensor {
	var sensors []GenericSensor
	if system.OutdoorTemperature != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                "outdoor_temperature",
			SensorType:        "sensor",
			Name:              "Outdoor temperature",
			UniqueId:          fmt.Sprintf("%s_outdoor_temperature", device.Id),
			UnitOfMeasurement: "°C",
			StateClass:        "measurement",
			DeviceClass:       "temperature",
		})
	}
	if system.WaterPressure != nil {
		sensors = append(sensors, GenericSensor{
			Device:            IdDevice(device),
			Id:                "water_pressure",
			SensorType:        "sensor",
			Name:              "Water pressure",
			UniqueId:          fmt.Sprintf("%s_water_pressure", device.Id),
			UnitOfMeasurement: "bar",
			StateClass:        "measurement",
			DeviceClass:       "pressure",
		})
	}
	return sensors
}

func ZoneSensors(device HADevice, zone *vaillant.Zone) []GenericSensor {
	prefix := ZoneEntityPrefix(zone.Index)
	var sensors []GenericSensor
	if zone.CurrentTemperature != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "current_temperature",
			SensorType:        "sensor",
			Name:              fmt.Sprintf("%s temperature", zone.Name),
			UniqueId:          fmt.Sprintf("%s_%scurrent_temperature", device.Id, prefix),
			UnitOfMeasurement: "°C",
			StateClass:        "measurement",
			DeviceClass:       "temperature",
		})
	}
	if zone.Humidity != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "humidity",
			SensorType:        "sensor",
			Name:              fmt.Sprintf("%s humidity", zone.Name),
			UniqueId:          fmt.Sprintf("%s_%shumidity", device.Id, prefix),
			UnitOfMeasurement: "%",
			StateClass:        "measurement",
			DeviceClass:       "humidity",
		})
	}
	sensors = append(sensors, GenericSensor{
		Device:            device,
		Id:                prefix + "desired_setpoint",
		SensorType:        "sensor",
		Name:              fmt.Sprintf("%s desired setpoint", zone.Name),
		UniqueId:          fmt.Sprintf("%s_%sdesired_setpoint", device.Id, prefix),
		UnitOfMeasurement: "°C",
		StateClass:        "measurement",
		DeviceClass:       "temperature",
	})
	return sensors
}

func ZoneSelects(device HADevice, zone *vaillant.Zone) []GenericSelect {
	prefix := ZoneEntityPrefix(zone.Index)
	return []GenericSelect{
		{
			Device:   device,
			Id:       prefix + "hvac_mode",
			Name:     fmt.Sprintf("%s mode", zone.Name),
			UniqueId: fmt.Sprintf("%s_%shvac_mode", device.Id, prefix),
			Icon:     "mdi:thermostat",
			Options: []string{
				string(HVAC_MODE_OFF), string(HVAC_MODE_HEAT), string(HVAC_MODE_AUTO),
			},
		},
		{
			Device:   device,
			Id:       prefix + "preset",
			Name:     fmt.Sprintf("%s preset", zone.Name),
			UniqueId: fmt.Sprintf("%s_%spreset", device.Id, prefix),
			Icon:     "mdi:calendar-star",
			Options: []string{
				string(PRESET_NONE), string(PRESET_QUICK_VETO),
				string(PRESET_HOLIDAY), string(PRESET_SYSTEM_OFF),
			},
		},
	}
}

func ZoneInputNumbers(device HADevice, zone *vaillant.Zone) []GenericInputNumber {
	prefix := ZoneEntityPrefix(zone.Index)
	return []GenericInputNumber{
		{
			Device:       device,
			Id:           prefix + "target_temperature",
			Name:         fmt.Sprintf("%s target temperature", zone.Name),
			UniqueId:     fmt.Sprintf("%s_%starget_temperature", device.Id, prefix),
			Icon:         "mdi:home-thermometer",
			Min:          0,
			Max:          30,
			Step:         0.5,
			Mode:         "slider",
			InitialValue: zone.ManualModeSetpoint,
		},
	}
}

func CircuitSensors(device HADevice, circuit *vaillant.Circuit) []GenericSensor {
	prefix := fmt.Sprintf("circuit_%d_", circuit.Index)
	var sensors []GenericSensor
	diagnostic := "diagnostic"
	if circuit.CurrentFlowTemperature != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "flow_temperature",
			SensorType:        "sensor",
			Name:              fmt.Sprintf("Circuit %d flow temperature", circuit.Index),
			UniqueId:          fmt.Sprintf("%s_%sflow_temperature", device.Id, prefix),
			UnitOfMeasurement: "°C",
			StateClass:        "measurement",
			DeviceClass:       "temperature",
			EntityCategory:    diagnostic,
		})
	}
	if circuit.HeatingCurve != nil {
		sensors = append(sensors, GenericSensor{
			Device:         device,
			Id:             prefix + "heating_curve",
			SensorType:     "sensor",
			Name:           fmt.Sprintf("Circuit %d heating curve", circuit.Index),
			UniqueId:       fmt.Sprintf("%s_%sheating_curve", device.Id, prefix),
			StateClass:     "measurement",
			EntityCategory: diagnostic,
		})
	}
	return sensors
}

func DhwSensors(device HADevice, dhw *vaillant.Dhw) []GenericSensor {
	prefix := DhwEntityPrefix(dhw.Index)
	var sensors []GenericSensor
	if dhw.CurrentTemperature != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "current_temperature",
			SensorType:        "sensor",
			Name:              "Hot water temperature",
			UniqueId:          fmt.Sprintf("%s_%scurrent_temperature", device.Id, prefix),
			UnitOfMeasurement: "°C",
			StateClass:        "measurement",
			DeviceClass:       "temperature",
		})
	}
	return sensors
}

func DhwSelects(device HADevice, dhw *vaillant.Dhw) []GenericSelect {
	prefix := DhwEntityPrefix(dhw.Index)
	return []GenericSelect{
		{
			Device:   device,
			Id:       prefix + "operation_mode",
			Name:     "Hot water mode",
			UniqueId: fmt.Sprintf("%s_%soperation_mode", device.Id, prefix),
			Icon:     "mdi:water-boiler",
			Options: []string{
				vaillant.OPERATION_MODE_OFF,
				vaillant.OPERATION_MODE_MANUAL,
				vaillant.OPERATION_MODE_TIME_CONTROLLED,
				"BOOST",
			},
		},
	}
}

func DhwSwitches(device HADevice, dhw *vaillant.Dhw) []GenericSwitch {
	prefix := DhwEntityPrefix(dhw.Index)
	return []GenericSwitch{
		{
			Device:   device,
			Id:       prefix + "boost",
			Name:     "Hot water boost",
			UniqueId: fmt.Sprintf("%s_%sboost", device.Id, prefix),
			Icon:     "mdi:water-plus",
		},
	}
}

func DhwInputNumbers(device HADevice, dhw *vaillant.Dhw) []GenericInputNumber {
	prefix := DhwEntityPrefix(dhw.Index)
	min := dhw.MinSetpoint
	max := dhw.MaxSetpoint
	if max <= min {
		min, max = 35, 65
	}
	return []GenericInputNumber{
		{
			Device:       device,
			Id:           prefix + "setpoint",
			Name:         "Hot water setpoint",
			UniqueId:     fmt.Sprintf("%s_%ssetpoint", device.Id, prefix),
			Icon:         "mdi:thermometer-water",
			Min:          min,
			Max:          max,
			Step:         1,
			Mode:         "slider",
			InitialValue: dhw.TappingSetpoint,
		},
	}
}

func VentilationInputNumbers(device HADevice, vent *vaillant.Ventilation) []GenericInputNumber {
	prefix := fmt.Sprintf("ventilation_%d_", vent.Index)
	return []GenericInputNumber{
		{
			Device:   device,
			Id:       prefix + "day_fan_stage",
			Name:     "Ventilation day fan stage",
			UniqueId: fmt.Sprintf("%s_%sday_fan_stage", device.Id, prefix),
			Icon:     "mdi:fan",
			Min:      1,
			Max:      6,
			Step:     1,
			Mode:     "box",
		},
		{
			Device:   device,
			Id:       prefix + "night_fan_stage",
			Name:     "Ventilation night fan stage",
			UniqueId: fmt.Sprintf("%s_%snight_fan_stage", device.Id, prefix),
			Icon:     "mdi:fan-minus",
			Min:      1,
			Max:      6,
			Step:     1,
			Mode:     "box",
		},
	}
}

func RoomSensors(device HADevice, room *vaillant.Room) []GenericSensor {
	prefix := RoomEntityPrefix(room.Index)
	var sensors []GenericSensor
	if room.CurrentTemperature != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "current_temperature",
			SensorType:        "sensor",
			Name:              fmt.Sprintf("%s temperature", room.Name),
			UniqueId:          fmt.Sprintf("%s_%scurrent_temperature", device.Id, prefix),
			UnitOfMeasurement: "°C",
			StateClass:        "measurement",
			DeviceClass:       "temperature",
		})
	}
	if room.Humidity != nil {
		sensors = append(sensors, GenericSensor{
			Device:            device,
			Id:                prefix + "humidity",
			SensorType:        "sensor",
			Name:              fmt.Sprintf("%s humidity", room.Name),
			UniqueId:          fmt.Sprintf("%s_%shumidity", device.Id, prefix),
			UnitOfMeasurement: "%",
			StateClass:        "measurement",
			DeviceClass:       "humidity",
		})
	}
	sensors = append(sensors,
		GenericSensor{
			Device:         device,
			Id:             prefix + "battery_low",
			SensorType:     "binary_sensor",
			Name:           fmt.Sprintf("%s battery low", room.Name),
			UniqueId:       fmt.Sprintf("%s_%sbattery_low", device.Id, prefix),
			DeviceClass:    "battery",
			EntityCategory: "diagnostic",
		},
		GenericSensor{
			Device:      device,
			Id:          prefix + "window_open",
			SensorType:  "binary_sensor",
			Name:        fmt.Sprintf("%s window", room.Name),
			UniqueId:    fmt.Sprintf("%s_%swindow_open", device.Id, prefix),
			DeviceClass: "window",
		})
	return sensors
}

func ZoneEntityPrefix(index int) string {
	return fmt.Sprintf("zone_%d_", index)
}

func DhwEntityPrefix(index int) string {
	return fmt.Sprintf("dhw_%d_", index)
}

func RoomEntityPrefix(index int) string {
	return fmt.Sprintf("room_%d_", index)
}

const (
	SENSOR_ID_BRIDGE_STATE = "bridge_state"
	SENSOR_ID_UPDATE_STATE = "update_state"
)
