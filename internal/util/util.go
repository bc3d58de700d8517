package util

import (
	"myvaillant2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Vaillant: config.VaillantConfig{
			Username: "user@example.com",
			Password: "-",
			Brand:    "vaillant",
			Country:  "germany",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "myvaillant",
		},
		UpdateConfig: config.UpdateConfig{
			UpdateIntervalSeconds:      60,
			UpdateIntervalDailySeconds: 3600,
			RefreshDelaySeconds:        1,
		},
		ControlConfig: config.ControlConfig{
			QuickVetoDurationHours:    3,
			HolidayDurationHours:      24,
			DefaultHolidaySetpoint:    10,
			ManualCoolingDurationDays: 30,
		},
		FeatureConfig: config.FeatureConfig{
			EnergyData:     true,
			Ventilation:    true,
			AmbisenseRooms: true,
		},
		Port: 8080,
	}
}
