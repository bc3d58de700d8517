package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel zapcore.Level
	Vaillant VaillantConfig `mapstructure:"vaillant"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`

	UpdateConfig   UpdateConfig   `mapstructure:"update"`
	ControlConfig  ControlConfig  `mapstructure:"control"`
	FeatureConfig  FeatureConfig  `mapstructure:"features"`
	Port           uint           `mapstructure:"port"`
	HttpLog        bool           `mapstructure:"http_log"`
}

// VaillantConfig identifies the cloud account.
type VaillantConfig struct {
	Username string
	Password string
	Brand    string
	Country  string
}

// UpdateConfig governs the polling cadence and the delayed-refresh commit.
type UpdateConfig struct {
	UpdateIntervalSeconds      uint `mapstructure:"update_interval"`
	UpdateIntervalDailySeconds uint `mapstructure:"update_interval_daily"`
	RefreshDelaySeconds        uint `mapstructure:"refresh_delay"`
}

// ControlConfig carries the write-path defaults.
type ControlConfig struct {
	QuickVetoDurationHours             float64 `mapstructure:"quick_veto_duration"`
	HolidayDurationHours               float64 `mapstructure:"holiday_duration"`
	DefaultHolidaySetpoint             float64 `mapstructure:"default_holiday_setpoint"`
	ManualCoolingDurationDays          int     `mapstructure:"manual_cooling_duration"`
	TimeProgramOverwrite               bool    `mapstructure:"time_program_overwrite"`
	DhwLegionellaProtectionTemperature float64 `mapstructure:"dhw_legionella_protection_temperature"`
}

// FeatureConfig toggles optional parts of the entity surface.
type FeatureConfig struct {
	EnergyData     bool `mapstructure:"energy_data"`
	Ventilation    bool `mapstructure:"ventilation"`
	AmbisenseRooms bool `mapstructure:"ambisense_rooms"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
