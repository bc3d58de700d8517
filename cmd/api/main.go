package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	adactor "myvaillant2mqtt/internal/adapter/actor"
	"myvaillant2mqtt/internal/config"
	"myvaillant2mqtt/internal/core/actor"
	"myvaillant2mqtt/internal/core/service"
	"myvaillant2mqtt/internal/server"
	"myvaillant2mqtt/internal/util/actorutil"
	"myvaillant2mqtt/pkg/vaillant"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init API actor provider: one cloud session for the whole process
	apiProv, err := apiActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, apiProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => MYVAILLANT_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("MYVAILLANT_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("myvaillant")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check credentials
	if cfg.Vaillant.Username == "" || cfg.Vaillant.Password == "" {
		return nil, errors.New("config params vaillant.username and vaillant.password are required")
	}
	countries, ok := vaillant.Brands[cfg.Vaillant.Brand]
	if !ok {
		return nil, fmt.Errorf("unknown brand %q", cfg.Vaillant.Brand)
	}
	if cfg.Vaillant.Country != "" {
		found := false
		for _, country := range countries {
			if country == cfg.Vaillant.Country {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("brand %q is not available in country %q", cfg.Vaillant.Brand, cfg.Vaillant.Country)
		}
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if err := checkConfigBounds(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// checkConfigBounds validates the numeric config params. The update intervals
// take any positive number of seconds; refresh_delay is unsigned and may be 0.
func checkConfigBounds(cfg *config.Config) error {
	if cfg.UpdateConfig.UpdateIntervalSeconds < 1 {
		return errors.New("config param update.update_interval should be >= 1s")
	}
	if cfg.UpdateConfig.UpdateIntervalDailySeconds < 1 {
		return errors.New("config param update.update_interval_daily should be >= 1s")
	}
	if cfg.ControlConfig.QuickVetoDurationHours < 1 {
		return errors.New("config param control.quick_veto_duration should be >= 1h")
	}
	if cfg.ControlConfig.HolidayDurationHours < 1 {
		return errors.New("config param control.holiday_duration should be >= 1h")
	}
	if cfg.ControlConfig.DefaultHolidaySetpoint < 0 || cfg.ControlConfig.DefaultHolidaySetpoint > 30 {
		return errors.New("config param control.default_holiday_setpoint should be within [0, 30]")
	}
	if cfg.ControlConfig.ManualCoolingDurationDays < 1 || cfg.ControlConfig.ManualCoolingDurationDays > 365 {
		return errors.New("config param control.manual_cooling_duration should be within [1, 365] days")
	}
	if cfg.ControlConfig.DhwLegionellaProtectionTemperature < 0 || cfg.ControlConfig.DhwLegionellaProtectionTemperature > 100 {
		return errors.New("config param control.dhw_legionella_protection_temperature should be within [0, 100]")
	}
	return nil
}

func apiActorProvider(cfg *config.Config, logger *zap.Logger) (actor.APIActorProvider, error) {

	loginCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session, err := vaillant.NewSession(loginCtx, vaillant.Credentials{
		Username: cfg.Vaillant.Username,
		Password: cfg.Vaillant.Password,
		Brand:    cfg.Vaillant.Brand,
		Country:  cfg.Vaillant.Country,
	})
	if err != nil {
		return nil, err
	}

	conn := vaillant.NewConnection(session, logger)
	// one gate per account, shared across actor restarts
	gate := service.NewGate()

	return func() *adactor.APIActor {
		return adactor.NewAPIActor(conn, gate, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("vaillant.brand", "vaillant")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "myvaillant")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("update.update_interval", 60)
	viper.SetDefault("update.update_interval_daily", 3600)
	viper.SetDefault("update.refresh_delay", 5)
	viper.SetDefault("control.quick_veto_duration", vaillant.DEFAULT_QUICK_VETO_DURATION_HOURS)
	viper.SetDefault("control.holiday_duration", vaillant.DEFAULT_HOLIDAY_DURATION_HOURS)
	viper.SetDefault("control.default_holiday_setpoint", vaillant.DEFAULT_HOLIDAY_SETPOINT_VRC700)
	viper.SetDefault("control.manual_cooling_duration", vaillant.DEFAULT_MANUAL_COOLING_DAYS)
	viper.SetDefault("control.dhw_legionella_protection_temperature", vaillant.DEFAULT_LEGIONELLA_TEMPERATURE)
	viper.SetDefault("control.time_program_overwrite", false)
	viper.SetDefault("features.energy_data", true)
	viper.SetDefault("features.ventilation", true)
	viper.SetDefault("features.ambisense_rooms", true)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.Vaillant.Password = "*redacted*"
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
