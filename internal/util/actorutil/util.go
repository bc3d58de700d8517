package actorutil

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/internal/mqtt"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel:
		slogLevel = slog.LevelError
	case zap.PanicLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand maps a parsed command topic onto the control
// command it triggers. Entity ids are positional: <kind>_<index>_<field>.
// The system id is left empty; the control actor resolves it to the first
// installation of the account.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.ActorRequest, error) {
	kind, index, field, ok := splitEntityId(cmd.DeviceId)
	if !ok {
		return nil, nil
	}
	switch kind {
	case "zone":
		switch field {
		case "hvac_mode":
			return domain.SetZoneHVACModeCommand{
				Zone: index,
				Mode: domain.HVACMode(cmd.Payload),
			}, nil
		case "preset":
			return domain.SetZonePresetCommand{
				Zone:   index,
				Preset: domain.Preset(cmd.Payload),
			}, nil
		case "target_temperature":
			value, err := strconv.ParseFloat(cmd.Payload, 64)
			if err != nil {
				return nil, err
			}
			return domain.SetZoneTemperatureCommand{
				Zone:        index,
				Temperature: value,
			}, nil
		}
	case "dhw":
		switch field {
		case "operation_mode":
			return domain.SetDhwOperationModeCommand{
				Dhw:  index,
				Mode: cmd.Payload,
			}, nil
		case "boost":
			if cmd.Payload == "on" {
				return domain.StartHotWaterBoostCommand{Dhw: index}, nil
			}
			return domain.CancelHotWaterBoostCommand{Dhw: index}, nil
		case "setpoint":
			value, err := strconv.ParseFloat(cmd.Payload, 64)
			if err != nil {
				return nil, err
			}
			return domain.SetDhwSetpointCommand{
				Dhw:      index,
				Setpoint: value,
			}, nil
		}
	case "ventilation":
		stageType := ""
		switch field {
		case "day_fan_stage":
			stageType = vaillant.FAN_STAGE_TYPE_DAY
		case "night_fan_stage":
			stageType = vaillant.FAN_STAGE_TYPE_NIGHT
		}
		if stageType != "" {
			value, err := strconv.ParseUint(cmd.Payload, 10, 8)
			if err != nil {
				return nil, err
			}
			return domain.SetVentilationFanStageCommand{
				Index:     index,
				MaxStage:  int(value),
				StageType: stageType,
			}, nil
		}
	}
	return nil, nil
}

// splitEntityId splits ids like "zone_0_hvac_mode" into kind, index, field.
func splitEntityId(id string) (string, int, string, bool) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) != 3 {
		return "", 0, "", false
	}
	index, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, "", false
	}
	return parts[0], index, parts[2], true
}
