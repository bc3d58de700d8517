package vaillant

import (
	"context"
	"time"
)

// TestAPI is an in-memory API implementation for tests. Every call is
// counted, and Err (when set) is returned by all operations, which lets
// tests inject quota/outage/auth failures.
type TestAPI struct {
	Homes      Homes
	Systems    map[string]System
	Energy     EnergyData
	Err        error
	Calls      int
	WriteCalls []string
}

func NewTestAPI() *TestAPI {
	homes := Homes{{
		HomeName: "Home",
		SystemID: "system-0",
		TimeZone: "Europe/Berlin",
	}}
	return &TestAPI{
		Homes: homes,
		Systems: map[string]System{
			"system-0": TestSystem(),
		},
	}
}

// TestSystem returns a plausible single-zone heat pump installation.
func TestSystem() System {
	roomTemp := 20.4
	humidity := 43.0
	flowTemp := 32.5
	curve := 1.2
	minFlow := 35.0
	dhwTemp := 48.1
	outdoor := 7.3
	pressure := 1.6
	circuitIndex := 0
	return System{
		ID:                 "system-0",
		ControlIdentifier:  CONTROL_IDENTIFIER_TLI,
		TimeZone:           "Europe/Berlin",
		OutdoorTemperature: &outdoor,
		WaterPressure:      &pressure,
		Zones: []Zone{{
			Index:                0,
			Name:                 "Zone 1",
			CircuitIndex:         &circuitIndex,
			CurrentTemperature:   &roomTemp,
			Humidity:             &humidity,
			DesiredSetpoint:      21,
			ManualModeSetpoint:   20,
			OperationModeHeating: OPERATION_MODE_TIME_CONTROLLED,
			CurrentSpecialFunction: SPECIAL_FUNCTION_NONE,
			HeatingProgram: TimeProgram{
				Monday: []TimePeriod{{StartTime: 300, EndTime: 600, Setpoint: f64(21)},
					{StartTime: 900, EndTime: 1440, Setpoint: f64(20)}},
				Tuesday: []TimePeriod{{StartTime: 300, EndTime: 1320, Setpoint: f64(21)}},
			},
		}},
		Circuits: []Circuit{{
			Index:                  0,
			CurrentFlowTemperature: &flowTemp,
			HeatingCurve:           &curve,
			MinFlowSetpoint:        &minFlow,
		}},
		Dhw: []Dhw{{
			Index:              255,
			CurrentTemperature: &dhwTemp,
			TappingSetpoint:    50,
			MinSetpoint:        35,
			MaxSetpoint:        65,
			OperationMode:      OPERATION_MODE_TIME_CONTROLLED,
			CurrentSpecialFunction: SPECIAL_FUNCTION_REGULAR,
			TimeProgram: TimeProgram{
				Monday: []TimePeriod{{StartTime: 330, EndTime: 1260}},
			},
		}},
		Ventilation: []Ventilation{{
			Index:                0,
			OperationMode:        OPERATION_MODE_TIME_CONTROLLED,
			MaximumDayFanStage:   4,
			MaximumNightFanStage: 2,
		}},
		Devices: []Device{{
			Index:        0,
			UUID:         "device-uuid-0",
			Name:         "aroTHERM plus",
			Type:         "HEAT_GENERATOR",
			SerialNumber: "21222500100211110001005519N3",
			ProductName:  "aroTHERM plus",
			Operational:  true,
		}},
	}
}

func f64(v float64) *float64 { return &v }

func (a *TestAPI) call(op string) error {
	a.Calls++
	if op != "" {
		a.WriteCalls = append(a.WriteCalls, op)
	}
	return a.Err
}

func (a *TestAPI) GetHomes(ctx context.Context) (Homes, error) {
	return a.Homes, a.call("")
}

func (a *TestAPI) GetSystem(ctx context.Context, systemID string) (System, error) {
	if err := a.call(""); err != nil {
		return System{}, err
	}
	return a.Systems[systemID], nil
}

func (a *TestAPI) GetEnergyData(ctx context.Context, systemID string, deviceIndex, seriesIndex int, start, end time.Time) (EnergyData, error) {
	if err := a.call(""); err != nil {
		return EnergyData{}, err
	}
	if len(a.Energy.Buckets) > 0 {
		return a.Energy, nil
	}
	return EnergyData{
		SystemID:    systemID,
		DeviceIndex: deviceIndex,
		SeriesIndex: seriesIndex,
		SeriesType:  "CONSUMED_ELECTRICAL_ENERGY",
		Resolution:  "DAY",
		StartAt:     start,
		EndAt:       end,
		Total:       12.5,
		Buckets:     []EnergyBucket{{StartAt: start, EndAt: end, Value: 12.5}},
	}, nil
}

func (a *TestAPI) SetZoneOperatingMode(ctx context.Context, systemID string, zone int, mode string) error {
	return a.call("SetZoneOperatingMode")
}

func (a *TestAPI) SetZoneManualSetpoint(ctx context.Context, systemID string, zone int, setpointType string, temperature float64) error {
	return a.call("SetZoneManualSetpoint")
}

func (a *TestAPI) SetZoneTimeProgram(ctx context.Context, systemID string, zone int, programType string, program TimeProgram) error {
	return a.call("SetZoneTimeProgram")
}

func (a *TestAPI) StartZoneQuickVeto(ctx context.Context, systemID string, zone int, setpoint float64, durationHours float64) error {
	return a.call("StartZoneQuickVeto")
}

func (a *TestAPI) CancelZoneQuickVeto(ctx context.Context, systemID string, zone int) error {
	return a.call("CancelZoneQuickVeto")
}

func (a *TestAPI) SetHoliday(ctx context.Context, systemID string, start, end time.Time, setpoint float64) error {
	return a.call("SetHoliday")
}

func (a *TestAPI) CancelHoliday(ctx context.Context, systemID string) error {
	return a.call("CancelHoliday")
}

func (a *TestAPI) StartHotWaterBoost(ctx context.Context, systemID string, dhw int) error {
	return a.call("StartHotWaterBoost")
}

func (a *TestAPI) CancelHotWaterBoost(ctx context.Context, systemID string, dhw int) error {
	return a.call("CancelHotWaterBoost")
}

func (a *TestAPI) SetDhwOperationMode(ctx context.Context, systemID string, dhw int, mode string) error {
	return a.call("SetDhwOperationMode")
}

func (a *TestAPI) SetDhwSetpoint(ctx context.Context, systemID string, dhw int, setpoint int) error {
	return a.call("SetDhwSetpoint")
}

func (a *TestAPI) SetDhwTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error {
	return a.call("SetDhwTimeProgram")
}

func (a *TestAPI) SetDhwCirculationTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error {
	return a.call("SetDhwCirculationTimeProgram")
}

func (a *TestAPI) SetVentilationFanStage(ctx context.Context, systemID string, index int, stageType string, maxStage int) error {
	return a.call("SetVentilationFanStage")
}

func (a *TestAPI) SetCoolingForDays(ctx context.Context, systemID string, days int) error {
	return a.call("SetCoolingForDays")
}

func (a *TestAPI) CancelCooling(ctx context.Context, systemID string) error {
	return a.call("CancelCooling")
}

// ensure interface compliance
var _ API = (*TestAPI)(nil)
