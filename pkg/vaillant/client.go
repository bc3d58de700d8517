package vaillant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// API is the subset of the vendor cloud used by the bridge. Implemented by
// Connection and by the fake client used in tests.
type API interface {
	GetHomes(ctx context.Context) (Homes, error)
	GetSystem(ctx context.Context, systemID string) (System, error)
	GetEnergyData(ctx context.Context, systemID string, deviceIndex, seriesIndex int, start, end time.Time) (EnergyData, error)

	SetZoneOperatingMode(ctx context.Context, systemID string, zone int, mode string) error
	SetZoneManualSetpoint(ctx context.Context, systemID string, zone int, setpointType string, temperature float64) error
	SetZoneTimeProgram(ctx context.Context, systemID string, zone int, programType string, program TimeProgram) error
	StartZoneQuickVeto(ctx context.Context, systemID string, zone int, setpoint float64, durationHours float64) error
	CancelZoneQuickVeto(ctx context.Context, systemID string, zone int) error

	SetHoliday(ctx context.Context, systemID string, start, end time.Time, setpoint float64) error
	CancelHoliday(ctx context.Context, systemID string) error

	StartHotWaterBoost(ctx context.Context, systemID string, dhw int) error
	CancelHotWaterBoost(ctx context.Context, systemID string, dhw int) error
	SetDhwOperationMode(ctx context.Context, systemID string, dhw int, mode string) error
	SetDhwSetpoint(ctx context.Context, systemID string, dhw int, setpoint int) error
	SetDhwTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error
	SetDhwCirculationTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error

	SetVentilationFanStage(ctx context.Context, systemID string, index int, stageType string, maxStage int) error

	SetCoolingForDays(ctx context.Context, systemID string, days int) error
	CancelCooling(ctx context.Context, systemID string) error
}

// Connection is the live HTTP client against the myVaillant API.
type Connection struct {
	client  *http.Client
	session *Session
	baseURL string
	logger  *zap.Logger
}

func NewConnection(session *Session, logger *zap.Logger) *Connection {
	return &Connection{
		client:  &http.Client{Timeout: 30 * time.Second},
		session: session,
		baseURL: API_BASE_URL,
		logger:  logger,
	}
}

func (c *Connection) do(ctx context.Context, method, path string, body any, out any) error {
	if err := c.session.EnsureFresh(ctx); err != nil {
		return err
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", c.session.authorization())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Message: string(message)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Connection) GetHomes(ctx context.Context) (Homes, error) {
	var homes Homes
	err := c.do(ctx, http.MethodGet, "/homes", nil, &homes)
	return homes, err
}

func (c *Connection) GetSystem(ctx context.Context, systemID string) (System, error) {
	var report apiSystemReport
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/systems/%s/tli", systemID), nil, &report); err != nil {
		return System{}, err
	}
	var devices apiDeviceList
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/systems/%s/devices", systemID), nil, &devices); err != nil {
		return System{}, err
	}
	system := mergeSystemReport(systemID, report, devices)
	c.logger.Debug("vaillant: system fetched", zap.String("systemId", systemID),
		zap.Int("zones", len(system.Zones)), zap.Int("dhw", len(system.Dhw)))
	return system, nil
}

func (c *Connection) GetEnergyData(ctx context.Context, systemID string, deviceIndex, seriesIndex int, start, end time.Time) (EnergyData, error) {
	var wire apiEnergyResponse
	path := fmt.Sprintf("/emf/v2/%s/devices/%d/buckets?resolution=DAY&series=%d&startDate=%s&endDate=%s",
		systemID, deviceIndex, seriesIndex,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err := c.do(ctx, http.MethodGet, path, nil, &wire); err != nil {
		return EnergyData{}, err
	}
	return EnergyData{
		SystemID:    systemID,
		DeviceIndex: deviceIndex,
		SeriesIndex: seriesIndex,
		SeriesType:  wire.EnergyType,
		Resolution:  "DAY",
		StartAt:     wire.StartDate,
		EndAt:       wire.EndDate,
		Total:       wire.TotalConsumption,
		Buckets:     wire.Data,
	}, nil
}

func (c *Connection) SetZoneOperatingMode(ctx context.Context, systemID string, zone int, mode string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/zones/%d/heating-operation-mode", systemID, zone),
		map[string]string{"operationMode": mode}, nil)
}

func (c *Connection) SetZoneManualSetpoint(ctx context.Context, systemID string, zone int, setpointType string, temperature float64) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/zones/%d/manual-mode-setpoint", systemID, zone),
		map[string]any{"setpoint": temperature, "type": setpointType}, nil)
}

func (c *Connection) SetZoneTimeProgram(ctx context.Context, systemID string, zone int, programType string, program TimeProgram) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/zones/%d/%s-time-program", systemID, zone, programType),
		program, nil)
}

func (c *Connection) StartZoneQuickVeto(ctx context.Context, systemID string, zone int, setpoint float64, durationHours float64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/systems/%s/tli/zones/%d/quick-veto", systemID, zone),
		map[string]any{"desiredRoomTemperatureSetpoint": setpoint, "duration": durationHours}, nil)
}

func (c *Connection) CancelZoneQuickVeto(ctx context.Context, systemID string, zone int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/systems/%s/tli/zones/%d/quick-veto", systemID, zone), nil, nil)
}

func (c *Connection) SetHoliday(ctx context.Context, systemID string, start, end time.Time, setpoint float64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/systems/%s/tli/away-mode", systemID),
		map[string]any{
			"holidayStartDateTime": start.Format(time.RFC3339),
			"holidayEndDateTime":   end.Format(time.RFC3339),
			"setpoint":             setpoint,
		}, nil)
}

func (c *Connection) CancelHoliday(ctx context.Context, systemID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/systems/%s/tli/away-mode", systemID), nil, nil)
}

func (c *Connection) StartHotWaterBoost(ctx context.Context, systemID string, dhw int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/boost", systemID, dhw), nil, nil)
}

func (c *Connection) CancelHotWaterBoost(ctx context.Context, systemID string, dhw int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/boost", systemID, dhw), nil, nil)
}

func (c *Connection) SetDhwOperationMode(ctx context.Context, systemID string, dhw int, mode string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/operation-mode", systemID, dhw),
		map[string]string{"operationMode": mode}, nil)
}

func (c *Connection) SetDhwSetpoint(ctx context.Context, systemID string, dhw int, setpoint int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/temperature", systemID, dhw),
		map[string]int{"setpoint": setpoint}, nil)
}

func (c *Connection) SetDhwTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/time-program", systemID, dhw),
		program, nil)
}

func (c *Connection) SetDhwCirculationTimeProgram(ctx context.Context, systemID string, dhw int, program TimeProgram) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/domestic-hot-water/%d/circulation-pump-time-program", systemID, dhw),
		program, nil)
}

func (c *Connection) SetVentilationFanStage(ctx context.Context, systemID string, index int, stageType string, maxStage int) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/systems/%s/tli/ventilation/%d/fan-stage", systemID, index),
		map[string]any{"maximumFanStage": maxStage, "type": stageType}, nil)
}

func (c *Connection) SetCoolingForDays(ctx context.Context, systemID string, days int) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/systems/%s/tli/cooling-for-days", systemID),
		map[string]int{"durationDays": days}, nil)
}

func (c *Connection) CancelCooling(ctx context.Context, systemID string) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/systems/%s/tli/cooling-for-days", systemID), nil, nil)
}

func mergeSystemReport(systemID string, report apiSystemReport, devices apiDeviceList) System {
	system := System{
		ID:                 systemID,
		ControlIdentifier:  report.Properties.System.ControlIdentifier,
		OutdoorTemperature: report.State.System.OutdoorTemperature,
		WaterPressure:      report.State.System.WaterPressure,
	}
	if system.ControlIdentifier == "" {
		system.ControlIdentifier = CONTROL_IDENTIFIER_TLI
	}
	for i, cfg := range report.Configuration.Zones {
		zone := Zone{
			Index:                cfg.Index,
			Name:                 cfg.Name,
			CircuitIndex:         cfg.AssociatedCircuitIndex,
			DesiredSetpoint:      cfg.DesiredRoomTemperatureSetpoint,
			ManualModeSetpoint:   cfg.Heating.ManualModeSetpointHeating,
			OperationModeHeating: cfg.Heating.OperationModeHeating,
			HeatingProgram:       cfg.Heating.TimeProgramHeating,
		}
		if i < len(report.State.Zones) {
			st := report.State.Zones[i]
			zone.CurrentTemperature = st.CurrentRoomTemperature
			zone.Humidity = st.CurrentRoomHumidity
			zone.CurrentSpecialFunction = st.CurrentSpecialFunction
			zone.QuickVetoSetpoint = st.QuickVeto.DesiredRoomTemperatureSetpoint
			zone.QuickVetoEndsAt = st.QuickVeto.ExpiresAt
			zone.HolidayStartsAt = st.Holiday.StartDateTime
			zone.HolidayEndsAt = st.Holiday.EndDateTime
		}
		if zone.CurrentSpecialFunction == "" {
			zone.CurrentSpecialFunction = SPECIAL_FUNCTION_NONE
		}
		system.Zones = append(system.Zones, zone)
	}
	for i, cfg := range report.Configuration.Circuits {
		circuit := Circuit{
			Index:           cfg.Index,
			HeatingCurve:    cfg.HeatingCurve,
			MinFlowSetpoint: cfg.MinFlowSetpoint,
			CoolingAllowed:  cfg.IsCoolingAllowed,
		}
		if i < len(report.State.Circuits) {
			circuit.CurrentFlowTemperature = report.State.Circuits[i].CurrentFlowTemperature
		}
		system.Circuits = append(system.Circuits, circuit)
	}
	for i, zone := range system.Zones {
		if zone.CircuitIndex == nil {
			continue
		}
		for _, circuit := range system.Circuits {
			if circuit.Index == *zone.CircuitIndex {
				system.Zones[i].CoolingAllowed = circuit.CoolingAllowed
			}
		}
	}
	for i, cfg := range report.Configuration.Dhw {
		dhw := Dhw{
			Index:              cfg.Index,
			TappingSetpoint:    cfg.TappingSetpoint,
			MinSetpoint:        cfg.MinSetpoint,
			MaxSetpoint:        cfg.MaxSetpoint,
			OperationMode:      cfg.OperationModeDhw,
			TimeProgram:        cfg.TimeProgramDhw,
			CirculationProgram: cfg.TimeProgramCirculationPump,
		}
		if i < len(report.State.Dhw) {
			dhw.CurrentTemperature = report.State.Dhw[i].CurrentDhwTemperature
			dhw.CurrentSpecialFunction = report.State.Dhw[i].CurrentSpecialFunction
		}
		if dhw.CurrentSpecialFunction == "" {
			dhw.CurrentSpecialFunction = SPECIAL_FUNCTION_REGULAR
		}
		system.Dhw = append(system.Dhw, dhw)
	}
	for i, cfg := range report.Configuration.Ventilation {
		vent := Ventilation{
			Index:                cfg.Index,
			OperationMode:        cfg.OperationModeVentilation,
			MaximumDayFanStage:   cfg.MaximumDayFanStage,
			MaximumNightFanStage: cfg.MaximumNightFanStage,
		}
		if i < len(report.State.Ventilation) {
			vent.CurrentFanStage = report.State.Ventilation[i].CurrentVentilationFanStage
		}
		system.Ventilation = append(system.Ventilation, vent)
	}
	for i, st := range report.State.Rooms {
		room := Room{
			Index:              st.Index,
			Name:               st.Name,
			CurrentTemperature: st.CurrentTemperature,
			Humidity:           st.Humidity,
			BatteryLow:         st.BatteryLow,
			WindowOpen:         st.WindowOpen,
		}
		if i < len(report.Configuration.Rooms) {
			room.DesiredSetpoint = report.Configuration.Rooms[i].DesiredSetpoint
			if room.Name == "" {
				room.Name = report.Configuration.Rooms[i].Name
			}
		}
		system.Rooms = append(system.Rooms, room)
	}
	for i, dev := range devices.Devices {
		system.Devices = append(system.Devices, Device{
			Index:        i,
			UUID:         dev.DeviceUUID,
			Name:         dev.Name,
			Type:         dev.Type,
			SerialNumber: dev.SerialNumber,
			ProductName:  dev.ProductName,
			Operational:  dev.Operational,
		})
	}
	return system
}

// ensure interface compliance
var _ API = (*Connection)(nil)
