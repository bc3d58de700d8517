package server

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"myvaillant2mqtt/internal/core/domain"
	"myvaillant2mqtt/pkg/vaillant"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const commandTimeout = 60 * time.Second

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/export", s.ExportHandler)
	e.GET("/testdata", s.TestDataHandler)

	api := e.Group("/api")
	api.POST("/zone/:zone/quick_veto", s.SetQuickVetoHandler)
	api.DELETE("/zone/:zone/quick_veto", s.CancelQuickVetoHandler)
	api.POST("/zone/:zone/temperature", s.SetZoneTemperatureHandler)
	api.POST("/zone/:zone/hvac_mode", s.SetZoneHVACModeHandler)
	api.POST("/zone/:zone/preset", s.SetZonePresetHandler)
	api.POST("/zone/:zone/manual_setpoint", s.SetManualModeSetpointHandler)
	api.POST("/zone/:zone/time_program", s.SetZoneTimeProgramHandler)
	api.POST("/holiday", s.SetHolidayHandler)
	api.DELETE("/holiday", s.CancelHolidayHandler)
	api.POST("/cooling", s.SetCoolingHandler)
	api.DELETE("/cooling", s.CancelCoolingHandler)
	api.POST("/dhw/:dhw/boost", s.StartHotWaterBoostHandler)
	api.DELETE("/dhw/:dhw/boost", s.CancelHotWaterBoostHandler)
	api.POST("/dhw/:dhw/operation_mode", s.SetDhwOperationModeHandler)
	api.POST("/dhw/:dhw/setpoint", s.SetDhwSetpointHandler)
	api.POST("/dhw/:dhw/time_program", s.SetDhwTimeProgramHandler)
	api.POST("/ventilation/:index/fan_stage", s.SetVentilationFanStageHandler)
	api.GET("/schedule/:kind/:index", s.GetScheduleHandler)
	api.POST("/schedule/:kind/:index/event", s.CreateScheduleEventHandler)
	api.PUT("/schedule/:kind/:index/event", s.UpdateScheduleEventHandler)
	api.DELETE("/schedule/:kind/:index/event", s.DeleteScheduleEventHandler)

	return e
}

type serviceResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error,omitempty"`
	Result  map[string]any `json:"result,omitempty"`
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// sendCommand routes one service command through the master actor and maps
// the outcome to an HTTP response. A command returns success or one
// user-visible error, never a panic.
func (s *Server) sendCommand(c echo.Context, cmd domain.ControlRequest) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, cmd, commandTimeout).Result()
	if err != nil {
		return c.JSON(http.StatusGatewayTimeout, serviceResponse{Error: err.Error()})
	}
	response, ok := res.(domain.ControlResponse)
	if !ok {
		return c.JSON(http.StatusInternalServerError, serviceResponse{Error: "unexpected response"})
	}
	if response.HasResponseError() {
		respErr := response.GetResponseError()
		status := http.StatusInternalServerError
		switch {
		case domain.IsValidationError(respErr):
			status = http.StatusBadRequest
		case domain.IsUpdateFailedError(respErr):
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, serviceResponse{Error: respErr.Error()})
	}
	return c.JSON(http.StatusOK, serviceResponse{Success: true, Result: response.Result})
}

func indexParam(c echo.Context, name string) (int, error) {
	value, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s index %q", name, c.Param(name))
	}
	return value, nil
}

func badRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, serviceResponse{Error: err.Error()})
}

func (s *Server) SetQuickVetoHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID      string   `json:"system_id"`
		Temperature   float64  `json:"temperature"`
		DurationHours *float64 `json:"duration_hours"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetQuickVetoCommand{
		SystemID:      body.SystemID,
		Zone:          zone,
		Temperature:   body.Temperature,
		DurationHours: body.DurationHours,
	})
}

func (s *Server) CancelQuickVetoHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.CancelQuickVetoCommand{
		SystemID: c.QueryParam("system_id"),
		Zone:     zone,
	})
}

func (s *Server) SetZoneTemperatureHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID    string  `json:"system_id"`
		Temperature float64 `json:"temperature"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetZoneTemperatureCommand{
		SystemID:    body.SystemID,
		Zone:        zone,
		Temperature: body.Temperature,
	})
}

func (s *Server) SetZoneHVACModeHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID string `json:"system_id"`
		Mode     string `json:"mode"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetZoneHVACModeCommand{
		SystemID: body.SystemID,
		Zone:     zone,
		Mode:     domain.HVACMode(body.Mode),
	})
}

func (s *Server) SetZonePresetHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID string `json:"system_id"`
		Preset   string `json:"preset"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetZonePresetCommand{
		SystemID: body.SystemID,
		Zone:     zone,
		Preset:   domain.Preset(body.Preset),
	})
}

func (s *Server) SetManualModeSetpointHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID     string  `json:"system_id"`
		Temperature  float64 `json:"temperature"`
		SetpointType string  `json:"setpoint_type"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetManualModeSetpointCommand{
		SystemID:     body.SystemID,
		Zone:         zone,
		Temperature:  body.Temperature,
		SetpointType: body.SetpointType,
	})
}

func (s *Server) SetZoneTimeProgramHandler(c echo.Context) error {
	zone, err := indexParam(c, "zone")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID    string               `json:"system_id"`
		ProgramType string               `json:"program_type"`
		Program     vaillant.TimeProgram `json:"program"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetZoneTimeProgramCommand{
		SystemID:    body.SystemID,
		Zone:        zone,
		ProgramType: body.ProgramType,
		Program:     domain.TimeProgramFromAPI(body.Program),
	})
}

func (s *Server) SetHolidayHandler(c echo.Context) error {
	var body struct {
		SystemID      string     `json:"system_id"`
		Start         *time.Time `json:"start"`
		End           *time.Time `json:"end"`
		DurationHours *float64   `json:"duration_hours"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetHolidayCommand{
		SystemID:      body.SystemID,
		Start:         body.Start,
		End:           body.End,
		DurationHours: body.DurationHours,
	})
}

func (s *Server) CancelHolidayHandler(c echo.Context) error {
	return s.sendCommand(c, domain.CancelHolidayCommand{
		SystemID: c.QueryParam("system_id"),
	})
}

func (s *Server) SetCoolingHandler(c echo.Context) error {
	var body struct {
		SystemID string `json:"system_id"`
		Days     int    `json:"days"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetCoolingForDaysCommand{
		SystemID: body.SystemID,
		Days:     body.Days,
	})
}

func (s *Server) CancelCoolingHandler(c echo.Context) error {
	return s.sendCommand(c, domain.CancelCoolingCommand{
		SystemID: c.QueryParam("system_id"),
	})
}

func (s *Server) StartHotWaterBoostHandler(c echo.Context) error {
	dhw, err := indexParam(c, "dhw")
	if err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.StartHotWaterBoostCommand{
		SystemID: c.QueryParam("system_id"),
		Dhw:      dhw,
	})
}

func (s *Server) CancelHotWaterBoostHandler(c echo.Context) error {
	dhw, err := indexParam(c, "dhw")
	if err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.CancelHotWaterBoostCommand{
		SystemID: c.QueryParam("system_id"),
		Dhw:      dhw,
	})
}

func (s *Server) SetDhwOperationModeHandler(c echo.Context) error {
	dhw, err := indexParam(c, "dhw")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID string `json:"system_id"`
		Mode     string `json:"mode"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetDhwOperationModeCommand{
		SystemID: body.SystemID,
		Dhw:      dhw,
		Mode:     body.Mode,
	})
}

func (s *Server) SetDhwSetpointHandler(c echo.Context) error {
	dhw, err := indexParam(c, "dhw")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID string  `json:"system_id"`
		Setpoint float64 `json:"setpoint"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetDhwSetpointCommand{
		SystemID: body.SystemID,
		Dhw:      dhw,
		Setpoint: body.Setpoint,
	})
}

func (s *Server) SetDhwTimeProgramHandler(c echo.Context) error {
	dhw, err := indexParam(c, "dhw")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID    string               `json:"system_id"`
		Circulation bool                 `json:"circulation"`
		Program     vaillant.TimeProgram `json:"program"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.SetDhwTimeProgramCommand{
		SystemID:    body.SystemID,
		Dhw:         dhw,
		Circulation: body.Circulation,
		Program:     domain.TimeProgramFromAPI(body.Program),
	})
}

func (s *Server) SetVentilationFanStageHandler(c echo.Context) error {
	index, err := indexParam(c, "index")
	if err != nil {
		return badRequest(c, err)
	}
	var body struct {
		SystemID  string `json:"system_id"`
		Stage     int    `json:"stage"`
		StageType string `json:"stage_type"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	stageType := body.StageType
	if stageType == "" {
		stageType = vaillant.FAN_STAGE_TYPE_DAY
	}
	return s.sendCommand(c, domain.SetVentilationFanStageCommand{
		SystemID:  body.SystemID,
		Index:     index,
		MaxStage:  body.Stage,
		StageType: stageType,
	})
}

type scheduleEvent struct {
	UID      string    `json:"uid"`
	Summary  string    `json:"summary"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	RRule    string    `json:"rrule"`
	Setpoint *float64  `json:"setpoint,omitempty"`
}

type schedulePayload struct {
	Events  []scheduleEvent `json:"events"`
	Current string          `json:"current,omitempty"`
}

type scheduleEventBody struct {
	SystemID     string    `json:"system_id"`
	UID          string    `json:"uid"`
	RecurrenceID string    `json:"recurrence_id"`
	Scope        string    `json:"scope"`
	Summary      string    `json:"summary"`
	RRule        string    `json:"rrule"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
}

func (b scheduleEventBody) event() domain.CalendarEventWrite {
	return domain.CalendarEventWrite{
		UID:          b.UID,
		RecurrenceID: b.RecurrenceID,
		Scope:        b.Scope,
		Summary:      b.Summary,
		RRule:        b.RRule,
		Start:        b.Start,
		End:          b.End,
	}
}

func programRefParam(c echo.Context) (domain.ProgramRef, error) {
	kind := domain.ProgramKind(c.Param("kind"))
	switch kind {
	case domain.PROGRAM_ZONE_HEATING, domain.PROGRAM_DHW, domain.PROGRAM_DHW_CIRCULATION:
	default:
		return domain.ProgramRef{}, fmt.Errorf("unknown time program kind %q", c.Param("kind"))
	}
	index, err := indexParam(c, "index")
	if err != nil {
		return domain.ProgramRef{}, err
	}
	return domain.ProgramRef{Kind: kind, Index: index}, nil
}

func programFromSnapshot(
	snap *domain.SystemSnapshot, systemID string, ref domain.ProgramRef,
) (*vaillant.System, domain.TimeProgram, error) {
	var system *vaillant.System
	if systemID == "" {
		if len(snap.Systems) > 0 {
			system = &snap.Systems[0]
		}
	} else {
		for i := range snap.Systems {
			if snap.Systems[i].ID == systemID {
				system = &snap.Systems[i]
			}
		}
	}
	if system == nil {
		return nil, domain.TimeProgram{}, fmt.Errorf("no installation %q", systemID)
	}
	switch ref.Kind {
	case domain.PROGRAM_ZONE_HEATING:
		for i := range system.Zones {
			if system.Zones[i].Index == ref.Index {
				return system, domain.TimeProgramFromAPI(system.Zones[i].HeatingProgram), nil
			}
		}
	case domain.PROGRAM_DHW:
		for i := range system.Dhw {
			if system.Dhw[i].Index == ref.Index {
				return system, domain.TimeProgramFromAPI(system.Dhw[i].TimeProgram), nil
			}
		}
	case domain.PROGRAM_DHW_CIRCULATION:
		for i := range system.Dhw {
			if system.Dhw[i].Index == ref.Index {
				return system, domain.TimeProgramFromAPI(system.Dhw[i].CirculationProgram), nil
			}
		}
	}
	return nil, domain.TimeProgram{}, fmt.Errorf("no %s program with index %d", ref.Kind, ref.Index)
}

// GetScheduleHandler materializes a weekly program as calendar events over a
// window, defaulting to the next seven days in the installation's timezone.
func (s *Server) GetScheduleHandler(c echo.Context) error {
	ref, err := programRefParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	snap, err := s.snapshot()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, serviceResponse{Error: err.Error()})
	}
	system, tp, err := programFromSnapshot(snap, c.QueryParam("system_id"), ref)
	if err != nil {
		return badRequest(c, err)
	}
	loc, locErr := time.LoadLocation(system.TimeZone)
	if locErr != nil || system.TimeZone == "" {
		loc = time.UTC
	}
	now := time.Now().In(loc)
	start, end := now, now.AddDate(0, 0, 7)
	if v := c.QueryParam("start"); v != "" {
		if start, err = time.Parse(time.RFC3339, v); err != nil {
			return badRequest(c, fmt.Errorf("invalid start %q", v))
		}
	}
	if v := c.QueryParam("end"); v != "" {
		if end, err = time.Parse(time.RFC3339, v); err != nil {
			return badRequest(c, fmt.Errorf("invalid end %q", v))
		}
	}
	events := domain.EventsInWindow(tp, ref.UIDPrefix(), loc, start, end)
	payload := schedulePayload{Events: make([]scheduleEvent, 0, len(events))}
	for _, ev := range events {
		payload.Events = append(payload.Events, scheduleEvent{
			UID:      ev.UID,
			Summary:  ev.Summary,
			Start:    ev.Start,
			End:      ev.End,
			RRule:    ev.RRule,
			Setpoint: ev.Slot.Setpoint,
		})
	}
	if current := domain.CurrentEvent(events, now); current != nil {
		payload.Current = current.UID
	}
	return c.JSON(http.StatusOK, payload)
}

func (s *Server) CreateScheduleEventHandler(c echo.Context) error {
	ref, err := programRefParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var body scheduleEventBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.CreateCalendarEventCommand{
		SystemID: body.SystemID,
		Program:  ref,
		Event:    body.event(),
	})
}

func (s *Server) UpdateScheduleEventHandler(c echo.Context) error {
	ref, err := programRefParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var body scheduleEventBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.UpdateCalendarEventCommand{
		SystemID: body.SystemID,
		Program:  ref,
		Event:    body.event(),
	})
}

func (s *Server) DeleteScheduleEventHandler(c echo.Context) error {
	ref, err := programRefParam(c)
	if err != nil {
		return badRequest(c, err)
	}
	var body scheduleEventBody
	if err := c.Bind(&body); err != nil {
		return badRequest(c, err)
	}
	return s.sendCommand(c, domain.DeleteCalendarEventCommand{
		SystemID: body.SystemID,
		Program:  ref,
		Event:    body.event(),
	})
}

type exportPayload struct {
	FetchedAt time.Time             `json:"fetched_at"`
	Systems   []vaillant.System     `json:"systems"`
	Energy    []vaillant.EnergyData `json:"energy,omitempty"`
}

// ExportHandler dumps the latest snapshots as JSON.
func (s *Server) ExportHandler(c echo.Context) error {
	payload, err := s.export()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, serviceResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, payload)
}

// TestDataHandler dumps the latest snapshot with account-identifying fields
// blanked, usable as a shareable test fixture.
func (s *Server) TestDataHandler(c echo.Context) error {
	payload, err := s.export()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, serviceResponse{Error: err.Error()})
	}
	redact(payload)
	return c.JSON(http.StatusOK, payload)
}

func (s *Server) snapshot() (*domain.SystemSnapshot, error) {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		return nil, err
	}
	snapResponse, ok := res.(domain.GetSnapshotResponse)
	if !ok || snapResponse.Snapshot == nil {
		return nil, fmt.Errorf("no system snapshot available yet")
	}
	return snapResponse.Snapshot, nil
}

func (s *Server) export() (*exportPayload, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	payload := &exportPayload{
		FetchedAt: snap.FetchedAt,
		Systems:   snap.Systems,
	}

	res, err := s.rootContext.RequestFuture(s.masterActor, domain.GetEnergySnapshotRequest{}, 10*time.Second).Result()
	if err == nil {
		if energyResponse, ok := res.(domain.GetEnergySnapshotResponse); ok && energyResponse.Snapshot != nil {
			for _, data := range energyResponse.Snapshot.Data {
				payload.Energy = append(payload.Energy, data)
			}
			sort.Slice(payload.Energy, func(i, j int) bool {
				a, b := payload.Energy[i], payload.Energy[j]
				if a.DeviceIndex != b.DeviceIndex {
					return a.DeviceIndex < b.DeviceIndex
				}
				return a.SeriesIndex < b.SeriesIndex
			})
		}
	}
	return payload, nil
}

// redact replaces account-identifying fields on copies, the snapshot slices
// themselves are shared with the pollers and must stay untouched.
func redact(payload *exportPayload) {
	systems := make([]vaillant.System, len(payload.Systems))
	copy(systems, payload.Systems)
	for i := range systems {
		systems[i].ID = fmt.Sprintf("system-%d", i)
		devices := make([]vaillant.Device, len(systems[i].Devices))
		copy(devices, systems[i].Devices)
		for j := range devices {
			devices[j].UUID = "redacted"
			devices[j].SerialNumber = "redacted"
		}
		systems[i].Devices = devices
	}
	payload.Systems = systems
	for i := range payload.Energy {
		payload.Energy[i].SystemID = "system-0"
	}
}
