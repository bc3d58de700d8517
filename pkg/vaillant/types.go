package vaillant

import "time"

type Credentials struct {
	Username string
	Password string
	Brand    string
	Country  string
}

type Home struct {
	HomeName          string `json:"homeName"`
	SystemID          string `json:"systemId"`
	SerialNumber      string `json:"serialNumber"`
	ProductInformation string `json:"productInformation"`
	Address           struct {
		City        string `json:"city"`
		CountryCode string `json:"countryCode"`
		PostalCode  string `json:"postalCode"`
		Street      string `json:"street"`
	} `json:"address"`
	TimeZone string `json:"timezone"`
}

type Homes []Home

// TimeProgram is the wire shape of a weekly schedule: one ordered period
// list per weekday, times as minute-of-day.
type TimeProgram struct {
	Monday    []TimePeriod `json:"monday"`
	Tuesday   []TimePeriod `json:"tuesday"`
	Wednesday []TimePeriod `json:"wednesday"`
	Thursday  []TimePeriod `json:"thursday"`
	Friday    []TimePeriod `json:"friday"`
	Saturday  []TimePeriod `json:"saturday"`
	Sunday    []TimePeriod `json:"sunday"`
}

type TimePeriod struct {
	StartTime int      `json:"startTime"`
	EndTime   int      `json:"endTime"`
	Setpoint  *float64 `json:"setpoint,omitempty"`
}

// System is the merged view of the vendor's state/configuration report
// for one installation.
type System struct {
	ID                 string
	ControlIdentifier  string
	TimeZone           string
	OutdoorTemperature *float64
	WaterPressure      *float64
	Zones              []Zone
	Circuits           []Circuit
	Dhw                []Dhw
	Ventilation        []Ventilation
	Devices            []Device
	Rooms              []Room
}

type Zone struct {
	Index                  int
	Name                   string
	CircuitIndex           *int
	CurrentTemperature     *float64
	Humidity               *float64
	DesiredSetpoint        float64
	ManualModeSetpoint     float64
	OperationModeHeating   string
	CurrentSpecialFunction string
	QuickVetoSetpoint      *float64
	QuickVetoEndsAt        *time.Time
	HolidayStartsAt        *time.Time
	HolidayEndsAt          *time.Time
	HeatingProgram         TimeProgram
	CoolingAllowed         bool
}

type Circuit struct {
	Index                   int
	CurrentFlowTemperature  *float64
	HeatingCurve            *float64
	MinFlowSetpoint         *float64
	CoolingAllowed          bool
}

type Dhw struct {
	Index                  int
	CurrentTemperature     *float64
	TappingSetpoint        float64
	MinSetpoint            float64
	MaxSetpoint            float64
	OperationMode          string
	CurrentSpecialFunction string
	TimeProgram            TimeProgram
	CirculationProgram     TimeProgram
}

type Ventilation struct {
	Index               int
	OperationMode       string
	CurrentFanStage     *float64
	MaximumDayFanStage  int
	MaximumNightFanStage int
}

type Device struct {
	Index        int
	UUID         string
	Name         string
	Type         string
	SerialNumber string
	ProductName  string
	Operational  bool
}

// Room is an Ambisense wireless thermostat room.
type Room struct {
	Index              int
	Name               string
	CurrentTemperature *float64
	DesiredSetpoint    float64
	Humidity           *float64
	BatteryLow         bool
	WindowOpen         bool
}

type EnergyData struct {
	SystemID    string
	DeviceIndex int
	SeriesIndex int
	SeriesType  string
	Resolution  string
	StartAt     time.Time
	EndAt       time.Time
	Total       float64
	Buckets     []EnergyBucket
}

type EnergyBucket struct {
	StartAt time.Time `json:"startDate"`
	EndAt   time.Time `json:"endDate"`
	Value   float64   `json:"value"`
}

// wire shapes of the system report

type apiSystemReport struct {
	State         apiSystemSection `json:"state"`
	Properties    apiSystemSection `json:"properties"`
	Configuration apiSystemSection `json:"configuration"`
}

type apiSystemSection struct {
	System      apiSystemBlock       `json:"system"`
	Zones       []apiZoneBlock       `json:"zones"`
	Circuits    []apiCircuitBlock    `json:"circuits"`
	Dhw         []apiDhwBlock        `json:"dhw"`
	Ventilation []apiVentilationBlock `json:"ventilations"`
	Rooms       []apiRoomBlock       `json:"rooms"`
}

type apiSystemBlock struct {
	ControlIdentifier  string   `json:"controllerType"`
	OutdoorTemperature *float64 `json:"outdoorTemperature"`
	WaterPressure      *float64 `json:"systemWaterPressure"`
}

type apiZoneBlock struct {
	Index                  int      `json:"index"`
	Name                   string   `json:"name"`
	AssociatedCircuitIndex *int     `json:"associatedCircuitIndex"`
	CurrentRoomTemperature *float64 `json:"currentRoomTemperature"`
	CurrentRoomHumidity    *float64 `json:"currentRoomHumidity"`
	DesiredRoomTemperatureSetpoint float64 `json:"desiredRoomTemperatureSetpoint"`
	CurrentSpecialFunction string   `json:"currentSpecialFunction"`
	Heating                struct {
		OperationModeHeating       string      `json:"operationModeHeating"`
		ManualModeSetpointHeating  float64     `json:"manualModeSetpointHeating"`
		TimeProgramHeating         TimeProgram `json:"timeProgramHeating"`
	} `json:"heating"`
	QuickVeto struct {
		DesiredRoomTemperatureSetpoint *float64   `json:"desiredRoomTemperatureSetpoint"`
		ExpiresAt                      *time.Time `json:"expiresAt"`
	} `json:"quickVeto"`
	Holiday struct {
		StartDateTime *time.Time `json:"holidayStartDateTime"`
		EndDateTime   *time.Time `json:"holidayEndDateTime"`
	} `json:"holiday"`
}

type apiCircuitBlock struct {
	Index                  int      `json:"index"`
	CurrentFlowTemperature *float64 `json:"currentCircuitFlowTemperature"`
	HeatingCurve           *float64 `json:"heatingCurve"`
	MinFlowSetpoint        *float64 `json:"heatingFlowTemperatureMinimumSetpoint"`
	IsCoolingAllowed       bool     `json:"isCoolingAllowed"`
}

type apiDhwBlock struct {
	Index                      int         `json:"index"`
	CurrentDhwTemperature      *float64    `json:"currentDhwTemperature"`
	TappingSetpoint            float64     `json:"tappingSetpoint"`
	MinSetpoint                float64     `json:"minSetpoint"`
	MaxSetpoint                float64     `json:"maxSetpoint"`
	OperationModeDhw           string      `json:"operationModeDhw"`
	CurrentSpecialFunction     string      `json:"currentSpecialFunction"`
	TimeProgramDhw             TimeProgram `json:"timeProgramDhw"`
	TimeProgramCirculationPump TimeProgram `json:"timeProgramCirculationPump"`
}

type apiVentilationBlock struct {
	Index                int      `json:"index"`
	OperationModeVentilation string `json:"operationModeVentilation"`
	CurrentVentilationFanStage *float64 `json:"currentVentilationFanStage"`
	MaximumDayFanStage   int      `json:"maximumDayFanStage"`
	MaximumNightFanStage int      `json:"maximumNightFanStage"`
}

type apiRoomBlock struct {
	Index              int      `json:"roomIndex"`
	Name               string   `json:"name"`
	CurrentTemperature *float64 `json:"currentTemperature"`
	DesiredSetpoint    float64  `json:"desiredTemperatureSetpoint"`
	Humidity           *float64 `json:"currentHumidity"`
	BatteryLow         bool     `json:"isBatteryLow"`
	WindowOpen         bool     `json:"isWindowOpen"`
}

type apiDeviceList struct {
	Devices []struct {
		DeviceUUID   string `json:"deviceUuid"`
		Name         string `json:"name"`
		Type         string `json:"type"`
		SerialNumber string `json:"deviceSerialNumber"`
		ProductName  string `json:"productName"`
		Operational  bool   `json:"operational"`
	} `json:"devices"`
}

type apiEnergyResponse struct {
	OperationMode string `json:"operationMode"`
	EnergyType    string `json:"energyType"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	TotalConsumption float64 `json:"totalConsumption"`
	Data          []EnergyBucket `json:"data"`
}
