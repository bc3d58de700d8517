package vaillant

import "time"

const (
	CLIENT_ID = "myvaillant"

	AUTH_BASE_URL = "https://identity.vaillant-group.com/auth/realms"
	API_BASE_URL  = "https://api.vaillant-group.com/service-connected-control/end-user-app-api/v1"

	TOKEN_URL = AUTH_BASE_URL + "/%s/protocol/openid-connect/token"
	AUTH_URL  = AUTH_BASE_URL + "/%s/protocol/openid-connect/auth"

	// Remaining token lifetime below which EnsureFresh triggers a refresh.
	TOKEN_REFRESH_MARGIN = 180 * time.Second

	// Marker carried in the HTTP error message when the account hit the API quota.
	QUOTA_EXCEEDED_MARKER = "Quota Exceeded"

	CONTROL_IDENTIFIER_VRC700 = "vrc700"
	CONTROL_IDENTIFIER_TLI    = "tli"
)

const (
	DEVICE_TYPE_HEAT_GENERATOR = "HEAT_GENERATOR"

	SETPOINT_TYPE_HEATING = "HEATING"
	SETPOINT_TYPE_COOLING = "COOLING"

	FAN_STAGE_TYPE_DAY   = "DAY"
	FAN_STAGE_TYPE_NIGHT = "NIGHT"

	OPERATION_MODE_OFF             = "OFF"
	OPERATION_MODE_MANUAL          = "MANUAL"
	OPERATION_MODE_TIME_CONTROLLED = "TIME_CONTROLLED"
	OPERATION_MODE_DAY             = "DAY"

	SPECIAL_FUNCTION_NONE           = "NONE"
	SPECIAL_FUNCTION_QUICK_VETO     = "QUICK_VETO"
	SPECIAL_FUNCTION_HOLIDAY        = "HOLIDAY"
	SPECIAL_FUNCTION_SYSTEM_OFF     = "SYSTEM_OFF"
	SPECIAL_FUNCTION_CYLINDER_BOOST = "CYLINDER_BOOST"
	SPECIAL_FUNCTION_REGULAR        = "REGULAR"
)

// Vendor-supplied defaults, used when the bridge config does not override them.
const (
	DEFAULT_QUICK_VETO_DURATION_HOURS = 3
	DEFAULT_HOLIDAY_DURATION_HOURS    = 24
	DEFAULT_HOLIDAY_SETPOINT_VRC700   = 10.0
	DEFAULT_MANUAL_COOLING_DAYS       = 30
	DEFAULT_LEGIONELLA_TEMPERATURE    = 0.0 // disabled unless configured
)

// Brands recognized by the vendor identity service, keyed by brand id.
// Each brand is available in a subset of countries.
var Brands = map[string][]string{
	"vaillant":     {"albania", "austria", "belgium", "bulgaria", "croatia", "czechrepublic", "denmark", "estonia", "finland", "france", "georgia", "germany", "greece", "hungary", "ireland", "italy", "latvia", "lithuania", "luxembourg", "netherlands", "norway", "poland", "portugal", "romania", "serbia", "slovakia", "slovenia", "spain", "sweden", "switzerland", "turkiye", "ukraine", "unitedkingdom", "uzbekistan"},
	"saunierduval": {"austria", "czechrepublic", "france", "greece", "hungary", "italy", "poland", "portugal", "romania", "slovakia", "spain"},
	"bulex":        {"belgium"},
}
