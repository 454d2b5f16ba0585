package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Coordinate is a WGS-84 latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the coordinate as "lat,lon" using the shortest decimal form
// that round-trips, which is the form the points endpoint expects.
func (c Coordinate) String() string {
	return formatDegrees(c.Latitude) + "," + formatDegrees(c.Longitude)
}

func formatDegrees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Location is a named coordinate watched by the poller.
type Location struct {
	Name       string
	Coordinate Coordinate
}

// Temperature is a whole number of degrees Fahrenheit.
type Temperature int

// FahrenheitFromCelsius converts and rounds half away from zero.
func FahrenheitFromCelsius(c float64) Temperature {
	return Temperature(math.Round(c*9/5 + 32))
}

// Celsius returns the exact Celsius equivalent of t.
func (t Temperature) Celsius() float64 {
	return (float64(t) - 32) * 5 / 9
}

func (t Temperature) String() string {
	return strconv.Itoa(int(t)) + "°F"
}

const (
	mphPerKmh = 0.621371192237334
	mphPerMps = 2.2369362920544
)

// Wind describes the wind at observation time.
type Wind struct {
	Direction int      `json:"direction_deg"`
	SpeedMph  float64  `json:"speed_mph"`
	GustMph   *float64 `json:"gust_mph,omitempty"`
}

// CloudAmount is the METAR sky cover of one cloud layer.
type CloudAmount uint8

const (
	CloudClear CloudAmount = iota + 1
	CloudFew
	CloudScattered
	CloudBroken
	CloudOvercast
	CloudTotalObscuration
	CloudPartialObscuration
)

var cloudAmountCodes = map[string]CloudAmount{
	"CLR": CloudClear,
	"SKC": CloudClear,
	"FEW": CloudFew,
	"SCT": CloudScattered,
	"BKN": CloudBroken,
	"OVC": CloudOvercast,
	"VV":  CloudTotalObscuration,
	"W0X": CloudTotalObscuration,
	"-X":  CloudPartialObscuration,
}

// ParseCloudAmount maps an upstream sky cover code to a CloudAmount.
func ParseCloudAmount(code string) (CloudAmount, bool) {
	a, ok := cloudAmountCodes[code]
	return a, ok
}

// Code returns the canonical sky cover code.
func (a CloudAmount) Code() string {
	switch a {
	case CloudClear:
		return "CLR"
	case CloudFew:
		return "FEW"
	case CloudScattered:
		return "SCT"
	case CloudBroken:
		return "BKN"
	case CloudOvercast:
		return "OVC"
	case CloudTotalObscuration:
		return "VV"
	case CloudPartialObscuration:
		return "-X"
	default:
		return ""
	}
}

func (a CloudAmount) String() string {
	switch a {
	case CloudClear:
		return "clear"
	case CloudFew:
		return "few"
	case CloudScattered:
		return "scattered"
	case CloudBroken:
		return "broken"
	case CloudOvercast:
		return "overcast"
	case CloudTotalObscuration:
		return "totalObscuration"
	case CloudPartialObscuration:
		return "partialObscuration"
	default:
		return "CloudAmount(" + strconv.Itoa(int(a)) + ")"
	}
}

// MarshalText renders the sky cover code.
func (a CloudAmount) MarshalText() ([]byte, error) {
	code := a.Code()
	if code == "" {
		return nil, fmt.Errorf("invalid cloud amount %d", a)
	}
	return []byte(code), nil
}

// UnmarshalText accepts any code understood by ParseCloudAmount.
func (a *CloudAmount) UnmarshalText(text []byte) error {
	parsed, ok := ParseCloudAmount(string(text))
	if !ok {
		return &EnumElementNotFoundError{Field: "cloudLayers.amount", Value: string(text)}
	}
	*a = parsed
	return nil
}

// CloudLayer is one reported cloud layer.
type CloudLayer struct {
	Amount     CloudAmount `json:"amount"`
	BaseMeters *int        `json:"base_m,omitempty"`
}

// Observation is a normalized latest observation from one station.
type Observation struct {
	StationID          string       `json:"station_id"`
	Timestamp          time.Time    `json:"timestamp"`
	TextDescription    string       `json:"text_description"`
	Temperature        Temperature  `json:"temperature_f"`
	DewPoint           Temperature  `json:"dew_point_f"`
	WindChill          *Temperature `json:"wind_chill_f,omitempty"`
	HeatIndex          *Temperature `json:"heat_index_f,omitempty"`
	Wind               Wind         `json:"wind"`
	BarometricPressure int          `json:"barometric_pressure_pa"`
	Visibility         int          `json:"visibility_m"`
	RelativeHumidity   *int         `json:"relative_humidity_pct,omitempty"`
	CloudLayers        []CloudLayer `json:"cloud_layers"`
}

// FeelsLike returns the wind chill if reported, else the heat index if
// reported, else the air temperature.
func (o Observation) FeelsLike() Temperature {
	if o.WindChill != nil {
		return *o.WindChill
	}
	if o.HeatIndex != nil {
		return *o.HeatIndex
	}
	return o.Temperature
}
