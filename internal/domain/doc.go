// Package domain models current weather conditions reported by the National
// Weather Service (NWS) public API at https://api.weather.gov.
//
// # Lookup Chain
//
// There is no single "weather at a coordinate" endpoint. A reading takes
// three round-trips, each one feeding the next:
//
//	GET /points/{lat},{lon}                  → properties.observationStations (URL)
//	GET {observationStations}                → features[0].properties.stationIdentifier
//	GET /stations/{id}/observations/latest   → properties.* measurements
//
// Coordinates are rendered in their shortest exact decimal form, e.g.
// 42.7892,-85.5167. The station listing is ordered by the upstream service;
// the first feature is used as-is, without distance ranking.
//
// # NWS Data Conventions
//
// Measurements:
//
//	Every numeric reading is an object {"unitCode": "wmoUnit:<unit>", "value": <number|null>}.
//	A null value means the station did not report that quantity for this
//	observation, which is common for windChill, heatIndex and windGust.
//
// Units as published, and what this package converts them to:
//
//	temperature, dewpoint, windChill, heatIndex   wmoUnit:degC    → whole °F, rounded half away from zero
//	windSpeed, windGust                           wmoUnit:km_h-1  → mph (wmoUnit:m_s-1 is also accepted)
//	windDirection                                 wmoUnit:degree_(angle)  kept, 0–359
//	barometricPressure                            wmoUnit:Pa      kept, truncated to an integer
//	visibility                                    wmoUnit:m       kept, truncated to an integer
//	relativeHumidity                              wmoUnit:percent kept, truncated to an integer
//
// Cloud cover (METAR sky condition codes, cloudLayers[].amount):
//
//	CLR clear | FEW few | SCT scattered | BKN broken | OVC overcast
//	VV / W0X total obscuration | -X partial obscuration
//
// An unknown code fails the whole observation rather than being dropped.
//
// Feels-like temperature:
//
//	Wind chill when reported, otherwise heat index when reported, otherwise
//	the air temperature. See [Observation.FeelsLike].
//
// # Failure Policy
//
// Which fields are required, which may be absent and which fall back to a
// default is declared in one table, [observationFields]. Wind direction and
// speed are the only fields that silently degrade; a missing temperature or
// an unknown cloud code is an error.
package domain
