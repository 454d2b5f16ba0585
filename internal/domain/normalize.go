package domain

import (
	"log/slog"

	"github.com/couchcryptid/nws-observation-service/internal/jsontree"
)

// NormalizeObservation converts a latest-observation document into an
// Observation. StationID is left empty; the caller knows which station was
// asked.
func NormalizeObservation(doc jsontree.Value, logger *slog.Logger) (Observation, error) {
	props, err := doc.Object("properties")
	if err != nil {
		return Observation{}, &ParseFailedError{Field: "properties", Err: err}
	}

	var obs Observation

	if obs.Timestamp, _, err = extract(props, "timestamp", readTimestamp, logger); err != nil {
		return Observation{}, err
	}
	if obs.TextDescription, _, err = extract(props, "textDescription", readString, logger); err != nil {
		return Observation{}, err
	}
	if obs.Temperature, _, err = extract(props, "temperature", readTemperature, logger); err != nil {
		return Observation{}, err
	}
	if obs.DewPoint, _, err = extract(props, "dewpoint", readTemperature, logger); err != nil {
		return Observation{}, err
	}
	if obs.WindChill, err = optional(props, "windChill", readTemperature, logger); err != nil {
		return Observation{}, err
	}
	if obs.HeatIndex, err = optional(props, "heatIndex", readTemperature, logger); err != nil {
		return Observation{}, err
	}

	// Degraded wind fields never fail.
	obs.Wind.Direction, _, _ = extract(props, "windDirection", readInt, logger)
	obs.Wind.SpeedMph, _, _ = extract(props, "windSpeed", readSpeed, logger)
	obs.Wind.GustMph, _ = optional(props, "windGust", readSpeed, logger)

	if obs.BarometricPressure, _, err = extract(props, "barometricPressure", readInt, logger); err != nil {
		return Observation{}, err
	}
	if obs.Visibility, _, err = extract(props, "visibility", readInt, logger); err != nil {
		return Observation{}, err
	}
	if obs.RelativeHumidity, err = optional(props, "relativeHumidity", readInt, logger); err != nil {
		return Observation{}, err
	}
	if obs.CloudLayers, _, err = extract(props, "cloudLayers", readCloudLayers, logger); err != nil {
		return Observation{}, err
	}

	return obs, nil
}

// optional is extract for fields whose absence is represented by nil.
func optional[T any](props jsontree.Value, name string, read func(jsontree.Value, string) (T, error), logger *slog.Logger) (*T, error) {
	v, ok, err := extract(props, name, read, logger)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}
